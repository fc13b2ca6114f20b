package querytools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruncateToByteBudget_ReturnsUnchangedWhenWithinBudget(t *testing.T) {
	require.Equal(t, "hello", TruncateToByteBudget("hello", 100))
}

func TestTruncateToByteBudget_CutsAtRuneBoundaryAndAppendsMarker(t *testing.T) {
	s := strings.Repeat("a", 30) + "é" + strings.Repeat("b", 30)
	out := TruncateToByteBudget(s, 20)
	require.True(t, strings.HasSuffix(out, truncationMarker))
	require.LessOrEqual(t, len(out), 20)
	// the cut must not have split the multi-byte rune anywhere in the kept prefix
	kept := strings.TrimSuffix(out, truncationMarker)
	require.True(t, len(kept) == 0 || isRuneBoundary(s, len(kept)))
}

func TestTruncateToByteBudget_BudgetSmallerThanMarkerStillBounded(t *testing.T) {
	out := TruncateToByteBudget("anything at all", 5)
	require.LessOrEqual(t, len(out), 5)
}

func TestParseFormat_DefaultsToMarkdown(t *testing.T) {
	require.Equal(t, FormatMarkdown, ParseFormat(""))
	require.Equal(t, FormatMarkdown, ParseFormat("bogus"))
	require.Equal(t, FormatCompact, ParseFormat("compact"))
}

func TestCompactRow_SanitizesEmbeddedNewlinesAndTabs(t *testing.T) {
	row := compactRow("a\nb", "c\td", "plain")
	require.NotContains(t, row, "\n")
	require.Equal(t, "a b\tc d\tplain", row)
}

func TestCharDiv4Estimator_RoundsUp(t *testing.T) {
	e := CharDiv4Estimator{}
	require.Equal(t, 0, e.Estimate(""))
	require.Equal(t, 1, e.Estimate("abc"))
	require.Equal(t, 1, e.Estimate("abcd"))
	require.Equal(t, 2, e.Estimate("abcde"))
}

func TestAllocateBudget_SplitsProportionally(t *testing.T) {
	out := AllocateBudget(1000, []SectionBudget{
		{Name: "a", Fraction: 0.45},
		{Name: "b", Fraction: 0.28},
		{Name: "c", Fraction: 0.27},
	})
	require.Equal(t, 450*4, out["a"])
	require.Equal(t, 280*4, out["b"])
	require.Equal(t, 270*4, out["c"])
}
