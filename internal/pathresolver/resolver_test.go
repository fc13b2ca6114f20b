package pathresolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lzerrors "github.com/ozekimasaki/lazyload/internal/errors"
)

// Scenario from spec.md §8 property 7: ambiguous suffix yields >= 2 suggestions.
func TestResolve_AmbiguousSuffix(t *testing.T) {
	stored := []string{"/root/src/a/utils.ts", "/root/src/b/utils.ts"}
	r := New("/root", stored)

	_, resolveErr := r.Resolve("utils.ts")
	require.NotNil(t, resolveErr)
	assert.Equal(t, lzerrors.ResolveAmbiguous, resolveErr.Type)
	assert.GreaterOrEqual(t, len(resolveErr.Suggestions), 2)
}

func TestResolve_ExactMatch(t *testing.T) {
	stored := []string{"/root/src/main.ts"}
	r := New("/root", stored)

	res, resolveErr := r.Resolve("/root/src/main.ts")
	require.Nil(t, resolveErr)
	assert.Equal(t, "/root/src/main.ts", res.ResolvedPath)
	assert.False(t, res.AutoResolved)
}

func TestResolve_FuzzyAutoResolve(t *testing.T) {
	stored := []string{"/root/src/userService.ts", "/root/src/orderService.ts"}
	r := New("/root", stored)

	res, resolveErr := r.Resolve("userServic.ts")
	require.Nil(t, resolveErr)
	assert.Equal(t, "/root/src/userService.ts", res.ResolvedPath)
	assert.True(t, res.AutoResolved)
}

func TestResolve_NotFound(t *testing.T) {
	stored := []string{"/root/src/main.ts"}
	r := New("/root", stored)

	_, resolveErr := r.Resolve("completely/unrelated/path.go")
	require.NotNil(t, resolveErr)
	assert.Equal(t, lzerrors.ResolveNotFound, resolveErr.Type)
}
