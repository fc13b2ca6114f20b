package querytools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ozekimasaki/lazyload/internal/indexer"
)

// SyncIndexInput configures sync_index.
type SyncIndexInput struct {
	Paths        []string `json:"files,omitempty"`
	ForceRebuild bool     `json:"rebuild_chains,omitempty"`
	Format       string   `json:"format,omitempty"`
}

// SyncIndexOutput reports what sync_index actually did.
type SyncIndexOutput struct {
	Indexed       []string
	Failed        map[string]string
	ChainsRebuilt bool
}

// SyncIndex implements sync_index: re-index the given paths (or nothing,
// if Paths is empty and only a chain rebuild was requested), then
// optionally force a Markov chain rebuild regardless of the indexer's own
// change-threshold heuristic.
func (d *Deps) SyncIndex(ctx context.Context, idx *indexer.Indexer, in SyncIndexInput) (SyncIndexOutput, error) {
	out := SyncIndexOutput{Failed: map[string]string{}}

	for _, p := range in.Paths {
		changed, err := idx.IndexFile(ctx, p)
		if err != nil {
			out.Failed[p] = err.Error()
			continue
		}
		if changed {
			out.Indexed = append(out.Indexed, p)
		}
	}

	if in.ForceRebuild && d.Rebuilder != nil {
		if err := d.Rebuilder.BuildAllChains(ctx); err != nil {
			return out, err
		}
		out.ChainsRebuilt = true
	}

	return out, nil
}

// RenderSyncIndex shapes a SyncIndex result.
func RenderSyncIndex(out SyncIndexOutput, format OutputFormat, maxBytes int) string {
	if format == FormatCompact {
		var b strings.Builder
		fmt.Fprintf(&b, "indexed=%d failed=%d rebuilt=%v\n", len(out.Indexed), len(out.Failed), out.ChainsRebuilt)
		for _, p := range out.Indexed {
			b.WriteString(compactRow("indexed", p))
			b.WriteByte('\n')
		}
		for p, msg := range out.Failed {
			b.WriteString(compactRow("failed", p, msg))
			b.WriteByte('\n')
		}
		return TruncateToByteBudget(b.String(), maxBytes)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Sync result\n\n%d indexed, %d failed, chains rebuilt: %v\n\n", len(out.Indexed), len(out.Failed), out.ChainsRebuilt)
	for _, p := range out.Indexed {
		fmt.Fprintf(&b, "- indexed `%s`\n", p)
	}
	for p, msg := range out.Failed {
		fmt.Fprintf(&b, "- failed `%s`: %s\n", p, msg)
	}
	return TruncateToByteBudget(b.String(), maxBytes)
}
