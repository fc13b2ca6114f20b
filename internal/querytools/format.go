package querytools

import (
	"strings"
)

// OutputFormat selects one tool's rendering per spec.md §4.9: "compact" (a
// tab-separated table, sanitized newlines, deterministic truncation
// marker) or "markdown" (human-readable sections). Markdown is the default
// when a tool's format field is left unset.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatCompact  OutputFormat = "compact"
)

// ParseFormat normalizes a raw format string from tool input, defaulting
// to markdown for anything unrecognized.
func ParseFormat(raw string) OutputFormat {
	if OutputFormat(raw) == FormatCompact {
		return FormatCompact
	}
	return FormatMarkdown
}

// truncationMarker is appended, verbatim, whenever a byte budget forces a
// cut — spec.md §4.9's "deterministic ...[truncated] marker".
const truncationMarker = "...[truncated]"

// sanitizeForCompactRow collapses embedded newlines/tabs so a compact-mode
// value can't break the tab-separated row structure.
func sanitizeForCompactRow(s string) string {
	replacer := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")
	return replacer.Replace(s)
}

// TruncateToByteBudget cuts s to fit maxBytes, landing on the last valid
// UTF-8 rune boundary at or before maxBytes-len(truncationMarker), and
// appends the marker. Returns s unchanged if it already fits.
func TruncateToByteBudget(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	limit := maxBytes - len(truncationMarker)
	if limit <= 0 {
		return truncationMarker[:maxBytes]
	}

	cut := limit
	for cut > 0 && !isRuneBoundary(s, cut) {
		cut--
	}
	return s[:cut] + truncationMarker
}

func isRuneBoundary(s string, i int) bool {
	if i <= 0 || i >= len(s) {
		return true
	}
	// A byte is a continuation byte of a multi-byte rune iff its top two
	// bits are "10". Cutting there would split the rune, so only a
	// non-continuation byte is a valid boundary.
	return s[i]&0xC0 != 0x80
}

// compactRow joins fields with tabs after sanitizing each one, the
// row shape spec.md §4.9's compact mode specifies.
func compactRow(fields ...string) string {
	sanitized := make([]string, len(fields))
	for i, f := range fields {
		sanitized[i] = sanitizeForCompactRow(f)
	}
	return strings.Join(sanitized, "\t")
}
