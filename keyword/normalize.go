package keyword

import (
	"log/slog"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldConfusables normalizes text so that common homoglyph evasion (accent
// marks, fullwidth forms, stylized unicode letters) collapses back to the
// plain form a word list is written in. Applies NFKD compatibility
// decomposition, strips combining marks, then recomposes.
func FoldConfusables(text string) string {
	// the transform chain is stateful and must not be shared across calls
	normFunc := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(normFunc, text)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		return text
	}
	return out
}
