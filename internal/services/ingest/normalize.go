// normalize.go cleans extracted page text so that chunking and substring
// search behave predictably downstream.
package ingest

import (
	"regexp"
	"strings"
	"unicode"
)

// minPageLength is the shortest normalized page we keep. Anything under
// this is noise — blank pages, stray page numbers, decoration.
const minPageLength = 10

// Page is one extracted page with its original 1-based page number.
// Dropping noise pages must not renumber the survivors — chunk provenance
// points at the source document, not at our cleaned list.
type Page struct {
	Num  int
	Text string
}

var whitespaceRunRegex = regexp.MustCompile(`\s+`)

// quoteDashReplacer straightens curly quotes and hyphenates en/em dashes
// so a reader typing plain ASCII into the search box still matches.
var quoteDashReplacer = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"–", "-", // en dash
	"—", "-", // em dash
)

// NormalizePage cleans a raw extracted page string. Operations, in order:
// turn non-breaking spaces into regular spaces, collapse whitespace runs
// to single spaces, strip zero-width and control characters, straighten
// quotes and dashes, trim. NBSP joins words in layout only, so it has to
// become a space rather than vanish.
func NormalizePage(raw string) string {
	text := strings.ReplaceAll(raw, "\u00a0", " ")
	text = whitespaceRunRegex.ReplaceAllString(text, " ")

	text = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			return -1 // zero-width characters: drop
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)

	text = quoteDashReplacer.Replace(text)
	return strings.TrimSpace(text)
}

// NormalizePages cleans every page and drops the ones that normalize to
// fewer than minPageLength characters, preserving original page numbers.
func NormalizePages(raw []string) []Page {
	pages := make([]Page, 0, len(raw))
	for i, p := range raw {
		cleaned := NormalizePage(p)
		if len(cleaned) < minPageLength {
			continue
		}
		pages = append(pages, Page{Num: i + 1, Text: cleaned})
	}
	return pages
}
