// Package extract pulls page-level text out of uploaded PDF and EPUB files.
//
// Real-world files are frequently malformed, so each format runs multiple
// independent strategies in priority order: a strict structured parse
// first, progressively more permissive scans after. Strategy failures are
// logged and swallowed — only "every strategy came up empty" surfaces to
// the caller as ErrExtractionFailed.
package extract

import "errors"

// ErrExtractionFailed means no strategy recovered any text from the file.
// Terminal for that ingestion attempt.
var ErrExtractionFailed = errors.New("text extraction failed")

// Metadata holds document metadata pulled from an EPUB package document.
// Extracted independently of body text — a book with unreadable content
// can still show a correct title and cover.
type Metadata struct {
	Title          string
	Author         string
	CoverData      []byte // raw image bytes, nil if no cover found
	CoverMediaType string
	EstimatedPages int // derived from total text length, 0 if unknown
}

// countWords counts whitespace-separated words in a string.
func countWords(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inWord = false
		} else if !inWord {
			inWord = true
			n++
		}
	}
	return n
}
