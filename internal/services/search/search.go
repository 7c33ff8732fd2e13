// Package search implements multi-strategy substring search over a
// document's chunks.
//
// Strategies are attempted in order, stopping at the first one that
// yields a result:
//  1. Direct substring match against every chunk's content.
//  2. For multi-word queries: each word (longer than 2 chars) searched
//     independently, results merged and de-duplicated by chunk.
//  3. For queries longer than 3 chars: lexical variations — the query
//     itself, minus its last character, minus its first character.
//
// The engine is pure: it operates on an in-memory chunk slice and returns
// ephemeral results, never touching storage.
package search

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

// DefaultMaxResults caps how many chunks a search may match when the
// caller doesn't say.
const DefaultMaxResults = 50

// contextRadius is how many characters of surrounding text each match
// carries on either side.
const contextRadius = 150

// Highlight markers wrapped around the matched text in rendered output.
const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// Search runs the strategy chain over the given chunks. Chunks must be
// ordered by sequence index (the store returns them that way); results
// come back in that same order.
func Search(chunks []models.Chunk, query string, opts models.SearchOptions) []models.SearchResult {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}

	// Strategy 1: direct substring match.
	results := directSearch(chunks, query, opts)
	if len(results) > 0 {
		return results
	}

	// Strategy 2: word-by-word fallback for multi-word queries.
	if strings.ContainsAny(query, " \t") {
		if results = wordFallback(chunks, query, opts); len(results) > 0 {
			return results
		}
	}

	// Strategy 3: lexical variations for longer queries.
	if len(query) > 3 {
		variations := []string{
			query,
			query[:len(query)-1], // drop last char (trailing typo, plural)
			query[1:],            // drop first char
		}
		relaxed := opts
		relaxed.CaseSensitive = false
		for _, v := range variations {
			if results = directSearch(chunks, v, relaxed); len(results) > 0 {
				return results
			}
		}
	}

	return []models.SearchResult{}
}

// directSearch matches the query against every chunk in order, capped at
// opts.MaxResults matching chunks, and expands each into per-occurrence
// results.
func directSearch(chunks []models.Chunk, query string, opts models.SearchOptions) []models.SearchResult {
	var results []models.SearchResult
	matched := 0

	for _, chunk := range chunks {
		occ := findOccurrences(chunk.Content, query, opts.CaseSensitive, opts.WholeWords)
		if len(occ) == 0 {
			continue
		}
		matched++
		results = append(results, buildResults(chunk, occ)...)
		if matched >= opts.MaxResults {
			break
		}
	}
	return results
}

// wordFallback splits the query into words longer than 2 characters and
// searches each independently (case-insensitive). Each word gets a fair
// share of the result budget; per-word sub-searches run concurrently and
// the merged output is de-duplicated by chunk and re-ordered by chunk
// index so the final ordering is deterministic regardless of which
// goroutine finished first.
func wordFallback(chunks []models.Chunk, query string, opts models.SearchOptions) []models.SearchResult {
	var words []string
	for _, w := range strings.Fields(query) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return nil
	}

	budget := opts.MaxResults / len(words)
	if budget < 1 {
		budget = 1
	}

	perWord := make([][]models.SearchResult, len(words))
	var g errgroup.Group
	for i, word := range words {
		g.Go(func() error {
			perWord[i] = directSearch(chunks, word, models.SearchOptions{
				CaseSensitive: false,
				WholeWords:    opts.WholeWords,
				MaxResults:    budget,
			})
			return nil
		})
	}
	_ = g.Wait() // sub-searches are pure and never error

	// Merge, de-duplicating by chunk: the first word to claim a chunk
	// keeps it (all of that word's occurrences within the chunk survive).
	seen := make(map[string]bool)
	var merged []models.SearchResult
	for _, rs := range perWord {
		claimed := make(map[string]bool)
		for _, r := range rs {
			if seen[r.ChunkID] {
				continue
			}
			claimed[r.ChunkID] = true
			merged = append(merged, r)
		}
		for id := range claimed {
			seen[id] = true
		}
	}

	sortByChunkIndex(merged)
	return merged
}

// sortByChunkIndex orders results by chunk sequence index, then by match
// position within the chunk. Insertion sort — result sets are small.
func sortByChunkIndex(results []models.SearchResult) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0; j-- {
			a, b := results[j-1], results[j]
			if a.ChunkIndex < b.ChunkIndex || (a.ChunkIndex == b.ChunkIndex && a.Start <= b.Start) {
				break
			}
			results[j-1], results[j] = b, a
		}
	}
}

// findOccurrences returns the [start, end) byte offsets of every
// occurrence of needle in content, always in content's own byte
// coordinates. Case-insensitive scans run over a lowered copy; lowering
// can change a rune's encoded length (U+023A is two bytes, its lowercase
// U+2C65 is three), so offsets found in the lowered string are mapped
// back to the original bytes. The scan advances from each found index +
// 1 rather than skipping the whole match, so adjacent and overlapping
// occurrences are each reported once per start position.
func findOccurrences(content, needle string, caseSensitive, wholeWords bool) [][2]int {
	if needle == "" {
		return nil
	}

	hay, n := content, needle
	var toOrig []int
	if !caseSensitive {
		hay, toOrig = lowerWithOffsets(content)
		n = strings.ToLower(needle)
	}

	var occ [][2]int
	from := 0
	for {
		i := strings.Index(hay[from:], n)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(n)
		if !wholeWords || isWordBounded(hay, start, end) {
			if toOrig != nil {
				occ = append(occ, [2]int{toOrig[start], toOrig[end]})
			} else {
				occ = append(occ, [2]int{start, end})
			}
		}
		from = start + 1
	}
	return occ
}

// lowerWithOffsets lowers content rune by rune and records, for every
// byte of the lowered string plus a trailing sentinel, the original byte
// offset it came from. UTF-8 is self-synchronizing, so matches in the
// lowered string always land on rune boundaries and map back cleanly.
func lowerWithOffsets(content string) (string, []int) {
	var b strings.Builder
	b.Grow(len(content))
	toOrig := make([]int, 0, len(content)+1)
	for i, r := range content {
		before := b.Len()
		b.WriteRune(unicode.ToLower(r))
		for j := before; j < b.Len(); j++ {
			toOrig = append(toOrig, i)
		}
	}
	toOrig = append(toOrig, len(content))
	return b.String(), toOrig
}

// isWordBounded reports whether the match at [start, end) is not embedded
// inside a larger word.
func isWordBounded(s string, start, end int) bool {
	if start > 0 && isWordByte(s[start-1]) {
		return false
	}
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b)) || b == '_'
}

// buildResults expands a chunk's occurrences into SearchResults with
// context windows and highlighted renderings.
func buildResults(chunk models.Chunk, occ [][2]int) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(occ))
	for _, o := range occ {
		start, end := o[0], o[1]
		if end > len(chunk.Content) {
			end = len(chunk.Content)
		}
		if start > end {
			start = end
		}

		ctxStart := start - contextRadius
		if ctxStart < 0 {
			ctxStart = 0
		}
		ctxEnd := end + contextRadius
		if ctxEnd > len(chunk.Content) {
			ctxEnd = len(chunk.Content)
		}

		context := chunk.Content[ctxStart:ctxEnd]
		// Wrap the original-case match text in markers.
		highlighted := chunk.Content[ctxStart:start] + markOpen +
			chunk.Content[start:end] + markClose + chunk.Content[end:ctxEnd]

		results = append(results, models.SearchResult{
			ChunkID:     chunk.ID,
			ChunkIndex:  chunk.ChunkIndex,
			Page:        pageLabel(chunk),
			Start:       start,
			End:         end,
			Context:     context,
			Highlighted: highlighted,
		})
	}
	return results
}

// pageLabel prefers the source page when provenance is known, otherwise
// falls back to the chunk's 1-based position.
func pageLabel(chunk models.Chunk) string {
	if chunk.PageStart > 0 {
		return strconv.Itoa(chunk.PageStart)
	}
	return strconv.Itoa(chunk.ChunkIndex + 1)
}
