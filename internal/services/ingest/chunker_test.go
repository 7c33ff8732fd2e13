// chunker_test.go — Unit tests for the word-count chunker.
package ingest

import (
	"strings"
	"testing"
)

// manyWords builds a page of n identical words.
func manyWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = "word"
	}
	return strings.Join(words, " ")
}

// TestChunkPagesPacksAndFlushesAtPageBoundary covers the core contract:
// a 600-word page followed by a 100-word page with a 500-word target
// yields three chunks, and no chunk spans a page boundary.
func TestChunkPagesPacksAndFlushesAtPageBoundary(t *testing.T) {
	pages := []Page{
		{Num: 1, Text: manyWords(600)},
		{Num: 2, Text: manyWords(100)},
	}

	chunks := ChunkPages("doc-1", pages, 500)
	if len(chunks) != 3 {
		t.Fatalf("ChunkPages produced %d chunks, want 3", len(chunks))
	}

	wantWords := []int{500, 100, 100}
	wantPages := []int{1, 1, 2}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d, want %d", i, c.ChunkIndex, i)
		}
		if c.WordCount != wantWords[i] {
			t.Errorf("chunk %d word count = %d, want %d", i, c.WordCount, wantWords[i])
		}
		if c.PageStart != wantPages[i] || c.PageEnd != wantPages[i] {
			t.Errorf("chunk %d pages = [%d,%d], want [%d,%d]",
				i, c.PageStart, c.PageEnd, wantPages[i], wantPages[i])
		}
		if c.DocumentID != "doc-1" {
			t.Errorf("chunk %d document ID = %q, want doc-1", i, c.DocumentID)
		}
	}
}

// TestChunkPagesDiscardsTinyChunksKeepsIndicesDense verifies that a chunk
// whose content is too short is dropped without consuming a sequence
// index.
func TestChunkPagesDiscardsTinyChunksKeepsIndicesDense(t *testing.T) {
	pages := []Page{
		{Num: 1, Text: "!! ??"}, // joins to 5 chars — below the keep threshold
		{Num: 2, Text: manyWords(30)},
	}

	chunks := ChunkPages("doc-1", pages, 500)
	if len(chunks) != 1 {
		t.Fatalf("ChunkPages produced %d chunks, want 1", len(chunks))
	}
	if chunks[0].ChunkIndex != 0 {
		t.Errorf("surviving chunk index = %d, want 0 (discards must not consume indices)", chunks[0].ChunkIndex)
	}
	if chunks[0].PageStart != 2 {
		t.Errorf("surviving chunk page = %d, want 2", chunks[0].PageStart)
	}
}

func TestChunkPagesDefaultTarget(t *testing.T) {
	pages := []Page{{Num: 1, Text: manyWords(50)}}

	// targetWords <= 0 falls back to the default, so 50 words fit in one.
	chunks := ChunkPages("doc-1", pages, 0)
	if len(chunks) != 1 {
		t.Fatalf("ChunkPages produced %d chunks, want 1", len(chunks))
	}
	if chunks[0].WordCount != 50 {
		t.Errorf("chunk word count = %d, want 50", chunks[0].WordCount)
	}
}

func TestChunkPagesEmptyInput(t *testing.T) {
	if chunks := ChunkPages("doc-1", nil, 500); len(chunks) != 0 {
		t.Errorf("ChunkPages(nil) = %d chunks, want 0", len(chunks))
	}
}

// TestChunkPagesExactMultiple: a page holding exactly 2x the target splits
// into two full chunks with no empty trailing chunk.
func TestChunkPagesExactMultiple(t *testing.T) {
	pages := []Page{{Num: 1, Text: manyWords(1000)}}

	chunks := ChunkPages("doc-1", pages, 500)
	if len(chunks) != 2 {
		t.Fatalf("ChunkPages produced %d chunks, want 2", len(chunks))
	}
	for i, c := range chunks {
		if c.WordCount != 500 {
			t.Errorf("chunk %d word count = %d, want 500", i, c.WordCount)
		}
	}
}
