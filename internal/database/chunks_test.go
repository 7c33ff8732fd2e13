// chunks_test.go — Unit tests for chunk insert batching.
package database

import (
	"testing"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

// TestInsertBatches: a chunk set larger than one statement's parameter
// budget is split into ordered batches, each within the size cap.
func TestInsertBatches(t *testing.T) {
	makeChunks := func(n int) []models.Chunk {
		chunks := make([]models.Chunk, n)
		for i := range chunks {
			chunks[i] = models.Chunk{ChunkIndex: i}
		}
		return chunks
	}

	tests := []struct {
		name      string
		n         int
		size      int
		wantSizes []int
	}{
		{name: "empty input yields no batches", n: 0, size: 5000},
		{name: "under one batch", n: 3, size: 5000, wantSizes: []int{3}},
		{name: "exact multiple", n: 10000, size: 5000, wantSizes: []int{5000, 5000}},
		{name: "remainder batch", n: 10001, size: 5000, wantSizes: []int{5000, 5000, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := insertBatches(makeChunks(tt.n), tt.size)
			if len(batches) != len(tt.wantSizes) {
				t.Fatalf("got %d batches, want %d", len(batches), len(tt.wantSizes))
			}

			next := 0
			for i, b := range batches {
				if len(b) != tt.wantSizes[i] {
					t.Errorf("batch %d has %d chunks, want %d", i, len(b), tt.wantSizes[i])
				}
				for _, c := range b {
					if c.ChunkIndex != next {
						t.Fatalf("batch %d out of order: chunk index %d, want %d", i, c.ChunkIndex, next)
					}
					next++
				}
			}
		})
	}
}
