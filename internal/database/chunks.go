// chunks.go is the chunk store: durable, ordered-by-index persistence of
// a document's text chunks.
//
// Ingestion is NOT incremental — reprocessing a document always fully
// replaces its chunk set. ReplaceChunks runs delete-then-insert inside a
// single transaction so concurrent readers never observe a half-old/
// half-new chunk set.
package database

import (
	"context"
	"fmt"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

// insertBatchSize is the most chunks per multi-row INSERT. Each row
// binds 6 parameters and Postgres caps a statement at 65535, so one
// statement must never carry more than ~10900 chunks; very long books
// get there.
const insertBatchSize = 5000

// ReplaceChunks atomically swaps a document's chunk set for the given one.
// Passing an empty slice clears the document back to "unprocessed".
func (db *DB) ReplaceChunks(ctx context.Context, documentID string, chunks []models.Chunk) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chunk replace: %w", err)
	}
	// Rollback is a no-op after a successful Commit.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("failed to clear old chunks: %w", err)
	}

	// sqlx expands a slice of structs into a multi-row VALUES clause.
	// All batches share the transaction, so readers still see the swap
	// as a single step.
	for _, batch := range insertBatches(chunks, insertBatchSize) {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO chunks (document_id, chunk_index, content, word_count, page_start, page_end)
			VALUES (:document_id, :chunk_index, :content, :word_count, :page_start, :page_end)`,
			batch)
		if err != nil {
			return fmt.Errorf("failed to insert chunks: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk replace: %w", err)
	}
	return nil
}

// insertBatches splits chunks into consecutive slices of at most size,
// preserving order. An empty input yields no batches.
func insertBatches(chunks []models.Chunk, size int) [][]models.Chunk {
	var batches [][]models.Chunk
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}

// GetChunks returns a document's chunks ordered by sequence index.
// limit <= 0 means no cap.
func (db *DB) GetChunks(ctx context.Context, documentID string, limit int) ([]models.Chunk, error) {
	var chunks []models.Chunk
	var err error
	if limit > 0 {
		err = db.SelectContext(ctx, &chunks,
			`SELECT * FROM chunks WHERE document_id = $1 ORDER BY chunk_index ASC LIMIT $2`,
			documentID, limit)
	} else {
		err = db.SelectContext(ctx, &chunks,
			`SELECT * FROM chunks WHERE document_id = $1 ORDER BY chunk_index ASC`,
			documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunks: %w", err)
	}
	return chunks, nil
}

// CountChunks returns the number of stored chunks for a document.
func (db *DB) CountChunks(ctx context.Context, documentID string) (int, error) {
	var count int
	err := db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}
