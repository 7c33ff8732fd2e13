// summaries.go handles the summary cache rows.
//
// A cached summary is keyed by (user, document, progress rounded to 0.5).
// The unique index on that triple plus ON CONFLICT DO UPDATE gives us
// upsert semantics: at most one live summary per key.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

// GetCachedSummary looks up a summary for the exact rounded progress key.
// Returns nil (no error) on a cache miss.
func (db *DB) GetCachedSummary(ctx context.Context, userID, documentID string, progress float64) (*models.CachedSummary, error) {
	var cs models.CachedSummary
	err := db.GetContext(ctx, &cs,
		`SELECT * FROM cached_summaries
		 WHERE user_id = $1 AND document_id = $2 AND progress_percentage = $3`,
		userID, documentID, progress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cached summary: %w", err)
	}
	return &cs, nil
}

// UpsertCachedSummary creates or refreshes the summary for a key triple.
func (db *DB) UpsertCachedSummary(ctx context.Context, cs *models.CachedSummary) error {
	query := `
		INSERT INTO cached_summaries (user_id, document_id, progress_percentage, summary_text, chunk_end_index)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, document_id, progress_percentage)
		DO UPDATE SET summary_text = EXCLUDED.summary_text,
			chunk_end_index = EXCLUDED.chunk_end_index,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return db.QueryRowContext(ctx, query,
		cs.UserID, cs.DocumentID, cs.Progress, cs.SummaryText, cs.ChunkEndIndex,
	).Scan(&cs.ID, &cs.CreatedAt, &cs.UpdatedAt)
}

// DeleteSummariesForDocument invalidates every cached summary for a
// document (all users). Called when the document is reprocessed — the
// chunk set the summaries were built from no longer exists.
func (db *DB) DeleteSummariesForDocument(ctx context.Context, documentID string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM cached_summaries WHERE document_id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("failed to invalidate summaries: %w", err)
	}
	return nil
}

// DeleteSummariesFromProgress invalidates a user's cached summaries at or
// above the given progress. Used when the reader regresses below a
// previously summarized point — cache-ahead-of-reader entries would be
// misleading.
func (db *DB) DeleteSummariesFromProgress(ctx context.Context, userID, documentID string, progress float64) (int, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cached_summaries
		 WHERE user_id = $1 AND document_id = $2 AND progress_percentage >= $3`,
		userID, documentID, progress)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate summaries: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}
