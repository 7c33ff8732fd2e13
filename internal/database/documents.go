// documents.go handles document-related database operations.
package database

import (
	"context"
	"fmt"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

// CreateDocument inserts a new document record.
// Returns the created document with its generated ID and timestamps.
func (db *DB) CreateDocument(ctx context.Context, d *models.Document) error {
	query := `
		INSERT INTO documents (user_id, title, author, storage_key, original_name, format, cover_url, page_count, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	return db.QueryRowContext(ctx, query,
		d.UserID, d.Title, d.Author, d.StorageKey, d.OriginalName,
		d.Format, d.CoverURL, d.PageCount, d.Status, d.ErrorMessage,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// GetDocument retrieves a single document by ID.
func (db *DB) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var d models.Document
	err := db.GetContext(ctx, &d, `SELECT * FROM documents WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}
	return &d, nil
}

// ListDocuments returns a user's documents, newest first.
func (db *DB) ListDocuments(ctx context.Context, userID string, limit int) ([]models.Document, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var docs []models.Document
	err := db.SelectContext(ctx, &docs,
		`SELECT * FROM documents WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// UpdateDocumentStatus transitions a document's processing state.
func (db *DB) UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus, errorMessage string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE documents SET status = $2, error_message = $3, updated_at = NOW() WHERE id = $1`,
		id, status, errorMessage)
	return err
}

// UpdateDocumentMetadata back-fills title, author, cover and page count
// discovered during extraction. Empty values leave the existing column
// untouched so a failed metadata pass never wipes a good one.
func (db *DB) UpdateDocumentMetadata(ctx context.Context, d *models.Document) error {
	query := `
		UPDATE documents
		SET title = COALESCE(NULLIF($2, ''), title),
			author = COALESCE(NULLIF($3, ''), author),
			cover_url = COALESCE(NULLIF($4, ''), cover_url),
			page_count = CASE WHEN $5 > 0 THEN $5 ELSE page_count END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING title, author, cover_url, page_count, updated_at`

	return db.QueryRowContext(ctx, query,
		d.ID, d.Title, d.Author, d.CoverURL, d.PageCount,
	).Scan(&d.Title, &d.Author, &d.CoverURL, &d.PageCount, &d.UpdatedAt)
}

// DeleteDocument removes a document by ID. Chunks, cached summaries and
// reading progress cascade via foreign keys.
func (db *DB) DeleteDocument(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("document not found")
	}
	return nil
}

// --- Reading Progress Operations ---

// GetReadingProgress returns the stored position for a (user, document)
// pair, or nil when the reader has not opened the document yet.
func (db *DB) GetReadingProgress(ctx context.Context, userID, documentID string) (*models.ReadingProgress, error) {
	var rp models.ReadingProgress
	err := db.GetContext(ctx, &rp,
		`SELECT * FROM reading_progress WHERE user_id = $1 AND document_id = $2`,
		userID, documentID)
	if err != nil {
		return nil, err
	}
	return &rp, nil
}

// UpsertReadingProgress records the reader's current position.
func (db *DB) UpsertReadingProgress(ctx context.Context, rp *models.ReadingProgress) error {
	query := `
		INSERT INTO reading_progress (user_id, document_id, progress)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, document_id)
		DO UPDATE SET progress = EXCLUDED.progress, updated_at = NOW()
		RETURNING updated_at`

	return db.QueryRowContext(ctx, query,
		rp.UserID, rp.DocumentID, rp.Progress,
	).Scan(&rp.UpdatedAt)
}
