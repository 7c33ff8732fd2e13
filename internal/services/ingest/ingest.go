// ingest.go drives the document processing pipeline:
// fetch bytes → extract pages → normalize → chunk → replace chunk set.
//
// Processing is never incremental. Every run replaces the document's
// entire chunk set and invalidates its cached summaries, so a reprocess
// after a failed or partial run always converges to a clean state.
package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/Shimizu-Technology/reader-tools-api/internal/database"
	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/extract"
)

// ObjectStore is the slice of object storage the pipeline needs: fetching
// raw document bytes and persisting extracted cover images.
type ObjectStore interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Service runs document ingestion.
type Service struct {
	db        *database.DB
	store     ObjectStore
	chunkSize int
}

// New creates an ingestion service. chunkSize <= 0 uses the default.
func New(db *database.DB, store ObjectStore, chunkSize int) *Service {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Service{db: db, store: store, chunkSize: chunkSize}
}

// Process runs the full pipeline for a document and returns how many
// chunks were created. The document's status reflects the outcome.
func (s *Service) Process(ctx context.Context, documentID string) (int, error) {
	doc, err := s.db.GetDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	if err := s.db.UpdateDocumentStatus(ctx, doc.ID, models.StatusProcessing, ""); err != nil {
		return 0, fmt.Errorf("failed to mark document processing: %w", err)
	}

	created, err := s.process(ctx, doc)
	if err != nil {
		// Best effort — the processing error is the one worth reporting.
		if serr := s.db.UpdateDocumentStatus(ctx, doc.ID, models.StatusFailed, err.Error()); serr != nil {
			log.Printf("⚠️  Failed to record failure for document %s: %v", doc.ID, serr)
		}
		return 0, err
	}

	if err := s.db.UpdateDocumentStatus(ctx, doc.ID, models.StatusCompleted, ""); err != nil {
		log.Printf("⚠️  Failed to mark document %s completed: %v", doc.ID, err)
	}
	return created, nil
}

func (s *Service) process(ctx context.Context, doc *models.Document) (int, error) {
	data, err := s.store.Fetch(ctx, doc.StorageKey)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch document bytes: %w", err)
	}

	var pages []string
	switch doc.Format {
	case models.FormatPDF:
		pages, err = extract.ExtractPDF(data)
		if err != nil {
			// PDF failure is terminal for this document's processing.
			return 0, err
		}
		doc.PageCount = len(pages)

	case models.FormatEPUB:
		// Metadata is independent of text extraction and attempted first:
		// a book with unreadable body text can still show a correct title
		// and cover.
		s.applyEPUBMetadata(ctx, doc, data)

		pages, err = extract.ExtractEPUB(data)
		if err != nil {
			return 0, err
		}

	default:
		return 0, fmt.Errorf("unsupported document format: %s", doc.Format)
	}

	normalized := NormalizePages(pages)
	chunks := ChunkPages(doc.ID, normalized, s.chunkSize)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: extracted text produced no usable chunks", extract.ErrExtractionFailed)
	}

	if err := s.db.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		// Prior chunk set remains intact — the replace is one transaction.
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	// The old chunk set is gone, so every cached summary built from it is
	// stale regardless of progress.
	if err := s.db.DeleteSummariesForDocument(ctx, doc.ID); err != nil {
		log.Printf("⚠️  Failed to invalidate summaries for document %s: %v", doc.ID, err)
	}

	if doc.PageCount > 0 {
		if err := s.db.UpdateDocumentMetadata(ctx, doc); err != nil {
			log.Printf("⚠️  Failed to back-fill page count for document %s: %v", doc.ID, err)
		}
	}

	log.Printf("📖 Document %s processed: %d pages → %d chunks", doc.ID, len(normalized), len(chunks))
	return len(chunks), nil
}

// applyEPUBMetadata extracts and persists title/author/cover. Failures are
// logged and swallowed — partial metadata never aborts ingestion.
func (s *Service) applyEPUBMetadata(ctx context.Context, doc *models.Document, data []byte) {
	md, err := extract.ExtractEPUBMetadata(data)
	if err != nil {
		log.Printf("⚠️  Metadata extraction failed for document %s: %v", doc.ID, err)
		return
	}

	doc.Title = md.Title
	doc.Author = md.Author
	if md.EstimatedPages > 0 {
		doc.PageCount = md.EstimatedPages
	}

	if len(md.CoverData) > 0 {
		key := fmt.Sprintf("covers/%s/%s", doc.ID, uuid.New().String())
		url, err := s.store.Put(ctx, key, md.CoverData, md.CoverMediaType)
		if err != nil {
			log.Printf("⚠️  Failed to store cover for document %s: %v", doc.ID, err)
		} else {
			doc.CoverURL = url
		}
	}

	if err := s.db.UpdateDocumentMetadata(ctx, doc); err != nil {
		log.Printf("⚠️  Failed to save metadata for document %s: %v", doc.ID, err)
	}
}
