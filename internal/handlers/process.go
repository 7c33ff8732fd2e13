// process.go handles explicit processing triggers and status checks.
//
// Uploads are queued for background processing automatically, but clients
// can also trigger processing synchronously — for retries after a failure
// or when the job queue was full at upload time.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/extract"
)

// ProcessDocument runs extraction and chunking synchronously.
// POST /api/v1/documents/:id/process
func (h *Handler) ProcessDocument(c *gin.Context) {
	doc := h.ownedDocument(c)
	if doc == nil {
		return
	}

	created, err := h.Ingestor.Process(c.Request.Context(), doc.ID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, extract.ErrExtractionFailed) {
			// The file itself is the problem, not the server.
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, models.ProcessResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ProcessResponse{
		Success:       true,
		ChunksCreated: created,
	})
}

// GetProcessStatus reports whether a document has been chunked.
// GET /api/v1/documents/:id/process
func (h *Handler) GetProcessStatus(c *gin.Context) {
	doc := h.ownedDocument(c)
	if doc == nil {
		return
	}

	count, err := h.DB.CountChunks(c.Request.Context(), doc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to check processing status",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, models.ProcessStatusResponse{
		IsProcessed: count > 0,
		ChunksCount: count,
	})
}

// ReprocessDocument drops the existing chunk set and cached summaries,
// then re-runs the pipeline from the stored file.
// POST /api/v1/documents/:id/reprocess
func (h *Handler) ReprocessDocument(c *gin.Context) {
	doc := h.ownedDocument(c)
	if doc == nil {
		return
	}

	// Clear derived state up front so a failed re-run leaves the document
	// visibly unprocessed instead of serving stale chunks.
	if err := h.DB.ReplaceChunks(c.Request.Context(), doc.ID, nil); err != nil {
		c.JSON(http.StatusInternalServerError, models.ProcessResponse{
			Success: false,
			Error:   "failed to clear existing chunks",
		})
		return
	}
	if err := h.DB.DeleteSummariesForDocument(c.Request.Context(), doc.ID); err != nil {
		log.Printf("⚠️  Failed to clear summaries for document %s: %v", doc.ID, err)
	}

	created, err := h.Ingestor.Process(c.Request.Context(), doc.ID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, extract.ErrExtractionFailed) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, models.ProcessResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ProcessResponse{
		Success:       true,
		ChunksCreated: created,
	})
}
