// summaries.go handles AI summaries, reader questions, and progress
// updates (which drive summary-cache invalidation).
package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/reader-tools-api/internal/middleware"
	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/llm"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/progress"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/summarize"
)

// generationTimeout bounds a single model call from the handler's side.
const generationTimeout = 2 * time.Minute

// SummarizeDocument returns a spoiler-free summary of everything read so
// far, serving from cache when possible.
// POST /api/v1/documents/:id/summary
func (h *Handler) SummarizeDocument(c *gin.Context) {
	doc := h.ownedDocument(c)
	if doc == nil {
		return
	}
	user := middleware.GetUser(c)

	var req models.SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	if !h.llmReady(c) || !h.processed(c, doc.ID) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), generationTimeout)
	defer cancel()

	resp, err := h.Summarizer.GetOrGenerate(ctx, user.ID, doc.ID, req.Progress, h.LLM.Summarize, req.ForceRefresh)
	if err != nil {
		switch {
		case errors.Is(err, summarize.ErrNoContent):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "no_content",
				Message: "Nothing has been read yet at this progress",
				Code:    http.StatusBadRequest,
			})
		case errors.Is(err, llm.ErrGenerationFailed):
			c.JSON(http.StatusBadGateway, models.ErrorResponse{
				Error:   "generation_failed",
				Message: "Summary generation failed, please try again",
				Code:    http.StatusBadGateway,
			})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to produce summary",
				Code:    http.StatusInternalServerError,
			})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AskDocument answers a reader question using only the portion read so
// far. Answers are never cached — questions are too varied to memoize.
// POST /api/v1/documents/:id/ask
func (h *Handler) AskDocument(c *gin.Context) {
	doc := h.ownedDocument(c)
	if doc == nil {
		return
	}

	var req models.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	if !h.llmReady(c) || !h.processed(c, doc.ID) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), generationTimeout)
	defer cancel()

	chunks, err := progress.ChunksUpTo(ctx, h.DB, doc.ID, req.Progress)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to resolve reading window",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	if len(chunks) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no_content",
			Message: "Nothing has been read yet at this progress",
			Code:    http.StatusBadRequest,
		})
		return
	}

	answer, err := h.LLM.Answer(ctx, chunks, req.Question)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "generation_failed",
			Message: "Failed to answer question, please try again",
			Code:    http.StatusBadGateway,
		})
		return
	}

	c.JSON(http.StatusOK, models.AskResponse{
		Answer:   answer,
		Progress: req.Progress,
	})
}

// UpdateProgress stores the reader's position. Moving backwards
// invalidates cached summaries at or beyond the new position, so a
// re-read never surfaces a summary of text not yet re-reached.
// PUT /api/v1/documents/:id/progress
func (h *Handler) UpdateProgress(c *gin.Context) {
	doc := h.ownedDocument(c)
	if doc == nil {
		return
	}
	user := middleware.GetUser(c)

	var req models.ProgressUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	rp, err := h.DB.GetReadingProgress(c.Request.Context(), user.ID, doc.ID)
	prev := priorProgress(rp, err, doc.ID)

	update := &models.ReadingProgress{
		UserID:     user.ID,
		DocumentID: doc.ID,
		Progress:   req.Progress,
	}
	if err := h.DB.UpsertReadingProgress(c.Request.Context(), update); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to save progress",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	invalidated := false
	if prev != nil && req.Progress < prev.Progress {
		threshold := summarize.RoundProgress(req.Progress)
		n, err := h.DB.DeleteSummariesFromProgress(c.Request.Context(), user.ID, doc.ID, threshold)
		if err != nil {
			log.Printf("⚠️  Failed to invalidate summaries for document %s: %v", doc.ID, err)
		}
		invalidated = n > 0
	}

	c.JSON(http.StatusOK, models.ProgressUpdateResponse{
		Progress:             req.Progress,
		SummariesInvalidated: invalidated,
	})
}

// priorProgress interprets a reading-progress lookup. No row just means
// this is the first report for the document; any other error is a real
// read failure and gets logged, since treating it as "no prior position"
// would skip regression invalidation without a trace.
func priorProgress(rp *models.ReadingProgress, err error, documentID string) *models.ReadingProgress {
	if err == nil {
		return rp
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Printf("⚠️  Failed to load prior progress for document %s: %v", documentID, err)
	}
	return nil
}

// llmReady writes a 503 and returns false when no model API key is
// configured.
func (h *Handler) llmReady(c *gin.Context) bool {
	if h.LLM.IsConfigured() {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
		Error:   "llm_unavailable",
		Message: "AI features are not configured on this server",
		Code:    http.StatusServiceUnavailable,
	})
	return false
}

// processed writes the needs-processing 404 and returns false when the
// document has no chunks yet.
func (h *Handler) processed(c *gin.Context, documentID string) bool {
	count, err := h.DB.CountChunks(c.Request.Context(), documentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to check processing status",
			Code:    http.StatusInternalServerError,
		})
		return false
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, models.NeedsProcessingResponse{
			Error:           "Document has not been processed yet",
			NeedsProcessing: true,
		})
		return false
	}
	return true
}
