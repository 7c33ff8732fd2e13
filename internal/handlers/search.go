// search.go handles in-document text search.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/search"
)

// SearchDocument searches a document's chunks for a query string.
// POST /api/v1/documents/:id/search
func (h *Handler) SearchDocument(c *gin.Context) {
	doc := h.ownedDocument(c)
	if doc == nil {
		return
	}

	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	count, err := h.DB.CountChunks(c.Request.Context(), doc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load document content",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, models.NeedsProcessingResponse{
			Error:           "Document has not been processed yet",
			NeedsProcessing: true,
		})
		return
	}

	chunks, err := h.DB.GetChunks(c.Request.Context(), doc.ID, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load document content",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	opts := models.SearchOptions{
		CaseSensitive: req.CaseSensitive,
		WholeWords:    req.WholeWords,
		MaxResults:    req.MaxResults,
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = search.DefaultMaxResults
	}

	results := search.Search(chunks, req.Query, opts)
	c.JSON(http.StatusOK, models.SearchResponse{
		Results:       results,
		TotalResults:  len(results),
		SearchOptions: opts,
	})
}
