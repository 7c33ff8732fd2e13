// Package handlers contains HTTP handler functions for the API.
//
// Go Pattern: Handlers in Gin receive a *gin.Context which provides
// request data, response methods, and middleware values. We group
// related handlers into a struct (Handler) that holds shared
// dependencies — dependency injection via struct fields, no globals.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/reader-tools-api/internal/database"
	"github.com/Shimizu-Technology/reader-tools-api/internal/middleware"
	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/ingest"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/llm"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/summarize"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/worker"
)

// ObjectStore is what handlers need from object storage: the ingestion
// surface plus deletion for document cleanup.
type ObjectStore interface {
	ingest.ObjectStore
	Delete(ctx context.Context, key string) error
}

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	DB         *database.DB
	Worker     *worker.Pool
	Ingestor   *ingest.Service
	Store      ObjectStore
	LLM        *llm.Client
	Summarizer *summarize.Service
	JWTSecret  string
}

// NewHandler creates a new handler with all dependencies.
func NewHandler(db *database.DB, wp *worker.Pool, ing *ingest.Service, store ObjectStore, llmClient *llm.Client, sum *summarize.Service, jwtSecret string) *Handler {
	return &Handler{
		DB:         db,
		Worker:     wp,
		Ingestor:   ing,
		Store:      store,
		LLM:        llmClient,
		Summarizer: sum,
		JWTSecret:  jwtSecret,
	}
}

// HealthCheck returns the API health status.
// GET /api/v1/health
func (h *Handler) HealthCheck(c *gin.Context) {
	dbStatus := "healthy"
	if err := h.DB.HealthCheck(c.Request.Context()); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:   "ok",
		Version:  "1.0.0",
		Database: dbStatus,
		Workers:  h.Worker.WorkerCount(),
	})
}

// ownedDocument loads a document and verifies the requester owns it.
// Returns nil after writing the error response when either check fails.
// Other users' documents 404 rather than 403 — existence is private too.
func (h *Handler) ownedDocument(c *gin.Context) *models.Document {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
			Code:    http.StatusUnauthorized,
		})
		return nil
	}

	doc, err := h.DB.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil || doc.UserID != user.ID {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Document not found",
			Code:    http.StatusNotFound,
		})
		return nil
	}
	return doc
}
