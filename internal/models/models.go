// Package models defines the data structures used throughout the application.
//
// Go Pattern: Models are plain structs with JSON tags for serialization.
// No ORM magic — the database package handles persistence with raw SQL,
// and the `db` tags tell sqlx how to map columns onto struct fields.
package models

import "time"

// DocumentStatus represents the processing state of an uploaded document.
// Go Pattern: We use string constants instead of enums (Go doesn't have enums).
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// Document formats we accept for upload.
const (
	FormatPDF  = "application/pdf"
	FormatEPUB = "application/epub+zip"
)

// Document represents an uploaded book or paper.
// PageCount is 0 until extraction discovers the real count (it is
// back-filled after processing). A document with zero chunks is
// "unprocessed" — the status field tracks the last processing attempt.
type Document struct {
	ID           string         `json:"id" db:"id"`
	UserID       string         `json:"user_id" db:"user_id"`
	Title        string         `json:"title" db:"title"`
	Author       string         `json:"author" db:"author"`
	StorageKey   string         `json:"-" db:"storage_key"` // object storage key for the raw file
	OriginalName string         `json:"original_name" db:"original_name"`
	Format       string         `json:"format" db:"format"` // MIME type: application/pdf or application/epub+zip
	CoverURL     string         `json:"cover_url,omitempty" db:"cover_url"`
	PageCount    int            `json:"page_count" db:"page_count"`
	Status       DocumentStatus `json:"status" db:"status"`
	ErrorMessage string         `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Chunk is the unit of retrievable text: a word-bounded slice of a
// document's normalized content. Chunk indices are zero-based, dense and
// unique per document; their order is the document's reading order.
type Chunk struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Content    string    `json:"content" db:"content"`
	WordCount  int       `json:"word_count" db:"word_count"`
	PageStart  int       `json:"page_start" db:"page_start"` // 1-based source page, best-effort
	PageEnd    int       `json:"page_end" db:"page_end"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CachedSummary is an AI summary memoized by (user, document, rounded
// progress). At most one live row per key triple — writes are upserts.
// ChunkEndIndex records the last chunk index fed to the model, which is
// useful for invalidation debugging.
type CachedSummary struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	DocumentID    string    `json:"document_id" db:"document_id"`
	Progress      float64   `json:"progress_percentage" db:"progress_percentage"` // rounded to 0.5
	SummaryText   string    `json:"summary_text" db:"summary_text"`
	ChunkEndIndex int       `json:"chunk_end_index" db:"chunk_end_index"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ReadingProgress tracks how far a reader has advanced in a document.
// Progress normally only grows, but readers do jump back — regression is
// what triggers summary-cache invalidation.
type ReadingProgress struct {
	UserID     string    `json:"user_id" db:"user_id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Progress   float64   `json:"progress" db:"progress"` // percentage in [0,100]
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// User represents a reader account.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // "-" means never serialize to JSON
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// --- Request/Response DTOs (Data Transfer Objects) ---
// Go Pattern: Separate structs for API input/output vs database models.
// This keeps the API contract independent of the database schema.

// RegisterRequest is the JSON body for POST /api/v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest is the JSON body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned after a successful register or login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ProcessResponse is returned by the processing trigger endpoint.
type ProcessResponse struct {
	Success       bool   `json:"success"`
	ChunksCreated int    `json:"chunks_created,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ProcessStatusResponse reports whether a document has been chunked yet.
type ProcessStatusResponse struct {
	IsProcessed bool `json:"is_processed"`
	ChunksCount int  `json:"chunks_count"`
}

// SearchRequest is the JSON body for POST /api/v1/documents/:id/search.
type SearchRequest struct {
	Query         string `json:"query" binding:"required"`
	CaseSensitive bool   `json:"case_sensitive"`
	WholeWords    bool   `json:"whole_words"`
	MaxResults    int    `json:"max_results"` // 0 = default
}

// SearchOptions echoes back the options a search actually ran with.
type SearchOptions struct {
	CaseSensitive bool `json:"case_sensitive"`
	WholeWords    bool `json:"whole_words"`
	MaxResults    int  `json:"max_results"`
}

// SearchResult is one occurrence of the query inside a chunk. Results are
// ephemeral — computed per request, never persisted.
type SearchResult struct {
	ChunkID     string `json:"chunk_id"`
	ChunkIndex  int    `json:"chunk_index"`
	Page        string `json:"page"` // page_start if known, else chunk_index + 1
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Context     string `json:"context"`     // up to 150 chars either side of the match
	Highlighted string `json:"highlighted"` // context with the match wrapped in <mark> tags
}

// SearchResponse is the API response for a document search.
type SearchResponse struct {
	Results       []SearchResult `json:"results"`
	TotalResults  int            `json:"total_results"`
	SearchOptions SearchOptions  `json:"search_options"`
}

// NeedsProcessingResponse is returned when a search or summary targets a
// document that has no chunks yet. Distinct from "no results found" so the
// client can offer to trigger processing.
type NeedsProcessingResponse struct {
	Error           string `json:"error"`
	NeedsProcessing bool   `json:"needs_processing"`
}

// SummaryRequest is the JSON body for POST /api/v1/documents/:id/summary.
type SummaryRequest struct {
	Progress     float64 `json:"progress" binding:"min=0,max=100"`
	ForceRefresh bool    `json:"force_refresh"`
}

// SummaryResponse carries a generated (or cached) summary.
type SummaryResponse struct {
	Summary       string  `json:"summary"`
	FromCache     bool    `json:"from_cache"`
	Progress      float64 `json:"progress"` // rounded cache key, not the raw request value
	ChunkEndIndex int     `json:"chunk_end_index"`
}

// AskRequest is the JSON body for POST /api/v1/documents/:id/ask.
type AskRequest struct {
	Question string  `json:"question" binding:"required"`
	Progress float64 `json:"progress" binding:"min=0,max=100"`
}

// AskResponse carries the model's answer to a reader question.
type AskResponse struct {
	Answer   string  `json:"answer"`
	Progress float64 `json:"progress"`
}

// ProgressUpdateRequest is the JSON body for PUT /api/v1/documents/:id/progress.
type ProgressUpdateRequest struct {
	Progress float64 `json:"progress" binding:"min=0,max=100"`
}

// ProgressUpdateResponse reports the stored position and whether cached
// summaries were invalidated by a regression.
type ProgressUpdateResponse struct {
	Progress             float64 `json:"progress"`
	SummariesInvalidated bool    `json:"summaries_invalidated"`
}

// ErrorResponse is a standard error format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Workers  int    `json:"workers"`
}
