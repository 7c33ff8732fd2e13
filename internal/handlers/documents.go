// documents.go handles document upload, listing and deletion.
package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shimizu-Technology/reader-tools-api/internal/middleware"
	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/extract"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/worker"
)

// maxUploadBytes caps document uploads at 100 MB.
const maxUploadBytes = 100 << 20

// UploadDocument accepts a PDF or EPUB file, stores it, and queues it
// for background processing.
// POST /api/v1/documents (multipart/form-data, field "file")
func (h *Handler) UploadDocument(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
			Code:    http.StatusUnauthorized,
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Missing file upload (field 'file')",
			Code:    http.StatusBadRequest,
		})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Error:   "file_too_large",
			Message: "Uploads are limited to 100 MB",
			Code:    http.StatusRequestEntityTooLarge,
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to read upload",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to read upload",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	format, err := detectFormat(fileHeader.Filename, data)
	if err != nil {
		c.JSON(http.StatusUnsupportedMediaType, models.ErrorResponse{
			Error:   "unsupported_format",
			Message: err.Error(),
			Code:    http.StatusUnsupportedMediaType,
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	storageKey := fmt.Sprintf("documents/%s/%s%s", user.ID, uuid.New().String(), ext)
	if _, err := h.Store.Put(c.Request.Context(), storageKey, data, format); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "storage_error",
			Message: "Failed to store document",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	doc := &models.Document{
		UserID:       user.ID,
		Title:        titleFromFilename(fileHeader.Filename),
		StorageKey:   storageKey,
		OriginalName: fileHeader.Filename,
		Format:       format,
		Status:       models.StatusPending,
	}
	if err := h.DB.CreateDocument(c.Request.Context(), doc); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create document record",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	// Queue-full is not an upload failure: the document stays pending and
	// the client can trigger processing explicitly.
	if err := h.Worker.Submit(worker.Job{DocumentID: doc.ID}); err != nil {
		log.Printf("⚠️  Could not queue document %s for processing: %v", doc.ID, err)
	}

	c.JSON(http.StatusCreated, doc)
}

// detectFormat resolves the document MIME type from the filename and the
// file's magic bytes. Extension alone is not trusted.
func detectFormat(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		if !extract.ValidatePDF(data) {
			return "", fmt.Errorf("file does not look like a valid PDF")
		}
		return models.FormatPDF, nil
	case ".epub":
		// EPUB is a ZIP container.
		if !bytes.HasPrefix(data, []byte("PK\x03\x04")) {
			return "", fmt.Errorf("file does not look like a valid EPUB")
		}
		return models.FormatEPUB, nil
	default:
		return "", fmt.Errorf("unsupported file type (only .pdf and .epub are accepted)")
	}
}

// titleFromFilename derives a placeholder title from the uploaded name.
// EPUB metadata extraction replaces it with the real title when available.
func titleFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.TrimSpace(base)
	if base == "" {
		return "Untitled Document"
	}
	return base
}

// ListDocuments returns the authenticated user's documents, newest first.
// GET /api/v1/documents?limit=50
func (h *Handler) ListDocuments(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
			Code:    http.StatusUnauthorized,
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	docs, err := h.DB.ListDocuments(c.Request.Context(), user.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list documents",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"count":     len(docs),
	})
}

// GetDocument returns a single document.
// GET /api/v1/documents/:id
func (h *Handler) GetDocument(c *gin.Context) {
	doc := h.ownedDocument(c)
	if doc == nil {
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DeleteDocument removes a document, its chunks, cached summaries and the
// stored file.
// DELETE /api/v1/documents/:id
func (h *Handler) DeleteDocument(c *gin.Context) {
	doc := h.ownedDocument(c)
	if doc == nil {
		return
	}

	if err := h.DB.DeleteDocument(c.Request.Context(), doc.ID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to delete document",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	// Storage cleanup is best effort — the record is already gone and an
	// orphaned object is harmless.
	if err := h.Store.Delete(c.Request.Context(), doc.StorageKey); err != nil {
		log.Printf("⚠️  Failed to delete stored file %s: %v", doc.StorageKey, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}
