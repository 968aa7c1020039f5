package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizroom/quizroom-server/internal/store"
)

// DocumentHandlers provides HTTP handlers for reading-material endpoints.
type DocumentHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewDocumentHandlers creates a new document handlers instance.
func NewDocumentHandlers(st store.Store, logger *zerolog.Logger) *DocumentHandlers {
	return &DocumentHandlers{
		store: st,
		log:   logger,
	}
}

// CreateDocumentRequest represents a document creation request.
type CreateDocumentRequest struct {
	Title        string  `json:"title" binding:"required"`
	Content      string  `json:"content" binding:"required"`
	Author       *string `json:"author"`
	Category     *string `json:"category"`
	ThumbnailURL *string `json:"thumbnail_url"`
	AudioURL     *string `json:"audio_url"`
	VideoURL     *string `json:"video_url"`
	PDFURL       *string `json:"pdf_url"`
	Tags         *string `json:"tags"`
	IsPublished  *bool   `json:"is_published"`
}

// UpdateDocumentRequest represents a partial document update. Absent
// fields are left untouched.
type UpdateDocumentRequest struct {
	Title        *string `json:"title"`
	Content      *string `json:"content"`
	Author       *string `json:"author"`
	Category     *string `json:"category"`
	ThumbnailURL *string `json:"thumbnail_url"`
	AudioURL     *string `json:"audio_url"`
	VideoURL     *string `json:"video_url"`
	PDFURL       *string `json:"pdf_url"`
	Tags         *string `json:"tags"`
	IsPublished  *bool   `json:"is_published"`
}

// DocumentResponse represents a document in API responses.
type DocumentResponse struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	Author       *string `json:"author"`
	Category     *string `json:"category"`
	ThumbnailURL *string `json:"thumbnail_url"`
	AudioURL     *string `json:"audio_url"`
	VideoURL     *string `json:"video_url"`
	PDFURL       *string `json:"pdf_url"`
	Tags         *string `json:"tags"`
	IsPublished  bool    `json:"is_published"`
	ViewsCount   int     `json:"views_count"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func documentResponse(doc *store.Document) DocumentResponse {
	return DocumentResponse{
		ID:           doc.ID,
		Title:        doc.Title,
		Content:      doc.Content,
		Author:       doc.Author,
		Category:     doc.Category,
		ThumbnailURL: doc.ThumbnailURL,
		AudioURL:     doc.AudioURL,
		VideoURL:     doc.VideoURL,
		PDFURL:       doc.PDFURL,
		Tags:         doc.Tags,
		IsPublished:  doc.IsPublished,
		ViewsCount:   doc.ViewsCount,
		CreatedAt:    doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    doc.UpdatedAt.Format(time.RFC3339),
	}
}

// Create stores a new document. The author defaults to the caller.
// POST /api/documents
func (h *DocumentHandlers) Create(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "title and content are required"})
		return
	}

	author := req.Author
	if author == nil {
		if username, ok := currentUsername(c); ok {
			author = &username
		}
	}

	published := true
	if req.IsPublished != nil {
		published = *req.IsPublished
	}

	doc, err := h.store.CreateDocument(c.Request.Context(), &store.Document{
		Title:        req.Title,
		Content:      req.Content,
		Author:       author,
		Category:     req.Category,
		ThumbnailURL: req.ThumbnailURL,
		AudioURL:     req.AudioURL,
		VideoURL:     req.VideoURL,
		PDFURL:       req.PDFURL,
		Tags:         req.Tags,
		IsPublished:  published,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to create document")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, documentResponse(doc))
}

// List returns published documents, newest first.
// GET /api/documents
func (h *DocumentHandlers) List(c *gin.Context) {
	skip := intQuery(c, "skip", 0)
	limit := intQuery(c, "limit", 20)

	var category *string
	if v := c.Query("category"); v != "" {
		category = &v
	}

	docs, err := h.store.ListDocuments(c.Request.Context(), category, limit, skip)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list documents")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		response = append(response, documentResponse(doc))
	}
	c.JSON(http.StatusOK, response)
}

// Get returns a single document and bumps its view counter.
// GET /api/documents/:id
func (h *DocumentHandlers) Get(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	doc, err := h.store.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "document not found"})
			return
		}
		h.log.Error().Err(err).Int64("document_id", id).Msg("failed to load document")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if err := h.store.IncrementViews(ctx, id); err != nil {
		h.log.Warn().Err(err).Int64("document_id", id).Msg("failed to bump view count")
	} else {
		doc.ViewsCount++
	}

	c.JSON(http.StatusOK, documentResponse(doc))
}

// Update applies a partial update to a document.
// PATCH /api/documents/:id
func (h *DocumentHandlers) Update(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	doc, err := h.store.UpdateDocument(c.Request.Context(), id, store.DocumentPatch{
		Title:        req.Title,
		Content:      req.Content,
		Author:       req.Author,
		Category:     req.Category,
		ThumbnailURL: req.ThumbnailURL,
		AudioURL:     req.AudioURL,
		VideoURL:     req.VideoURL,
		PDFURL:       req.PDFURL,
		Tags:         req.Tags,
		IsPublished:  req.IsPublished,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "document not found"})
			return
		}
		h.log.Error().Err(err).Int64("document_id", id).Msg("failed to update document")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, documentResponse(doc))
}

// Delete removes a document.
// DELETE /api/documents/:id
func (h *DocumentHandlers) Delete(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteDocument(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "document not found"})
			return
		}
		h.log.Error().Err(err).Int64("document_id", id).Msg("failed to delete document")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func documentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid document id"})
		return 0, false
	}
	return id, true
}
