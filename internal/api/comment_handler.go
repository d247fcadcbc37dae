package api

import (
	"net/http"
	"strconv"

	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommentHandler handles comment thread endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

type addCommentRequest struct {
	AuthorID string  `json:"author_id"`
	Body     string  `json:"body"`
	ParentID *string `json:"parent_id"`
}

// Add handles POST /v1/posts/:id/comments
func (h *CommentHandler) Add(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", "invalid JSON body: "+err.Error())
		return
	}
	if req.AuthorID == "" {
		req.AuthorID = viewerFrom(c).UserID
	}

	comment, err := h.services.Comment.Add(c.Request.Context(), &models.NewComment{
		PostID:   c.Param("id"),
		AuthorID: req.AuthorID,
		Body:     req.Body,
		ParentID: req.ParentID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Thread handles GET /v1/posts/:id/comments?include_hidden=true. Hidden
// comments are only included for elevated callers.
func (h *CommentHandler) Thread(c *gin.Context) {
	includeHidden, _ := strconv.ParseBool(c.Query("include_hidden"))
	opts := service.ThreadOptions{IncludeHidden: includeHidden && viewerFrom(c).Elevated}

	seq, err := h.services.Comment.ListThread(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	entries := []models.ThreadEntry{}
	for comment, depth := range seq {
		entries = append(entries, models.ThreadEntry{Comment: comment, Depth: depth})
	}

	c.JSON(http.StatusOK, gin.H{
		"post_id":  c.Param("id"),
		"count":    len(entries),
		"comments": entries,
	})
}

type moderateRequest struct {
	Hidden *bool `json:"hidden"`
}

// Moderate handles PUT /v1/comments/:id/moderation
func (h *CommentHandler) Moderate(c *gin.Context) {
	if !viewerFrom(c).Elevated {
		c.JSON(http.StatusForbidden, gin.H{"error": "moderation requires elevated rights"})
		return
	}

	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Hidden == nil {
		badRequest(c, "hidden", "hidden is required")
		return
	}

	comment, err := h.services.Comment.Moderate(c.Request.Context(), c.Param("id"), *req.Hidden)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete handles DELETE /v1/comments/:id, removing the reply subtree too
func (h *CommentHandler) Delete(c *gin.Context) {
	removed, err := h.services.Comment.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
