package api

import (
	"net/http"

	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PostHandler handles post endpoints
type PostHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(services *service.Services, log zerolog.Logger) *PostHandler {
	return &PostHandler{
		services: services,
		log:      log.With().Str("handler", "post").Logger(),
	}
}

// Create handles POST /v1/posts. The author defaults to the caller.
func (h *PostHandler) Create(c *gin.Context) {
	var in models.NewPost
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "body", "invalid JSON body: "+err.Error())
		return
	}
	if in.AuthorID == "" {
		in.AuthorID = viewerFrom(c).UserID
	}

	post, err := h.services.Post.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Get handles GET /v1/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.services.Post.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// GetBySlug handles GET /v1/slugs/:slug
func (h *PostHandler) GetBySlug(c *gin.Context) {
	post, err := h.services.Post.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Update handles PATCH /v1/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	var in models.PostUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "body", "invalid JSON body: "+err.Error())
		return
	}

	post, err := h.services.Post.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /v1/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.services.Post.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
