package api

import (
	"net/http"

	"github.com/blog-engagement-engine/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// EngagementHandler handles likes and views
type EngagementHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewEngagementHandler creates a new EngagementHandler
func NewEngagementHandler(services *service.Services, log zerolog.Logger) *EngagementHandler {
	return &EngagementHandler{
		services: services,
		log:      log.With().Str("handler", "engagement").Logger(),
	}
}

// ToggleLike handles POST /v1/posts/:id/like for the calling user
func (h *EngagementHandler) ToggleLike(c *gin.Context) {
	state, err := h.services.Like.Toggle(c.Request.Context(), viewerFrom(c).UserID, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// HasLiked handles GET /v1/posts/:id/like
func (h *EngagementHandler) HasLiked(c *gin.Context) {
	liked, err := h.services.Like.HasLiked(c.Request.Context(), viewerFrom(c).UserID, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// RecordView handles POST /v1/posts/:id/views for the calling session
func (h *EngagementHandler) RecordView(c *gin.Context) {
	count, err := h.services.View.Record(c.Request.Context(), c.Param("id"), viewerFrom(c).SessionID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view_count": count})
}
