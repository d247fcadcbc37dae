package api

import (
	"net/http"

	"github.com/blog-engagement-engine/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DashboardHandler handles statistics endpoints
type DashboardHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(services *service.Services, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		services: services,
		log:      log.With().Str("handler", "dashboard").Logger(),
	}
}

// AuthorStats handles GET /v1/authors/:author_id/stats
func (h *DashboardHandler) AuthorStats(c *gin.Context) {
	stats, err := h.services.Dashboard.StatsFor(c.Request.Context(), c.Param("author_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SiteStats handles GET /v1/stats
func (h *DashboardHandler) SiteStats(c *gin.Context) {
	stats, err := h.services.Dashboard.SiteStats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
