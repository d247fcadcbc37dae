package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blog-engagement-engine/internal/search"
	"github.com/blog-engagement-engine/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const defaultTrendingWindow = 7 * 24 * time.Hour

// SearchHandler handles search and discovery endpoints
type SearchHandler struct {
	services *service.Services
	limits   listLimits
	log      zerolog.Logger
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(services *service.Services, limits listLimits, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		services: services,
		limits:   limits,
		log:      log.With().Str("handler", "search").Logger(),
	}
}

// Search handles GET /v1/search
//
//	q, tags, any_tags, category, author, featured, published_after,
//	status, sort, page, page_size
func (h *SearchHandler) Search(c *gin.Context) {
	q, ok := h.parseQuery(c)
	if !ok {
		return
	}

	page, err := h.services.Search.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       page.Posts,
		"total":       page.Total,
		"page":        page.Page,
		"page_size":   page.PageSize,
		"total_pages": page.TotalPages(),
	})
}

func (h *SearchHandler) parseQuery(c *gin.Context) (search.Query, bool) {
	v := viewerFrom(c)
	q := search.Query{
		Text:     c.Query("q"),
		Tags:     listQuery(c, "tags"),
		AnyTags:  listQuery(c, "any_tags"),
		Category: c.Query("category"),
		Author:   c.Query("author"),
		Status:   search.StatusFilter(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Viewer:   v.UserID,
		Elevated: v.Elevated,
	}

	sort, err := search.ParseSort(c.Query("sort"))
	if err != nil {
		respondError(c, h.log, err)
		return q, false
	}
	q.Sort = sort

	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "featured", "featured must be true or false")
			return q, false
		}
		q.Featured = &featured
	}
	if raw := c.Query("published_after"); raw != "" {
		after, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "published_after", "published_after must be an RFC 3339 timestamp")
			return q, false
		}
		q.PublishedAfter = &after
	}

	var ok bool
	if q.Page, ok = intQuery(c, "page", 0); !ok {
		return q, false
	}
	if q.PageSize, ok = intQuery(c, "page_size", 0); !ok {
		return q, false
	}
	return q, true
}

// Featured handles GET /v1/discover/featured?limit=
func (h *SearchHandler) Featured(c *gin.Context) {
	limit, ok := intQuery(c, "limit", h.limits.defaultSize)
	if !ok {
		return
	}
	posts, err := h.services.Search.Featured(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Trending handles GET /v1/discover/trending?window=72h&limit=
func (h *SearchHandler) Trending(c *gin.Context) {
	window := defaultTrendingWindow
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			badRequest(c, "window", "window must be a duration such as 72h")
			return
		}
		window = d
	}
	limit, ok := intQuery(c, "limit", h.limits.defaultSize)
	if !ok {
		return
	}

	posts, err := h.services.Search.Trending(c.Request.Context(), window, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "window": window.String()})
}

// Related handles GET /v1/posts/:id/related?limit=
func (h *SearchHandler) Related(c *gin.Context) {
	limit, ok := intQuery(c, "limit", h.limits.defaultSize)
	if !ok {
		return
	}
	posts, err := h.services.Search.Related(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// PopularTags handles GET /v1/discover/tags?limit=
func (h *SearchHandler) PopularTags(c *gin.Context) {
	limit, ok := intQuery(c, "limit", h.limits.maxSize)
	if !ok {
		return
	}
	tags, err := h.services.Search.PopularTags(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
