package api

import (
	"context"
	"net/http"
	"time"

	"github.com/blog-engagement-engine/internal/config"
	"github.com/blog-engagement-engine/internal/metrics"
	"github.com/blog-engagement-engine/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. db may be nil, in which
// case /health only reports the process as up.
func NewRouter(services *service.Services, cfg *config.Config, m *metrics.Metrics, db HealthChecker, log zerolog.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	limits := listLimits{defaultSize: cfg.Engagement.SearchDefaultPageSize, maxSize: cfg.Engagement.SearchMaxPageSize}
	postHandler := NewPostHandler(services, log)
	commentHandler := NewCommentHandler(services, log)
	engagementHandler := NewEngagementHandler(services, log)
	searchHandler := NewSearchHandler(services, limits, log)
	dashboardHandler := NewDashboardHandler(services, log)

	router.GET("/health", healthCheck(db))
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// API v1
	v1 := router.Group("/v1")
	{
		posts := v1.Group("/posts")
		{
			posts.POST("", postHandler.Create)
			posts.GET("/:id", postHandler.Get)
			posts.PATCH("/:id", postHandler.Update)
			posts.DELETE("/:id", postHandler.Delete)

			posts.GET("/:id/comments", commentHandler.Thread)
			posts.POST("/:id/comments", commentHandler.Add)

			posts.POST("/:id/like", engagementHandler.ToggleLike)
			posts.GET("/:id/like", engagementHandler.HasLiked)
			posts.POST("/:id/views", engagementHandler.RecordView)

			posts.GET("/:id/related", searchHandler.Related)
		}

		v1.GET("/slugs/:slug", postHandler.GetBySlug)

		comments := v1.Group("/comments")
		{
			comments.PUT("/:id/moderation", commentHandler.Moderate)
			comments.DELETE("/:id", commentHandler.Delete)
		}

		v1.GET("/search", searchHandler.Search)
		discover := v1.Group("/discover")
		{
			discover.GET("/featured", searchHandler.Featured)
			discover.GET("/trending", searchHandler.Trending)
			discover.GET("/tags", searchHandler.PopularTags)
		}

		v1.GET("/authors/:author_id/stats", dashboardHandler.AuthorStats)
		v1.GET("/stats", dashboardHandler.SiteStats)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "blog-engagement-engine",
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS for the configured origins
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", headerUserID, headerSessionID, headerElevated},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
