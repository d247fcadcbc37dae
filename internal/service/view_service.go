package service

import (
	"context"
	"strings"
	"time"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/blog-engagement-engine/internal/metrics"
	"github.com/blog-engagement-engine/internal/repository"
	"github.com/blog-engagement-engine/internal/validation"
	"github.com/rs/zerolog"
)

// viewService is the concrete implementation of ViewService
type viewService struct {
	views    repository.ViewRepository
	cooldown time.Duration
	clock    Clock
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func newViewService(views repository.ViewRepository, cooldown time.Duration, o options, log zerolog.Logger) *viewService {
	return &viewService{
		views:    views,
		cooldown: cooldown,
		clock:    o.clock,
		metrics:  o.metrics,
		log:      log.With().Str("service", "view").Logger(),
	}
}

// Record counts the view unless the session was counted within the
// cooldown window, and returns the post's view count either way.
func (s *viewService) Record(ctx context.Context, postID, sessionID string) (int64, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return 0, apperror.Validation("session_id", "session_id is required")
	}
	if !validation.IsValidID(postID) {
		return 0, apperror.NotFound("post", postID)
	}

	count, counted, err := s.views.Record(ctx, postID, sessionID, s.clock().UTC(), s.cooldown)
	if err != nil {
		return 0, err
	}

	outcome := "skipped"
	if counted {
		outcome = "counted"
	}
	s.metrics.Views.WithLabelValues(outcome).Inc()
	s.log.Debug().Str("post_id", postID).Bool("counted", counted).Int64("view_count", count).Msg("View recorded")

	return count, nil
}
