package service

import (
	"context"
	"strings"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/blog-engagement-engine/internal/metrics"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/repository"
	"github.com/blog-engagement-engine/internal/validation"
	"github.com/rs/zerolog"
)

// likeService is the concrete implementation of LikeService
type likeService struct {
	likes   repository.LikeRepository
	posts   repository.PostRepository
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func newLikeService(repos *repository.Repositories, o options, log zerolog.Logger) *likeService {
	return &likeService{
		likes:   repos.Like,
		posts:   repos.Post,
		metrics: o.metrics,
		log:     log.With().Str("service", "like").Logger(),
	}
}

// Toggle likes the post if the user has not, otherwise removes the like
func (s *likeService) Toggle(ctx context.Context, userID, postID string) (models.LikeState, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.LikeState{}, apperror.Validation("user_id", "user_id is required")
	}
	if !validation.IsValidID(postID) {
		return models.LikeState{}, apperror.NotFound("post", postID)
	}

	state, err := s.likes.Toggle(ctx, userID, postID)
	if err != nil {
		return models.LikeState{}, err
	}

	result := "unliked"
	if state.Liked {
		result = "liked"
	}
	s.metrics.LikeToggles.WithLabelValues(result).Inc()
	s.log.Debug().
		Str("post_id", postID).
		Str("user_id", userID).
		Bool("liked", state.Liked).
		Int64("like_count", state.LikeCount).
		Msg("Like toggled")

	return state, nil
}

// HasLiked reports whether the user currently likes the post
func (s *likeService) HasLiked(ctx context.Context, userID, postID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, apperror.Validation("user_id", "user_id is required")
	}
	if !validation.IsValidID(postID) {
		return false, apperror.NotFound("post", postID)
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return false, err
	}
	return s.likes.Exists(ctx, userID, postID)
}
