package service

import (
	"context"
	"time"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/blog-engagement-engine/internal/metrics"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/repository"
	"github.com/blog-engagement-engine/internal/search"
	"github.com/blog-engagement-engine/internal/validation"
	"github.com/rs/zerolog"
)

// searchService is the concrete implementation of SearchService
type searchService struct {
	posts   repository.PostRepository
	limits  search.Limits
	clock   Clock
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func newSearchService(posts repository.PostRepository, limits search.Limits, o options, log zerolog.Logger) *searchService {
	return &searchService{
		posts:   posts,
		limits:  limits,
		clock:   o.clock,
		metrics: o.metrics,
		log:     log.With().Str("service", "search").Logger(),
	}
}

// Search validates and normalizes q, then returns the requested page
func (s *searchService) Search(ctx context.Context, q search.Query) (*models.PostPage, error) {
	q, err := q.Normalize(s.limits)
	if err != nil {
		return nil, err
	}

	posts, total, err := s.posts.Search(ctx, q)
	if err != nil {
		s.log.Error().Err(err).Str("sort", string(q.Sort)).Msg("Search failed")
		return nil, err
	}

	s.metrics.Searches.WithLabelValues(string(q.Sort)).Inc()
	s.log.Debug().
		Str("text", q.Text).
		Str("sort", string(q.Sort)).
		Int("page", q.Page).
		Int("total", total).
		Msg("Search completed")

	return &models.PostPage{Posts: posts, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// Featured lists the newest featured posts
func (s *searchService) Featured(ctx context.Context, limit int) ([]*models.Post, error) {
	featured := true
	return s.list(ctx, search.Query{Featured: &featured, Sort: search.SortDate}, limit)
}

// Trending lists the most viewed posts published within window
func (s *searchService) Trending(ctx context.Context, window time.Duration, limit int) ([]*models.Post, error) {
	if window <= 0 {
		return nil, apperror.Validation("window", "window must be positive")
	}
	since := s.clock().UTC().Add(-window)
	return s.list(ctx, search.Query{PublishedAfter: &since, Sort: search.SortViews}, limit)
}

// Related lists other published posts sharing at least one tag with the post
func (s *searchService) Related(ctx context.Context, postID string, limit int) ([]*models.Post, error) {
	if !validation.IsValidID(postID) {
		return nil, apperror.NotFound("post", postID)
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if len(post.Tags) == 0 {
		return []*models.Post{}, nil
	}
	return s.list(ctx, search.Query{AnyTags: post.Tags, ExcludeID: post.ID, Sort: search.SortDate}, limit)
}

// PopularTags lists tags by the number of published posts carrying them
func (s *searchService) PopularTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	limit, err := s.clampLimit(limit)
	if err != nil {
		return nil, err
	}
	return s.posts.PopularTags(ctx, limit)
}

func (s *searchService) list(ctx context.Context, q search.Query, limit int) ([]*models.Post, error) {
	limit, err := s.clampLimit(limit)
	if err != nil {
		return nil, err
	}
	q.PageSize = limit

	page, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return page.Posts, nil
}

func (s *searchService) clampLimit(limit int) (int, error) {
	if limit < 1 || limit > s.limits.MaxPageSize {
		return 0, apperror.Validation("limit", "limit must be between 1 and the maximum page size")
	}
	return limit, nil
}
