package service

import (
	"context"
	"errors"
	"strings"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/blog-engagement-engine/internal/metrics"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/repository"
	"github.com/blog-engagement-engine/internal/slug"
	"github.com/blog-engagement-engine/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// postService is the concrete implementation of PostService
type postService struct {
	posts     repository.PostRepository
	deriver   *slug.Deriver
	validator *validation.Validator
	attempts  int
	clock     Clock
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func newPostService(posts repository.PostRepository, deriver *slug.Deriver, validator *validation.Validator, attempts int, o options, log zerolog.Logger) *postService {
	if attempts < 1 {
		attempts = 1
	}
	return &postService{
		posts:     posts,
		deriver:   deriver,
		validator: validator,
		attempts:  attempts,
		clock:     o.clock,
		metrics:   o.metrics,
		log:       log.With().Str("service", "post").Logger(),
	}
}

// Create validates the input, derives slug, excerpt and reading time and
// stores the post. A slug taken between derivation and insert triggers a
// fresh derivation, a bounded number of times.
func (s *postService) Create(ctx context.Context, in *models.NewPost) (*models.Post, error) {
	if err := validation.Err(s.validator.ValidateNewPost(in)); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	post := &models.Post{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(in.Title),
		Body:          in.Body,
		AuthorID:      strings.TrimSpace(in.AuthorID),
		Status:        in.Status,
		Featured:      in.Featured,
		Tags:          slug.NormalizeTags(in.Tags),
		Category:      strings.TrimSpace(in.Category),
		FeaturedImage: strings.TrimSpace(in.FeaturedImage),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if post.Status == "" {
		post.Status = models.PostStatusDraft
	}
	if post.IsPublished() {
		post.PublishedAt = &now
	}

	for attempt := 1; ; attempt++ {
		meta, err := s.deriver.Derive(ctx, post.Title, post.Body, in.Excerpt, s.slugTaken(""))
		if err != nil {
			return nil, err
		}
		post.Slug = meta.Slug
		post.Excerpt = meta.Excerpt
		post.ExcerptAuto = meta.ExcerptAuto
		post.ReadingTime = meta.ReadingTime

		err = s.posts.Create(ctx, post)
		if err == nil {
			break
		}
		if !errors.Is(err, apperror.ErrConflict) || attempt >= s.attempts {
			s.log.Error().Err(err).Str("slug", post.Slug).Int("attempt", attempt).Msg("Failed to create post")
			return nil, err
		}
		s.metrics.SlugRetries.Inc()
		s.log.Debug().Str("slug", post.Slug).Int("attempt", attempt).Msg("Slug taken concurrently, deriving again")
	}

	s.metrics.PostsCreated.Inc()
	s.log.Info().
		Str("post_id", post.ID).
		Str("slug", post.Slug).
		Str("status", string(post.Status)).
		Msg("Post created")

	return post, nil
}

// Update applies a partial update. Derived fields follow their sources:
// the slug follows the title, reading time follows the body, and an
// auto-derived excerpt follows the body unless a new excerpt is given.
func (s *postService) Update(ctx context.Context, id string, in *models.PostUpdate) (*models.Post, error) {
	if err := validation.Err(s.validator.ValidatePostUpdate(in)); err != nil {
		return nil, err
	}

	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	titleChanged := false
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		titleChanged = title != post.Title
		post.Title = title
	}
	if in.Body != nil {
		post.Body = *in.Body
		post.ReadingTime = s.deriver.ReadingTime(post.Body)
		if in.Excerpt == nil && post.ExcerptAuto {
			post.Excerpt = s.deriver.Excerpt(post.Body)
		}
	}
	if in.Excerpt != nil {
		if excerpt := strings.TrimSpace(*in.Excerpt); excerpt != "" {
			post.Excerpt = excerpt
			post.ExcerptAuto = false
		} else {
			post.Excerpt = s.deriver.Excerpt(post.Body)
			post.ExcerptAuto = true
		}
	}
	if in.Featured != nil {
		post.Featured = *in.Featured
	}
	if in.Tags != nil {
		post.Tags = slug.NormalizeTags(*in.Tags)
	}
	if in.Category != nil {
		post.Category = strings.TrimSpace(*in.Category)
	}
	if in.FeaturedImage != nil {
		post.FeaturedImage = strings.TrimSpace(*in.FeaturedImage)
	}

	now := s.clock().UTC()
	if in.Status != nil {
		post.Status = *in.Status
		// published_at records the first publication and is never cleared
		if post.IsPublished() && post.PublishedAt == nil {
			post.PublishedAt = &now
		}
	}
	post.UpdatedAt = now

	for attempt := 1; ; attempt++ {
		if titleChanged {
			if post.Slug, err = s.deriver.Unique(ctx, post.Title, s.slugTaken(post.ID)); err != nil {
				return nil, err
			}
		}

		err = s.posts.Update(ctx, post)
		if err == nil {
			break
		}
		if !titleChanged || !errors.Is(err, apperror.ErrConflict) || attempt >= s.attempts {
			s.log.Error().Err(err).Str("post_id", post.ID).Msg("Failed to update post")
			return nil, err
		}
		s.metrics.SlugRetries.Inc()
	}

	s.log.Info().Str("post_id", post.ID).Str("slug", post.Slug).Msg("Post updated")
	return post, nil
}

// Get retrieves a post by ID. Malformed IDs are reported as not found.
func (s *postService) Get(ctx context.Context, id string) (*models.Post, error) {
	if !validation.IsValidID(id) {
		return nil, apperror.NotFound("post", id)
	}
	return s.posts.GetByID(ctx, id)
}

// GetBySlug retrieves a post by slug
func (s *postService) GetBySlug(ctx context.Context, postSlug string) (*models.Post, error) {
	if !validation.IsValidSlug(postSlug) {
		return nil, apperror.NotFound("post", postSlug)
	}
	return s.posts.GetBySlug(ctx, postSlug)
}

// Delete removes a post together with its comments, likes and views
func (s *postService) Delete(ctx context.Context, id string) error {
	if !validation.IsValidID(id) {
		return apperror.NotFound("post", id)
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("post_id", id).Msg("Post deleted")
	return nil
}

func (s *postService) slugTaken(excludeID string) slug.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return s.posts.SlugExists(ctx, candidate, excludeID)
	}
}
