package service

import (
	"context"
	"iter"
	"time"

	"github.com/blog-engagement-engine/internal/config"
	"github.com/blog-engagement-engine/internal/metrics"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/repository"
	"github.com/blog-engagement-engine/internal/search"
	"github.com/blog-engagement-engine/internal/slug"
	"github.com/blog-engagement-engine/internal/validation"
	"github.com/rs/zerolog"
)

// PostService defines the interface for post lifecycle operations
type PostService interface {
	Create(ctx context.Context, in *models.NewPost) (*models.Post, error)
	Update(ctx context.Context, id string, in *models.PostUpdate) (*models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	Delete(ctx context.Context, id string) error
}

// ThreadOptions tune ListThread
type ThreadOptions struct {
	IncludeHidden bool
}

// CommentService defines the interface for the comment tree
type CommentService interface {
	Add(ctx context.Context, in *models.NewComment) (*models.Comment, error)
	// ListThread yields (comment, depth) pairs in reading order
	ListThread(ctx context.Context, postID string, opts ThreadOptions) (iter.Seq2[*models.Comment, int], error)
	Moderate(ctx context.Context, commentID string, hidden bool) (*models.Comment, error)
	// Delete removes the comment and its replies, returning how many were removed
	Delete(ctx context.Context, commentID string) (int64, error)
	RecentOnAuthorPosts(ctx context.Context, authorID string, limit int) ([]*models.Comment, error)
}

// LikeService defines the interface for the like ledger
type LikeService interface {
	Toggle(ctx context.Context, userID, postID string) (models.LikeState, error)
	HasLiked(ctx context.Context, userID, postID string) (bool, error)
}

// ViewService defines the interface for the view counter
type ViewService interface {
	Record(ctx context.Context, postID, sessionID string) (int64, error)
}

// SearchService defines the interface for search and discovery
type SearchService interface {
	Search(ctx context.Context, q search.Query) (*models.PostPage, error)
	Featured(ctx context.Context, limit int) ([]*models.Post, error)
	Trending(ctx context.Context, window time.Duration, limit int) ([]*models.Post, error)
	Related(ctx context.Context, postID string, limit int) ([]*models.Post, error)
	PopularTags(ctx context.Context, limit int) ([]models.TagCount, error)
}

// DashboardService defines the interface for derived statistics
type DashboardService interface {
	StatsFor(ctx context.Context, authorID string) (*models.AuthorStats, error)
	SiteStats(ctx context.Context) (*models.SiteStats, error)
}

// Services holds all service interfaces
type Services struct {
	Post      PostService
	Comment   CommentService
	Like      LikeService
	View      ViewService
	Search    SearchService
	Dashboard DashboardService
}

// Clock returns the current time
type Clock func() time.Time

type options struct {
	clock   Clock
	metrics *metrics.Metrics
}

// Option customizes NewServices
type Option func(*options)

// WithClock replaces time.Now, mainly for tests
func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithMetrics sets the collectors the services report to
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger, opts ...Option) *Services {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New(false)
	}

	e := cfg.Engagement
	deriver := slug.New(slug.Options{
		MaxLength:      e.SlugMaxLength,
		MaxSuffix:      e.SlugMaxSuffix,
		WordsPerMinute: e.WordsPerMinute,
		ExcerptLength:  e.ExcerptLength,
	})
	validator := validation.NewValidator(validation.Limits{
		TitleMaxLength:  e.TitleMaxLength,
		MaxCommentWords: e.MaxCommentWords,
	})
	limits := search.Limits{DefaultPageSize: e.SearchDefaultPageSize, MaxPageSize: e.SearchMaxPageSize}

	commentSvc := newCommentService(repos, validator, o, log)
	searchSvc := newSearchService(repos.Post, limits, o, log)

	return &Services{
		Post:      newPostService(repos.Post, deriver, validator, e.SlugInsertAttempts, o, log),
		Comment:   commentSvc,
		Like:      newLikeService(repos, o, log),
		View:      newViewService(repos.View, e.ViewCooldown, o, log),
		Search:    searchSvc,
		Dashboard: newDashboardService(repos.Post, commentSvc, searchSvc, e.DashboardTopK, e.DashboardRecentLimit, log),
	}
}
