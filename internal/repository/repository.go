package repository

import (
	"context"
	"time"

	"github.com/blog-engagement-engine/internal/database"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/search"
)

// PostRepository defines the interface for post data operations.
// Counters are never written through Create/Update; they change only
// through the comment, like and view repositories.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	// SlugExists reports whether a post other than excludeID uses slug
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	Delete(ctx context.Context, id string) error
	// Search expects a normalized query and returns one page plus the total match count
	Search(ctx context.Context, q search.Query) ([]*models.Post, int, error)
	PopularTags(ctx context.Context, limit int) ([]models.TagCount, error)
	AuthorTotals(ctx context.Context, authorID string) (*models.AuthorTotals, error)
	SiteStats(ctx context.Context) (*models.SiteStats, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	// Create inserts the comment and bumps the post's comment_count atomically
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	SetHidden(ctx context.Context, id string, hidden bool) (*models.Comment, error)
	// DeleteSubtree removes the comment with all replies and returns how many were removed
	DeleteSubtree(ctx context.Context, id string) (int64, error)
	RecentOnAuthorPosts(ctx context.Context, authorID string, limit int) ([]*models.Comment, error)
}

// LikeRepository defines the interface for the like ledger
type LikeRepository interface {
	Toggle(ctx context.Context, userID, postID string) (models.LikeState, error)
	Exists(ctx context.Context, userID, postID string) (bool, error)
}

// ViewRepository defines the interface for the view counter
type ViewRepository interface {
	// Record counts a view of a published post unless the session was
	// counted after now-cooldown. It returns the resulting view count.
	Record(ctx context.Context, postID, sessionID string, now time.Time, cooldown time.Duration) (count int64, counted bool, err error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Post    PostRepository
	Comment CommentRepository
	Like    LikeRepository
	View    ViewRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Post:    NewPostRepo(db),
		Comment: NewCommentRepo(db),
		Like:    NewLikeRepo(db),
		View:    NewViewRepo(db),
	}
}
