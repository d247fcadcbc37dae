package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/blog-engagement-engine/internal/database"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/search"
	"github.com/jmoiron/sqlx"
)

const postColumns = `id, title, slug, body, excerpt, excerpt_auto, author_id, status, published_at,
	view_count, like_count, comment_count, reading_time, featured, tags, category, featured_image,
	created_at, updated_at`

// postRepo is the concrete implementation of PostRepository
type postRepo struct {
	db *database.DB
}

// NewPostRepo creates a new post repository
func NewPostRepo(db *database.DB) PostRepository {
	return &postRepo{db: db}
}

// Create inserts a new post. A taken slug surfaces as a conflict.
func (r *postRepo) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, title, slug, body, excerpt, excerpt_auto, author_id, status, published_at,
			reading_time, featured, tags, category, featured_image, created_at, updated_at)
		VALUES (:id, :title, :slug, :body, :excerpt, :excerpt_auto, :author_id, :status, :published_at,
			:reading_time, :featured, :tags, :category, :featured_image, :created_at, :updated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, post)
	return translate(err, "post", post.ID)
}

// Update writes the editable fields of a post
func (r *postRepo) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts SET
			title = :title, slug = :slug, body = :body, excerpt = :excerpt, excerpt_auto = :excerpt_auto,
			status = :status, published_at = :published_at, reading_time = :reading_time,
			featured = :featured, tags = :tags, category = :category, featured_image = :featured_image,
			updated_at = :updated_at
		WHERE id = :id
	`
	res, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		return translate(err, "post", post.ID)
	}
	return requireAffected(res, "post", post.ID)
}

// GetByID retrieves a post by ID
func (r *postRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.db.GetContext(ctx, &post, "SELECT "+postColumns+" FROM posts WHERE id = $1", id)
	if err != nil {
		return nil, translate(err, "post", id)
	}
	return &post, nil
}

// GetBySlug retrieves a post by slug
func (r *postRepo) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.GetContext(ctx, &post, "SELECT "+postColumns+" FROM posts WHERE slug = $1", slug)
	if err != nil {
		return nil, translate(err, "post", slug)
	}
	return &post, nil
}

// SlugExists checks if a post other than excludeID uses slug
func (r *postRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	var err error
	if excludeID == "" {
		err = r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1)", slug)
	} else {
		err = r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)", slug, excludeID)
	}
	return exists, translate(err, "post", slug)
}

// Delete removes a post; comments, likes and views cascade
func (r *postRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return translate(err, "post", id)
	}
	return requireAffected(res, "post", id)
}

// Search runs the count and the page query on one snapshot
func (r *postRepo) Search(ctx context.Context, q search.Query) ([]*models.Post, int, error) {
	st := search.Build(q)

	var (
		posts []*models.Post
		total int
	)
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := r.db.WithTx(ctx, opts, func(tx *sqlx.Tx) error {
		posts, total = nil, 0

		if err := tx.GetContext(ctx, &total, "SELECT COUNT(*) FROM posts WHERE "+st.Where, st.Args...); err != nil {
			return translate(err, "post", "search")
		}
		if total == 0 || q.Offset() >= total {
			return nil
		}

		query := fmt.Sprintf("SELECT %s FROM posts WHERE %s ORDER BY %s LIMIT %s OFFSET %s",
			postColumns, st.Where, st.OrderBy, st.Placeholder(1), st.Placeholder(2))
		args := append(append([]interface{}{}, st.Args...), q.PageSize, q.Offset())
		return translate(tx.SelectContext(ctx, &posts, query, args...), "post", "search")
	})
	if err != nil {
		return nil, 0, err
	}

	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, total, nil
}

// PopularTags counts published posts per tag
func (r *postRepo) PopularTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	query := `
		SELECT tag, COUNT(*) AS posts
		FROM posts, unnest(tags) AS tag
		WHERE status = 'published'
		GROUP BY tag
		ORDER BY posts DESC, tag ASC
		LIMIT $1
	`
	tags := []models.TagCount{}
	if err := r.db.SelectContext(ctx, &tags, query, limit); err != nil {
		return nil, translate(err, "tag", "popular")
	}
	return tags, nil
}

// AuthorTotals aggregates one author's posts
func (r *postRepo) AuthorTotals(ctx context.Context, authorID string) (*models.AuthorTotals, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'draft') AS draft_count,
			COUNT(*) FILTER (WHERE status = 'published') AS published_count,
			COALESCE(SUM(view_count), 0) AS total_views,
			COALESCE(SUM(like_count), 0) AS total_likes,
			COALESCE(SUM(comment_count), 0) AS total_comments
		FROM posts
		WHERE author_id = $1
	`
	var totals models.AuthorTotals
	if err := r.db.GetContext(ctx, &totals, query, authorID); err != nil {
		return nil, translate(err, "author", authorID)
	}
	return &totals, nil
}

// SiteStats aggregates published content across all authors
func (r *postRepo) SiteStats(ctx context.Context) (*models.SiteStats, error) {
	query := `
		SELECT
			COUNT(*) AS published_posts,
			COUNT(DISTINCT author_id) AS authors,
			COALESCE(SUM(like_count), 0) AS likes,
			COALESCE(SUM(view_count), 0) AS views,
			(SELECT COUNT(*) FROM comments c JOIN posts cp ON cp.id = c.post_id
				WHERE cp.status = 'published' AND NOT c.hidden) AS comments
		FROM posts
		WHERE status = 'published'
	`
	var stats models.SiteStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, translate(err, "site", "stats")
	}
	return &stats, nil
}
