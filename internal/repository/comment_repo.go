package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/blog-engagement-engine/internal/database"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/jmoiron/sqlx"
)

const commentColumns = `id, post_id, parent_id, author_id, body, hidden, created_at, updated_at`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// Create inserts a comment and increments the post's comment_count in one
// transaction. The post row update runs first so it holds the row lock
// that DeleteSubtree also takes.
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithTx(ctx, nil, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE posts SET comment_count = comment_count + 1 WHERE id = $1", comment.PostID)
		if err != nil {
			return translate(err, "post", comment.PostID)
		}
		if err := requireAffected(res, "post", comment.PostID); err != nil {
			return err
		}

		if comment.ParentID != nil {
			var parentPost string
			err := tx.GetContext(ctx, &parentPost, "SELECT post_id FROM comments WHERE id = $1", *comment.ParentID)
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.InvalidParent("parent comment does not exist: " + *comment.ParentID)
			}
			if err != nil {
				return translate(err, "comment", *comment.ParentID)
			}
			if parentPost != comment.PostID {
				return apperror.InvalidParent("parent comment belongs to another post")
			}
		}

		query := `
			INSERT INTO comments (id, post_id, parent_id, author_id, body, hidden, created_at, updated_at)
			VALUES (:id, :post_id, :parent_id, :author_id, :body, :hidden, :created_at, :updated_at)
		`
		if _, err := tx.NamedExecContext(ctx, query, comment); err != nil {
			// The parent can vanish between the check and the insert
			if database.IsForeignKeyViolation(err) {
				return apperror.InvalidParent("parent comment was deleted")
			}
			return translate(err, "comment", comment.ID)
		}
		return nil
	})
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.GetContext(ctx, &comment, "SELECT "+commentColumns+" FROM comments WHERE id = $1", id)
	if err != nil {
		return nil, translate(err, "comment", id)
	}
	return &comment, nil
}

// ListByPost returns every comment of a post, hidden ones included
func (r *commentRepo) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.SelectContext(ctx, &comments,
		"SELECT "+commentColumns+" FROM comments WHERE post_id = $1 ORDER BY created_at, id", postID)
	if err != nil {
		return nil, translate(err, "comment", postID)
	}
	return comments, nil
}

// SetHidden updates the moderation state
func (r *commentRepo) SetHidden(ctx context.Context, id string, hidden bool) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.GetContext(ctx, &comment,
		"UPDATE comments SET hidden = $2, updated_at = NOW() WHERE id = $1 RETURNING "+commentColumns, id, hidden)
	if err != nil {
		return nil, translate(err, "comment", id)
	}
	return &comment, nil
}

// DeleteSubtree deletes a comment with all of its replies and decrements
// the post's comment_count by the number of rows removed.
func (r *commentRepo) DeleteSubtree(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := r.db.WithTx(ctx, nil, func(tx *sqlx.Tx) error {
		removed = 0

		var postID string
		if err := tx.GetContext(ctx, &postID, "SELECT post_id FROM comments WHERE id = $1", id); err != nil {
			return translate(err, "comment", id)
		}

		// Serializes against Create adding replies to this subtree
		if _, err := tx.ExecContext(ctx, "SELECT 1 FROM posts WHERE id = $1 FOR UPDATE", postID); err != nil {
			return translate(err, "post", postID)
		}

		query := `
			WITH RECURSIVE subtree AS (
				SELECT id FROM comments WHERE id = $1
				UNION ALL
				SELECT c.id FROM comments c JOIN subtree s ON c.parent_id = s.id
			), deleted AS (
				DELETE FROM comments WHERE id IN (SELECT id FROM subtree) RETURNING id
			)
			SELECT COUNT(*) FROM deleted
		`
		if err := tx.GetContext(ctx, &removed, query, id); err != nil {
			return translate(err, "comment", id)
		}
		if removed == 0 {
			return apperror.NotFound("comment", id)
		}

		_, err := tx.ExecContext(ctx,
			"UPDATE posts SET comment_count = GREATEST(comment_count - $2, 0) WHERE id = $1", postID, removed)
		return translate(err, "post", postID)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// RecentOnAuthorPosts lists the newest visible comments left on an author's posts
func (r *commentRepo) RecentOnAuthorPosts(ctx context.Context, authorID string, limit int) ([]*models.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.parent_id, c.author_id, c.body, c.hidden, c.created_at, c.updated_at
		FROM comments c
		JOIN posts p ON p.id = c.post_id
		WHERE p.author_id = $1 AND NOT c.hidden
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2
	`
	comments := []*models.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, authorID, limit); err != nil {
		return nil, translate(err, "comment", authorID)
	}
	return comments, nil
}
