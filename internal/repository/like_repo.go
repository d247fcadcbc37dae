package repository

import (
	"context"

	"github.com/blog-engagement-engine/internal/database"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/jmoiron/sqlx"
)

// likeRepo is the concrete implementation of LikeRepository
type likeRepo struct {
	db *database.DB
}

// NewLikeRepo creates a new like repository
func NewLikeRepo(db *database.DB) LikeRepository {
	return &likeRepo{db: db}
}

// Toggle flips the (user, post) like under the post row lock, so
// concurrent toggles serialize and like_count tracks the ledger exactly.
func (r *likeRepo) Toggle(ctx context.Context, userID, postID string) (models.LikeState, error) {
	var state models.LikeState
	err := r.db.WithTx(ctx, nil, func(tx *sqlx.Tx) error {
		state = models.LikeState{}

		var current int64
		if err := tx.GetContext(ctx, &current, "SELECT like_count FROM posts WHERE id = $1 FOR UPDATE", postID); err != nil {
			return translate(err, "post", postID)
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM likes WHERE user_id = $1 AND post_id = $2", userID, postID)
		if err != nil {
			return translate(err, "like", postID)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return translate(err, "like", postID)
		}

		update := "UPDATE posts SET like_count = GREATEST(like_count - 1, 0) WHERE id = $1 RETURNING like_count"
		if removed == 0 {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO likes (user_id, post_id, created_at) VALUES ($1, $2, NOW())", userID, postID); err != nil {
				return translate(err, "like", postID)
			}
			update = "UPDATE posts SET like_count = like_count + 1 WHERE id = $1 RETURNING like_count"
			state.Liked = true
		}

		return translate(tx.GetContext(ctx, &state.LikeCount, update, postID), "post", postID)
	})
	if err != nil {
		return models.LikeState{}, err
	}
	return state, nil
}

// Exists reports whether the user currently likes the post
func (r *likeRepo) Exists(ctx context.Context, userID, postID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = $1 AND post_id = $2)", userID, postID)
	return exists, translate(err, "like", postID)
}
