package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/blog-engagement-engine/internal/database"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/jmoiron/sqlx"
)

// viewRepo is the concrete implementation of ViewRepository
type viewRepo struct {
	db *database.DB
}

// NewViewRepo creates a new view repository
func NewViewRepo(db *database.DB) ViewRepository {
	return &viewRepo{db: db}
}

// Record upserts the session's ledger row only when its last counted view
// is at least cooldown old; the counter moves only if that upsert wrote.
func (r *viewRepo) Record(ctx context.Context, postID, sessionID string, now time.Time, cooldown time.Duration) (int64, bool, error) {
	var (
		count   int64
		counted bool
	)
	err := r.db.WithTx(ctx, nil, func(tx *sqlx.Tx) error {
		count, counted = 0, false

		var status models.PostStatus
		if err := tx.GetContext(ctx, &status, "SELECT status FROM posts WHERE id = $1", postID); err != nil {
			return translate(err, "post", postID)
		}

		if status == models.PostStatusPublished {
			upsert := `
				INSERT INTO post_views (post_id, session_id, last_counted_at)
				VALUES ($1, $2, $3)
				ON CONFLICT (post_id, session_id) DO UPDATE
					SET last_counted_at = EXCLUDED.last_counted_at
					WHERE post_views.last_counted_at <= $4
				RETURNING last_counted_at
			`
			var at time.Time
			err := tx.GetContext(ctx, &at, upsert, postID, sessionID, now, now.Add(-cooldown))
			switch {
			case err == nil:
				counted = true
				return translate(tx.GetContext(ctx, &count,
					"UPDATE posts SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count", postID), "post", postID)
			case !errors.Is(err, sql.ErrNoRows):
				return translate(err, "view", postID)
			}
		}

		return translate(tx.GetContext(ctx, &count, "SELECT view_count FROM posts WHERE id = $1", postID), "post", postID)
	})
	if err != nil {
		return 0, false, err
	}
	return count, counted, nil
}
