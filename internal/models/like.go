package models

import "time"

// Like is a unique per-user endorsement of a post
type Like struct {
	UserID    string    `json:"user_id" db:"user_id"`
	PostID    string    `json:"post_id" db:"post_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LikeState is the result of a like toggle
type LikeState struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// PostView records when a viewer session's view of a post was last counted
type PostView struct {
	PostID        string    `json:"post_id" db:"post_id"`
	SessionID     string    `json:"session_id" db:"session_id"`
	LastCountedAt time.Time `json:"last_counted_at" db:"last_counted_at"`
}
