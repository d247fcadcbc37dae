package models

import (
	"time"
)

// Comment represents a comment on a post. ParentID links replies into a
// tree rooted at top-level comments (ParentID == nil).
type Comment struct {
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"post_id" db:"post_id"`
	ParentID  *string   `json:"parent_id,omitempty" db:"parent_id"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Body      string    `json:"body" db:"body"`
	Hidden    bool      `json:"hidden" db:"hidden"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsTopLevel reports whether the comment has no parent
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// Clone returns a deep copy
func (c *Comment) Clone() *Comment {
	cp := *c
	if c.ParentID != nil {
		id := *c.ParentID
		cp.ParentID = &id
	}
	return &cp
}

// NewComment is the input for adding a comment
type NewComment struct {
	PostID   string  `json:"post_id"`
	AuthorID string  `json:"author_id"`
	Body     string  `json:"body"`
	ParentID *string `json:"parent_id,omitempty"`
}

// ThreadEntry is one rendered line of a comment thread
type ThreadEntry struct {
	Comment *Comment `json:"comment"`
	Depth   int      `json:"depth"`
}
