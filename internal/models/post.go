package models

import (
	"time"

	"github.com/lib/pq"
)

// PostStatus is the publication state of a post
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post represents a blog post with its derived metadata and cached counters
type Post struct {
	ID            string         `json:"id" db:"id"`
	Title         string         `json:"title" db:"title"`
	Slug          string         `json:"slug" db:"slug"`
	Body          string         `json:"body" db:"body"`
	Excerpt       string         `json:"excerpt" db:"excerpt"`
	ExcerptAuto   bool           `json:"-" db:"excerpt_auto"` // excerpt was derived from the body
	AuthorID      string         `json:"author_id" db:"author_id"`
	Status        PostStatus     `json:"status" db:"status"`
	PublishedAt   *time.Time     `json:"published_at,omitempty" db:"published_at"`
	ViewCount     int64          `json:"view_count" db:"view_count"`
	LikeCount     int64          `json:"like_count" db:"like_count"`
	CommentCount  int64          `json:"comment_count" db:"comment_count"`
	ReadingTime   int            `json:"reading_time" db:"reading_time"`
	Featured      bool           `json:"featured" db:"featured"`
	Tags          pq.StringArray `json:"tags" db:"tags"`
	Category      string         `json:"category,omitempty" db:"category"`
	FeaturedImage string         `json:"featured_image,omitempty" db:"featured_image"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// IsPublished reports whether the post is publicly visible
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// HasTag reports whether the post carries tag (tags are stored normalized)
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (p *Post) Clone() *Post {
	c := *p
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		c.PublishedAt = &t
	}
	if p.Tags != nil {
		c.Tags = append(pq.StringArray(nil), p.Tags...)
	}
	return &c
}

// NewPost is the input for creating a post
type NewPost struct {
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	Excerpt       string     `json:"excerpt,omitempty"`
	AuthorID      string     `json:"author_id"`
	Status        PostStatus `json:"status,omitempty"`
	Featured      bool       `json:"featured,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Category      string     `json:"category,omitempty"`
	FeaturedImage string     `json:"featured_image,omitempty"`
}

// PostUpdate is a partial update; nil fields are left unchanged
type PostUpdate struct {
	Title         *string     `json:"title,omitempty"`
	Body          *string     `json:"body,omitempty"`
	Excerpt       *string     `json:"excerpt,omitempty"`
	Status        *PostStatus `json:"status,omitempty"`
	Featured      *bool       `json:"featured,omitempty"`
	Tags          *[]string   `json:"tags,omitempty"`
	Category      *string     `json:"category,omitempty"`
	FeaturedImage *string     `json:"featured_image,omitempty"`
}

// PostPage is one page of search results
type PostPage struct {
	Posts    []*Post `json:"posts"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// TotalPages is the number of pages at the current page size
func (p *PostPage) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
