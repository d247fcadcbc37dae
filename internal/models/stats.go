package models

// AuthorStats is derived on read for one author, never persisted
type AuthorStats struct {
	AuthorID       string     `json:"author_id"`
	DraftCount     int64      `json:"draft_count"`
	PublishedCount int64      `json:"published_count"`
	TotalViews     int64      `json:"total_views"`
	TotalLikes     int64      `json:"total_likes"`
	TotalComments  int64      `json:"total_comments"`
	TopPosts       []*Post    `json:"top_posts"` // drafts included, by views desc
	RecentComments []*Comment `json:"recent_comments"`
}

// AuthorTotals are the scalar aggregates behind AuthorStats
type AuthorTotals struct {
	DraftCount     int64 `db:"draft_count"`
	PublishedCount int64 `db:"published_count"`
	TotalViews     int64 `db:"total_views"`
	TotalLikes     int64 `db:"total_likes"`
	TotalComments  int64 `db:"total_comments"`
}

// SiteStats are platform-wide totals over published content
type SiteStats struct {
	PublishedPosts int64 `json:"published_posts" db:"published_posts"`
	Authors        int64 `json:"authors" db:"authors"`
	Comments       int64 `json:"comments" db:"comments"`
	Likes          int64 `json:"likes" db:"likes"`
	Views          int64 `json:"views" db:"views"`
}

// TagCount is a tag with the number of published posts carrying it
type TagCount struct {
	Tag   string `json:"tag" db:"tag"`
	Posts int64  `json:"posts" db:"posts"`
}
