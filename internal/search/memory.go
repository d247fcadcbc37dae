package search

import (
	"sort"
	"strings"

	"github.com/blog-engagement-engine/internal/models"
)

// Match reports whether p passes every filter of q and, if so, its
// relevance rank: 0 for a title hit, 1 otherwise.
func Match(q Query, p *models.Post) (rank int, ok bool) {
	if !visible(q, p) {
		return 0, false
	}
	for _, tag := range q.Tags {
		if !p.HasTag(tag) {
			return 0, false
		}
	}
	if len(q.AnyTags) > 0 && !hasAny(p, q.AnyTags) {
		return 0, false
	}
	if q.Category != "" && p.Category != q.Category {
		return 0, false
	}
	if q.Author != "" && p.AuthorID != q.Author {
		return 0, false
	}
	if q.Featured != nil && p.Featured != *q.Featured {
		return 0, false
	}
	if q.PublishedAfter != nil && (p.PublishedAt == nil || p.PublishedAt.Before(*q.PublishedAfter)) {
		return 0, false
	}
	if q.ExcludeID != "" && p.ID == q.ExcludeID {
		return 0, false
	}

	if q.Text == "" {
		return 1, true
	}
	needle := strings.ToLower(q.Text)
	if strings.Contains(strings.ToLower(p.Title), needle) {
		return 0, true
	}
	if strings.Contains(strings.ToLower(p.Body), needle) || strings.Contains(strings.ToLower(p.Excerpt), needle) {
		return 1, true
	}
	return 0, false
}

// Apply filters, orders and pages posts, returning the page and the total
// number of matches. q must be normalized.
func Apply(q Query, posts []*models.Post) ([]*models.Post, int) {
	type ranked struct {
		post *models.Post
		rank int
	}

	matches := make([]ranked, 0, len(posts))
	for _, p := range posts {
		if rank, ok := Match(q, p); ok {
			matches = append(matches, ranked{post: p, rank: rank})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if q.Sort == SortRelevance && a.rank != b.rank {
			return a.rank < b.rank
		}
		return Less(q.Sort, a.post, b.post)
	})

	total := len(matches)
	start := q.Offset()
	if start >= total {
		return []*models.Post{}, total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}

	page := make([]*models.Post, 0, end-start)
	for _, m := range matches[start:end] {
		page = append(page, m.post)
	}
	return page, total
}

// Less orders a before b under sort, ignoring relevance rank. Ties always
// fall through to id descending so the ordering is total.
func Less(s Sort, a, b *models.Post) bool {
	switch s {
	case SortPopularity:
		if a.LikeCount != b.LikeCount {
			return a.LikeCount > b.LikeCount
		}
		if a.ViewCount != b.ViewCount {
			return a.ViewCount > b.ViewCount
		}
		return a.ID > b.ID
	case SortViews:
		if a.ViewCount != b.ViewCount {
			return a.ViewCount > b.ViewCount
		}
		if a.LikeCount != b.LikeCount {
			return a.LikeCount > b.LikeCount
		}
		return a.ID > b.ID
	case SortComments:
		if a.CommentCount != b.CommentCount {
			return a.CommentCount > b.CommentCount
		}
	}
	return newerFirst(a, b)
}

// newerFirst sorts by publication time descending with unpublished posts last
func newerFirst(a, b *models.Post) bool {
	switch {
	case a.PublishedAt == nil && b.PublishedAt == nil:
	case a.PublishedAt == nil:
		return false
	case b.PublishedAt == nil:
		return true
	case !a.PublishedAt.Equal(*b.PublishedAt):
		return a.PublishedAt.After(*b.PublishedAt)
	}
	return a.ID > b.ID
}

func visible(q Query, p *models.Post) bool {
	switch q.Status {
	case StatusAll:
		return true
	case StatusOwn:
		return p.IsPublished() || p.AuthorID == q.Viewer
	case StatusDraft:
		return p.Status == models.PostStatusDraft && (q.Elevated || p.AuthorID == q.Viewer)
	default:
		return p.IsPublished()
	}
}

func hasAny(p *models.Post, tags []string) bool {
	for _, tag := range tags {
		if p.HasTag(tag) {
			return true
		}
	}
	return false
}
