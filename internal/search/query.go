// Package search models post search queries and evaluates them, either as
// SQL for the store or in memory.
package search

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/blog-engagement-engine/internal/slug"
)

// Sort is a result ordering mode
type Sort string

const (
	SortDate       Sort = "date"
	SortPopularity Sort = "popularity"
	SortViews      Sort = "views"
	SortComments   Sort = "comments"
	SortRelevance  Sort = "relevance"
)

var validSorts = map[Sort]bool{
	SortDate:       true,
	SortPopularity: true,
	SortViews:      true,
	SortComments:   true,
	SortRelevance:  true,
}

// StatusFilter selects which publication states are eligible
type StatusFilter string

const (
	// StatusPublished admits published posts only
	StatusPublished StatusFilter = "published"
	// StatusOwn admits published posts plus the viewer's own drafts
	StatusOwn StatusFilter = "own"
	// StatusDraft admits drafts: the viewer's own, or all of them when elevated
	StatusDraft StatusFilter = "draft"
	// StatusAll admits every post and requires elevated rights
	StatusAll StatusFilter = "all"
)

// Limits bound pagination
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Query describes one search request. Zero values mean "no constraint"
// for filters and "use the default" for Status, Sort, Page and PageSize.
type Query struct {
	Text           string
	Tags           []string // all must be present
	AnyTags        []string // at least one must be present
	Category       string
	Author         string
	Featured       *bool
	PublishedAfter *time.Time
	ExcludeID      string
	Status         StatusFilter
	Viewer         string
	Elevated       bool
	Sort           Sort
	Page           int
	PageSize       int
}

// Normalize validates q and returns a copy with defaults applied and
// text, tags and ids canonicalized.
func (q Query) Normalize(limits Limits) (Query, error) {
	q.Text = strings.Join(strings.Fields(q.Text), " ")
	q.Tags = slug.NormalizeTags(q.Tags)
	q.AnyTags = slug.NormalizeTags(q.AnyTags)
	q.Category = strings.TrimSpace(q.Category)
	q.Author = strings.TrimSpace(q.Author)
	q.Viewer = strings.TrimSpace(q.Viewer)
	q.ExcludeID = strings.TrimSpace(q.ExcludeID)

	switch q.Status {
	case "":
		q.Status = StatusPublished
	case StatusPublished:
	case StatusOwn:
		if q.Viewer == "" {
			return q, apperror.Validation("status", "status \"own\" requires a viewer")
		}
	case StatusDraft:
		if q.Viewer == "" && !q.Elevated {
			return q, apperror.Validation("status", "status \"draft\" requires a viewer")
		}
	case StatusAll:
		if !q.Elevated {
			return q, apperror.Validation("status", "status \"all\" requires elevated rights")
		}
	default:
		return q, apperror.Validation("status", fmt.Sprintf("unknown status filter %q", q.Status))
	}

	switch {
	case q.Sort == "" && q.Text != "":
		q.Sort = SortRelevance
	case q.Sort == "":
		q.Sort = SortDate
	case !validSorts[q.Sort]:
		return q, apperror.InvalidSort(fmt.Sprintf("unknown sort %q", q.Sort))
	case q.Sort == SortRelevance && q.Text == "":
		return q, apperror.InvalidSort("sort \"relevance\" requires query text")
	}

	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 0 {
		return q, apperror.Validation("page", "page must be a positive integer")
	}
	if q.PageSize == 0 {
		q.PageSize = limits.DefaultPageSize
	}
	if q.PageSize < 0 || q.PageSize > limits.MaxPageSize {
		return q, apperror.Validation("page_size", fmt.Sprintf("page_size must be between 1 and %d", limits.MaxPageSize))
	}

	return q, nil
}

// Offset is the number of matches skipped before the requested page. It
// saturates at math.MaxInt, so absurd pages land past the end.
func (q Query) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

// ParseSort converts a request parameter to a Sort. The empty string is
// allowed and means "default".
func ParseSort(s string) (Sort, error) {
	sort := Sort(strings.ToLower(strings.TrimSpace(s)))
	if sort != "" && !validSorts[sort] {
		return "", apperror.InvalidSort(fmt.Sprintf("unknown sort %q", s))
	}
	return sort, nil
}
