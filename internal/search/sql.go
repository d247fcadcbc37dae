package search

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const datePostedOrder = "published_at DESC NULLS LAST, id DESC"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Statement is a normalized query rendered as SQL fragments over the posts
// table. Where and OrderBy reference Args by position starting at $1.
type Statement struct {
	Where   string
	OrderBy string
	Args    []interface{}
}

// Placeholder returns the next free positional parameter, for callers
// appending LIMIT/OFFSET.
func (s Statement) Placeholder(offset int) string {
	return fmt.Sprintf("$%d", len(s.Args)+offset)
}

type builder struct {
	clauses []string
	args    []interface{}
}

func (b *builder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *builder) where(format string, v ...interface{}) {
	b.clauses = append(b.clauses, fmt.Sprintf(format, v...))
}

// Build renders a normalized query. Callers must Normalize q first.
func Build(q Query) Statement {
	b := &builder{}

	switch q.Status {
	case StatusPublished:
		b.where("status = 'published'")
	case StatusOwn:
		b.where("(status = 'published' OR author_id = %s)", b.arg(q.Viewer))
	case StatusDraft:
		if q.Elevated {
			b.where("status = 'draft'")
		} else {
			b.where("status = 'draft' AND author_id = %s", b.arg(q.Viewer))
		}
	}

	var textArg string
	if q.Text != "" {
		textArg = b.arg("%" + likeEscaper.Replace(q.Text) + "%")
		b.where("(title ILIKE %[1]s OR body ILIKE %[1]s OR excerpt ILIKE %[1]s)", textArg)
	}
	if len(q.Tags) > 0 {
		b.where("tags @> %s", b.arg(pq.Array(q.Tags)))
	}
	if len(q.AnyTags) > 0 {
		b.where("tags && %s", b.arg(pq.Array(q.AnyTags)))
	}
	if q.Category != "" {
		b.where("category = %s", b.arg(q.Category))
	}
	if q.Author != "" {
		b.where("author_id = %s", b.arg(q.Author))
	}
	if q.Featured != nil {
		b.where("featured = %s", b.arg(*q.Featured))
	}
	if q.PublishedAfter != nil {
		b.where("published_at >= %s", b.arg(*q.PublishedAfter))
	}
	if q.ExcludeID != "" {
		b.where("id <> %s", b.arg(q.ExcludeID))
	}

	where := "TRUE"
	if len(b.clauses) > 0 {
		where = strings.Join(b.clauses, " AND ")
	}

	return Statement{Where: where, OrderBy: orderBy(q.Sort, textArg), Args: b.args}
}

func orderBy(sort Sort, textArg string) string {
	switch sort {
	case SortPopularity:
		return "like_count DESC, view_count DESC, id DESC"
	case SortViews:
		return "view_count DESC, like_count DESC, id DESC"
	case SortComments:
		return "comment_count DESC, " + datePostedOrder
	case SortRelevance:
		if textArg != "" {
			return fmt.Sprintf("CASE WHEN title ILIKE %s THEN 0 ELSE 1 END, %s", textArg, datePostedOrder)
		}
	}
	return datePostedOrder
}
