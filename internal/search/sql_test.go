package search_test

import (
	"testing"

	"github.com/blog-engagement-engine/internal/search"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, q search.Query) search.Statement {
	t.Helper()
	q, err := q.Normalize(limits)
	require.NoError(t, err)
	return search.Build(q)
}

func TestBuildDefault(t *testing.T) {
	st := build(t, search.Query{})

	assert.Equal(t, "status = 'published'", st.Where)
	assert.Equal(t, "published_at DESC NULLS LAST, id DESC", st.OrderBy)
	assert.Empty(t, st.Args)
	assert.Equal(t, "$1", st.Placeholder(1))
}

func TestBuildAllWithoutFilters(t *testing.T) {
	st := build(t, search.Query{Status: search.StatusAll, Elevated: true, Sort: search.SortPopularity})

	assert.Equal(t, "TRUE", st.Where)
	assert.Equal(t, "like_count DESC, view_count DESC, id DESC", st.OrderBy)
}

func TestBuildTextEscapesLikePattern(t *testing.T) {
	st := build(t, search.Query{Text: `100%_go\`})

	assert.Equal(t, "status = 'published' AND (title ILIKE $1 OR body ILIKE $1 OR excerpt ILIKE $1)", st.Where)
	assert.Equal(t, []interface{}{`%100\%\_go\\%`}, st.Args)
	assert.Equal(t, "CASE WHEN title ILIKE $1 THEN 0 ELSE 1 END, published_at DESC NULLS LAST, id DESC", st.OrderBy)
}

func TestBuildNumbersArgsInOrder(t *testing.T) {
	yes := true
	st := build(t, search.Query{
		Status:    search.StatusOwn,
		Viewer:    "u1",
		Tags:      []string{"go"},
		AnyTags:   []string{"db"},
		Category:  "news",
		Featured:  &yes,
		ExcludeID: "p9",
		Sort:      search.SortViews,
	})

	assert.Equal(t,
		"(status = 'published' OR author_id = $1) AND tags @> $2 AND tags && $3 AND category = $4 AND featured = $5 AND id <> $6",
		st.Where)
	require.Len(t, st.Args, 6)
	assert.Equal(t, pq.Array([]string{"go"}), st.Args[1])
	assert.Equal(t, "$7", st.Placeholder(1))
	assert.Equal(t, "view_count DESC, like_count DESC, id DESC", st.OrderBy)
}

func TestBuildDraftScopesToViewer(t *testing.T) {
	st := build(t, search.Query{Status: search.StatusDraft, Viewer: "u1"})
	assert.Equal(t, "status = 'draft' AND author_id = $1", st.Where)

	st = build(t, search.Query{Status: search.StatusDraft, Viewer: "u1", Elevated: true})
	assert.Equal(t, "status = 'draft'", st.Where)
}
