package thread_test

import (
	"testing"
	"time"

	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/thread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func comment(id string, parent string, minute int) *models.Comment {
	c := &models.Comment{ID: id, PostID: "post-1", Body: id, CreatedAt: t0.Add(time.Duration(minute) * time.Minute)}
	if parent != "" {
		c.ParentID = &parent
	}
	return c
}

type line struct {
	ID    string
	Depth int
}

func walk(tree *thread.Tree, includeHidden bool) []line {
	var out []line
	for c, depth := range tree.Walk(includeHidden) {
		out = append(out, line{c.ID, depth})
	}
	return out
}

// Tree, with creation order in parentheses:
//
//	a(0)
//	  a1(2)
//	    a1x(5)
//	  a2(3)
//	b(1)
//	  b1(4)
func fixture() []*models.Comment {
	return []*models.Comment{
		comment("b1", "b", 4),
		comment("a2", "a", 3),
		comment("a", "", 0),
		comment("a1x", "a1", 5),
		comment("b", "", 1),
		comment("a1", "a", 2),
	}
}

func TestWalkDepthFirstByCreation(t *testing.T) {
	tree := thread.Build(fixture())

	assert.Equal(t, []line{
		{"a", 0}, {"a1", 1}, {"a1x", 2}, {"a2", 1}, {"b", 0}, {"b1", 1},
	}, walk(tree, false))
}

func TestWalkParentBeforeChild(t *testing.T) {
	tree := thread.Build(fixture())

	seen := map[string]bool{}
	for c := range tree.Walk(true) {
		if c.ParentID != nil {
			assert.True(t, seen[*c.ParentID], "%s yielded before its parent", c.ID)
		}
		seen[c.ID] = true
	}
	assert.Len(t, seen, 6)
}

func TestWalkSkipsHiddenButKeepsReplies(t *testing.T) {
	comments := fixture()
	for _, c := range comments {
		if c.ID == "a1" {
			c.Hidden = true
		}
	}
	tree := thread.Build(comments)

	assert.Equal(t, []line{
		{"a", 0}, {"a1x", 2}, {"a2", 1}, {"b", 0}, {"b1", 1},
	}, walk(tree, false))
	assert.Len(t, walk(tree, true), 6)
}

func TestWalkTieBreaksByID(t *testing.T) {
	tree := thread.Build([]*models.Comment{comment("z", "", 0), comment("m", "", 0)})
	assert.Equal(t, []line{{"m", 0}, {"z", 0}}, walk(tree, false))
}

func TestWalkStopsEarly(t *testing.T) {
	tree := thread.Build(fixture())

	n := 0
	for range tree.Walk(false) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestEntriesAndSubtree(t *testing.T) {
	tree := thread.Build(fixture())

	entries := tree.Entries(false)
	require.Len(t, entries, 6)
	assert.Equal(t, "a1x", entries[2].Comment.ID)
	assert.Equal(t, 2, entries[2].Depth)

	assert.ElementsMatch(t, []string{"a", "a1", "a2", "a1x"}, tree.Subtree("a"))
	assert.Equal(t, []string{"b1"}, tree.Subtree("b1"))
	assert.Nil(t, tree.Subtree("missing"))
	assert.Equal(t, 6, tree.Len())
}

func TestBuildDropsOrphans(t *testing.T) {
	tree := thread.Build([]*models.Comment{comment("a", "", 0), comment("lost", "gone", 1)})
	assert.Equal(t, []line{{"a", 0}}, walk(tree, false))
}
