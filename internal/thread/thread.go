// Package thread arranges a post's flat comment list into reading order.
package thread

import (
	"iter"
	"sort"

	"github.com/blog-engagement-engine/internal/models"
)

// Tree is a comment arena plus a parent id -> children index, built in a
// single pass. Comments whose parent is absent from the input are dropped.
type Tree struct {
	roots    []*models.Comment
	children map[string][]*models.Comment
	byID     map[string]*models.Comment
}

// Build indexes comments. Siblings are ordered by creation time, then id.
func Build(comments []*models.Comment) *Tree {
	t := &Tree{
		children: make(map[string][]*models.Comment),
		byID:     make(map[string]*models.Comment, len(comments)),
	}
	for _, c := range comments {
		t.byID[c.ID] = c
	}
	for _, c := range comments {
		if c.ParentID == nil {
			t.roots = append(t.roots, c)
			continue
		}
		if _, ok := t.byID[*c.ParentID]; ok {
			t.children[*c.ParentID] = append(t.children[*c.ParentID], c)
		}
	}

	sortSiblings(t.roots)
	for _, kids := range t.children {
		sortSiblings(kids)
	}
	return t
}

// Walk yields (comment, depth) depth-first, parents before children.
// Hidden comments are skipped unless includeHidden is set; their replies
// are still yielded at their own depth.
func (t *Tree) Walk(includeHidden bool) iter.Seq2[*models.Comment, int] {
	return func(yield func(*models.Comment, int) bool) {
		type frame struct {
			c     *models.Comment
			depth int
		}

		stack := make([]frame, 0, len(t.roots))
		for i := len(t.roots) - 1; i >= 0; i-- {
			stack = append(stack, frame{t.roots[i], 0})
		}

		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if includeHidden || !f.c.Hidden {
				if !yield(f.c, f.depth) {
					return
				}
			}

			kids := t.children[f.c.ID]
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, frame{kids[i], f.depth + 1})
			}
		}
	}
}

// Entries collects Walk into a slice
func (t *Tree) Entries(includeHidden bool) []models.ThreadEntry {
	entries := make([]models.ThreadEntry, 0, len(t.byID))
	for c, depth := range t.Walk(includeHidden) {
		entries = append(entries, models.ThreadEntry{Comment: c, Depth: depth})
	}
	return entries
}

// Subtree returns the ids of the comment and all its descendants, or nil
// when id is unknown.
func (t *Tree) Subtree(id string) []string {
	if _, ok := t.byID[id]; !ok {
		return nil
	}

	var ids []string
	queue := []string{id}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		ids = append(ids, next)
		for _, kid := range t.children[next] {
			queue = append(queue, kid.ID)
		}
	}
	return ids
}

// Len is the number of indexed comments
func (t *Tree) Len() int {
	return len(t.byID)
}

func sortSiblings(cs []*models.Comment) {
	sort.SliceStable(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return cs[i].ID < cs[j].ID
	})
}
