package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/repository"
	"github.com/blog-engagement-engine/internal/search"
	"github.com/blog-engagement-engine/internal/thread"
)

type likeKey struct{ userID, postID string }

type viewKey struct{ postID, sessionID string }

// Store is the in-memory state shared by the mock repositories. One mutex
// guards every table so multi-table operations are atomic, the way a
// transaction would make them.
type Store struct {
	mu       sync.RWMutex
	posts    map[string]*models.Post
	comments map[string]*models.Comment
	likes    map[likeKey]time.Time
	views    map[viewKey]time.Time

	Posts    *MockPostRepository
	Comments *MockCommentRepository
	Likes    *MockLikeRepository
	Views    *MockViewRepository
}

func NewStore() *Store {
	s := &Store{
		posts:    make(map[string]*models.Post),
		comments: make(map[string]*models.Comment),
		likes:    make(map[likeKey]time.Time),
		views:    make(map[viewKey]time.Time),
	}
	s.Posts = &MockPostRepository{store: s}
	s.Comments = &MockCommentRepository{store: s}
	s.Likes = &MockLikeRepository{store: s}
	s.Views = &MockViewRepository{store: s}
	return s
}

// Repositories exposes the mocks through the repository interfaces
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Post:    s.Posts,
		Comment: s.Comments,
		Like:    s.Likes,
		View:    s.Views,
	}
}

// Post returns a copy of the stored post, or nil
func (s *Store) Post(id string) *models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.posts[id]; ok {
		return p.Clone()
	}
	return nil
}

// LikeRows counts ledger rows for a post
func (s *Store) LikeRows(postID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.likes {
		if k.postID == postID {
			n++
		}
	}
	return n
}

// CommentRows counts stored comments for a post
func (s *Store) CommentRows(postID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n
}

// MockPostRepository is a mock implementation of PostRepository
type MockPostRepository struct {
	store *Store
	// CreateErrors are returned, first to last, by the next Create calls
	CreateErrors []error
	CreateCalls  int
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	m.CreateCalls++
	if len(m.CreateErrors) > 0 {
		err := m.CreateErrors[0]
		m.CreateErrors = m.CreateErrors[1:]
		if err != nil {
			return err
		}
	}
	if _, exists := s.posts[post.ID]; exists {
		return apperror.Conflict("post id already in use", nil)
	}
	for _, p := range s.posts {
		if p.Slug == post.Slug {
			return apperror.Conflict("slug already in use", nil)
		}
	}
	s.posts[post.ID] = post.Clone()
	return nil
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.posts[post.ID]
	if !ok {
		return apperror.NotFound("post", post.ID)
	}
	for _, p := range s.posts {
		if p.ID != post.ID && p.Slug == post.Slug {
			return apperror.Conflict("slug already in use", nil)
		}
	}

	updated := post.Clone()
	updated.ViewCount = stored.ViewCount
	updated.LikeCount = stored.LikeCount
	updated.CommentCount = stored.CommentCount
	updated.CreatedAt = stored.CreatedAt
	s.posts[post.ID] = updated
	return nil
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if p := m.store.Post(id); p != nil {
		return p, nil
	}
	return nil, apperror.NotFound("post", id)
}

func (m *MockPostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.Slug == slug {
			return p.Clone(), nil
		}
	}
	return nil, apperror.NotFound("post", slug)
}

func (m *MockPostRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockPostRepository) Delete(ctx context.Context, id string) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	for k := range s.likes {
		if k.postID == id {
			delete(s.likes, k)
		}
	}
	for k := range s.views {
		if k.postID == id {
			delete(s.views, k)
		}
	}
	return nil
}

func (m *MockPostRepository) Search(ctx context.Context, q search.Query) ([]*models.Post, int, error) {
	s := m.store
	s.mu.RLock()
	posts := make([]*models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, p.Clone())
	}
	s.mu.RUnlock()

	page, total := search.Apply(q, posts)
	return page, total, nil
}

func (m *MockPostRepository) PopularTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	s := m.store
	s.mu.RLock()
	counts := make(map[string]int64)
	for _, p := range s.posts {
		if !p.IsPublished() {
			continue
		}
		for _, tag := range p.Tags {
			counts[tag]++
		}
	}
	s.mu.RUnlock()

	tags := make([]models.TagCount, 0, len(counts))
	for tag, n := range counts {
		tags = append(tags, models.TagCount{Tag: tag, Posts: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Posts != tags[j].Posts {
			return tags[i].Posts > tags[j].Posts
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

func (m *MockPostRepository) AuthorTotals(ctx context.Context, authorID string) (*models.AuthorTotals, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := &models.AuthorTotals{}
	for _, p := range s.posts {
		if p.AuthorID != authorID {
			continue
		}
		if p.IsPublished() {
			totals.PublishedCount++
		} else {
			totals.DraftCount++
		}
		totals.TotalViews += p.ViewCount
		totals.TotalLikes += p.LikeCount
		totals.TotalComments += p.CommentCount
	}
	return totals, nil
}

func (m *MockPostRepository) SiteStats(ctx context.Context) (*models.SiteStats, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.SiteStats{}
	authors := make(map[string]bool)
	for _, p := range s.posts {
		if !p.IsPublished() {
			continue
		}
		stats.PublishedPosts++
		stats.Likes += p.LikeCount
		stats.Views += p.ViewCount
		authors[p.AuthorID] = true
	}
	stats.Authors = int64(len(authors))
	for _, c := range s.comments {
		if p, ok := s.posts[c.PostID]; ok && p.IsPublished() && !c.Hidden {
			stats.Comments++
		}
	}
	return stats, nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	store *Store
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[comment.PostID]
	if !ok {
		return apperror.NotFound("post", comment.PostID)
	}
	if comment.ParentID != nil {
		parent, ok := s.comments[*comment.ParentID]
		if !ok {
			return apperror.InvalidParent("parent comment does not exist: " + *comment.ParentID)
		}
		if parent.PostID != comment.PostID {
			return apperror.InvalidParent("parent comment belongs to another post")
		}
	}

	s.comments[comment.ID] = comment.Clone()
	post.CommentCount++
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.comments[id]; ok {
		return c.Clone(), nil
	}
	return nil, apperror.NotFound("comment", id)
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commentsOf(postID), nil
}

func (m *MockCommentRepository) SetHidden(ctx context.Context, id string, hidden bool) (*models.Comment, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment", id)
	}
	c.Hidden = hidden
	c.UpdatedAt = time.Now()
	return c.Clone(), nil
}

func (m *MockCommentRepository) DeleteSubtree(ctx context.Context, id string) (int64, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return 0, apperror.NotFound("comment", id)
	}

	ids := thread.Build(s.commentsOf(c.PostID)).Subtree(id)
	for _, cid := range ids {
		delete(s.comments, cid)
	}
	if post, ok := s.posts[c.PostID]; ok {
		post.CommentCount -= int64(len(ids))
		if post.CommentCount < 0 {
			post.CommentCount = 0
		}
	}
	return int64(len(ids)), nil
}

func (m *MockCommentRepository) RecentOnAuthorPosts(ctx context.Context, authorID string, limit int) ([]*models.Comment, error) {
	s := m.store
	s.mu.RLock()
	var out []*models.Comment
	for _, c := range s.comments {
		if p, ok := s.posts[c.PostID]; ok && p.AuthorID == authorID && !c.Hidden {
			out = append(out, c.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// commentsOf must be called with the lock held
func (s *Store) commentsOf(postID string) []*models.Comment {
	out := []*models.Comment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c.Clone())
		}
	}
	return out
}

// MockLikeRepository is a mock implementation of LikeRepository
type MockLikeRepository struct {
	store *Store
}

func (m *MockLikeRepository) Toggle(ctx context.Context, userID, postID string) (models.LikeState, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return models.LikeState{}, apperror.NotFound("post", postID)
	}

	key := likeKey{userID, postID}
	if _, liked := s.likes[key]; liked {
		delete(s.likes, key)
		if post.LikeCount > 0 {
			post.LikeCount--
		}
		return models.LikeState{Liked: false, LikeCount: post.LikeCount}, nil
	}

	s.likes[key] = time.Now()
	post.LikeCount++
	return models.LikeState{Liked: true, LikeCount: post.LikeCount}, nil
}

func (m *MockLikeRepository) Exists(ctx context.Context, userID, postID string) (bool, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.likes[likeKey{userID, postID}]
	return ok, nil
}

// MockViewRepository is a mock implementation of ViewRepository
type MockViewRepository struct {
	store *Store
}

func (m *MockViewRepository) Record(ctx context.Context, postID, sessionID string, now time.Time, cooldown time.Duration) (int64, bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[postID]
	if !ok {
		return 0, false, apperror.NotFound("post", postID)
	}
	if !post.IsPublished() {
		return post.ViewCount, false, nil
	}

	key := viewKey{postID, sessionID}
	if last, seen := s.views[key]; seen && last.After(now.Add(-cooldown)) {
		return post.ViewCount, false, nil
	}
	s.views[key] = now
	post.ViewCount++
	return post.ViewCount, true, nil
}
