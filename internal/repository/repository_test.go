package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/blog-engagement-engine/internal/mocks"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func seed(t *testing.T, repos *repository.Repositories, id, slug string, status models.PostStatus) {
	t.Helper()
	p := &models.Post{ID: id, Title: id, Slug: slug, Body: "body", AuthorID: "author-1", Status: status, CreatedAt: now}
	if status == models.PostStatusPublished {
		p.PublishedAt = &now
	}
	require.NoError(t, repos.Post.Create(context.Background(), p))
}

func TestMockPostRepository_SlugUniqueness(t *testing.T) {
	repos := mocks.NewStore().Repositories()
	ctx := context.Background()
	seed(t, repos, "p1", "hello", models.PostStatusPublished)

	err := repos.Post.Create(ctx, &models.Post{ID: "p2", Slug: "hello"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	exists, err := repos.Post.SlugExists(ctx, "hello", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repos.Post.SlugExists(ctx, "hello", "p1")
	require.NoError(t, err)
	assert.False(t, exists, "a post does not collide with itself")
}

func TestMockPostRepository_UpdateKeepsCounters(t *testing.T) {
	store := mocks.NewStore()
	repos := store.Repositories()
	ctx := context.Background()
	seed(t, repos, "p1", "hello", models.PostStatusPublished)

	_, err := repos.Like.Toggle(ctx, "u1", "p1")
	require.NoError(t, err)

	stale := &models.Post{ID: "p1", Title: "Renamed", Slug: "renamed", Status: models.PostStatusPublished}
	require.NoError(t, repos.Post.Update(ctx, stale))

	got, err := repos.Post.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, int64(1), got.LikeCount)

	assert.ErrorIs(t, repos.Post.Update(ctx, &models.Post{ID: "missing"}), apperror.ErrNotFound)
}

func TestMockPostRepository_DeleteCascades(t *testing.T) {
	store := mocks.NewStore()
	repos := store.Repositories()
	ctx := context.Background()
	seed(t, repos, "p1", "hello", models.PostStatusPublished)

	require.NoError(t, repos.Comment.Create(ctx, &models.Comment{ID: "c1", PostID: "p1", Body: "hi", CreatedAt: now}))
	_, err := repos.Like.Toggle(ctx, "u1", "p1")
	require.NoError(t, err)

	require.NoError(t, repos.Post.Delete(ctx, "p1"))
	assert.Zero(t, store.CommentRows("p1"))
	assert.Zero(t, store.LikeRows("p1"))
	assert.ErrorIs(t, repos.Post.Delete(ctx, "p1"), apperror.ErrNotFound)
}

func TestMockCommentRepository_ParentRules(t *testing.T) {
	repos := mocks.NewStore().Repositories()
	ctx := context.Background()
	seed(t, repos, "p1", "one", models.PostStatusPublished)
	seed(t, repos, "p2", "two", models.PostStatusPublished)
	require.NoError(t, repos.Comment.Create(ctx, &models.Comment{ID: "c1", PostID: "p1", Body: "root", CreatedAt: now}))

	other := "c1"
	err := repos.Comment.Create(ctx, &models.Comment{ID: "c2", PostID: "p2", ParentID: &other, Body: "x"})
	assert.ErrorIs(t, err, apperror.ErrInvalidParent)

	missing := "nope"
	err = repos.Comment.Create(ctx, &models.Comment{ID: "c3", PostID: "p1", ParentID: &missing, Body: "x"})
	assert.ErrorIs(t, err, apperror.ErrInvalidParent)

	err = repos.Comment.Create(ctx, &models.Comment{ID: "c4", PostID: "ghost", Body: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMockCommentRepository_DeleteSubtree(t *testing.T) {
	store := mocks.NewStore()
	repos := store.Repositories()
	ctx := context.Background()
	seed(t, repos, "p1", "one", models.PostStatusPublished)

	root, reply := "c1", "c2"
	require.NoError(t, repos.Comment.Create(ctx, &models.Comment{ID: "c1", PostID: "p1", Body: "a", CreatedAt: now}))
	require.NoError(t, repos.Comment.Create(ctx, &models.Comment{ID: "c2", PostID: "p1", ParentID: &root, Body: "b", CreatedAt: now}))
	require.NoError(t, repos.Comment.Create(ctx, &models.Comment{ID: "c3", PostID: "p1", ParentID: &reply, Body: "c", CreatedAt: now}))
	require.NoError(t, repos.Comment.Create(ctx, &models.Comment{ID: "c4", PostID: "p1", Body: "d", CreatedAt: now}))
	assert.Equal(t, int64(4), store.Post("p1").CommentCount)

	removed, err := repos.Comment.DeleteSubtree(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.Equal(t, int64(1), store.Post("p1").CommentCount)
	assert.Equal(t, 1, store.CommentRows("p1"))

	_, err = repos.Comment.DeleteSubtree(ctx, "c1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMockLikeRepository_ConcurrentToggles(t *testing.T) {
	store := mocks.NewStore()
	repos := store.Repositories()
	seed(t, repos, "p1", "one", models.PostStatusPublished)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := "user-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
			_, err := repos.Like.Toggle(context.Background(), user, "p1")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(50), store.Post("p1").LikeCount)
	assert.Equal(t, 50, store.LikeRows("p1"))
}

func TestMockLikeRepository_ConcurrentTogglesSameUser(t *testing.T) {
	for _, n := range []int{20, 21} {
		store := mocks.NewStore()
		repos := store.Repositories()
		seed(t, repos, "p1", "one", models.PostStatusPublished)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repos.Like.Toggle(context.Background(), "same-user", "p1")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		liked, err := repos.Like.Exists(context.Background(), "same-user", "p1")
		require.NoError(t, err)
		assert.Equal(t, n%2 == 1, liked, "n=%d", n)
		assert.Equal(t, int64(n%2), store.Post("p1").LikeCount, "n=%d", n)
		assert.Equal(t, n%2, store.LikeRows("p1"), "n=%d", n)
	}
}

func TestMockViewRepository_Cooldown(t *testing.T) {
	store := mocks.NewStore()
	repos := store.Repositories()
	ctx := context.Background()
	seed(t, repos, "p1", "one", models.PostStatusPublished)
	seed(t, repos, "d1", "draft", models.PostStatusDraft)

	count, counted, err := repos.View.Record(ctx, "p1", "s1", now, time.Hour)
	require.NoError(t, err)
	assert.True(t, counted)
	assert.Equal(t, int64(1), count)

	_, counted, err = repos.View.Record(ctx, "p1", "s1", now.Add(59*time.Minute), time.Hour)
	require.NoError(t, err)
	assert.False(t, counted)

	count, counted, err = repos.View.Record(ctx, "p1", "s1", now.Add(time.Hour), time.Hour)
	require.NoError(t, err)
	assert.True(t, counted)
	assert.Equal(t, int64(2), count)

	count, counted, err = repos.View.Record(ctx, "d1", "s1", now, time.Hour)
	require.NoError(t, err)
	assert.False(t, counted)
	assert.Zero(t, count)
}
