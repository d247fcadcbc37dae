package service_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/blog-engagement-engine/internal/config"
	"github.com/blog-engagement-engine/internal/metrics"
	"github.com/blog-engagement-engine/internal/mocks"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store   *mocks.Store
	svc     *service.Services
	clock   *fakeClock
	metrics *metrics.Metrics
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   mocks.NewStore(),
		clock:   &fakeClock{now: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)},
		metrics: metrics.New(false),
		cfg:     config.Default(),
	}
	f.svc = service.NewServices(f.store.Repositories(), f.cfg, zerolog.Nop(),
		service.WithClock(f.clock.Now),
		service.WithMetrics(f.metrics),
	)
	return f
}

// publish creates a published post, one minute after the previous one
func (f *fixture) publish(t *testing.T, title, author string, tags ...string) *models.Post {
	t.Helper()
	return f.create(t, models.NewPost{Title: title, Body: "Body of " + title, AuthorID: author, Status: models.PostStatusPublished, Tags: tags})
}

func (f *fixture) draft(t *testing.T, title, author string) *models.Post {
	t.Helper()
	return f.create(t, models.NewPost{Title: title, Body: "Draft body", AuthorID: author})
}

func (f *fixture) create(t *testing.T, in models.NewPost) *models.Post {
	t.Helper()
	f.clock.Advance(time.Minute)
	post, err := f.svc.Post.Create(context.Background(), &in)
	require.NoError(t, err)
	return post
}

func (f *fixture) comment(t *testing.T, postID string, parent *models.Comment, body string) *models.Comment {
	t.Helper()
	f.clock.Advance(time.Second)
	in := &models.NewComment{PostID: postID, AuthorID: "reader", Body: body}
	if parent != nil {
		in.ParentID = &parent.ID
	}
	c, err := f.svc.Comment.Add(context.Background(), in)
	require.NoError(t, err)
	return c
}

func (f *fixture) views(t *testing.T, postID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.svc.View.Record(context.Background(), postID, sessionName(i))
		require.NoError(t, err)
	}
}

func (f *fixture) likes(t *testing.T, postID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.svc.Like.Toggle(context.Background(), "user-"+sessionName(i), postID)
		require.NoError(t, err)
	}
}

func sessionName(i int) string {
	return "s" + strconv.Itoa(i)
}

func ids(posts []*models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}
