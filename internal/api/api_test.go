package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blog-engagement-engine/internal/api"
	"github.com/blog-engagement-engine/internal/config"
	"github.com/blog-engagement-engine/internal/metrics"
	"github.com/blog-engagement-engine/internal/mocks"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) HealthCheck(ctx context.Context) error { return p.err }

type testServer struct {
	router *gin.Engine
	store  *mocks.Store
}

func setupTestRouter(t *testing.T, db api.HealthChecker) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := mocks.NewStore()
	cfg := config.Default()
	m := metrics.New(false)
	// each reading moves time forward so creation order is publication order
	var mu sync.Mutex
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
	services := service.NewServices(store.Repositories(), cfg, zerolog.Nop(), service.WithMetrics(m), service.WithClock(clock))

	return &testServer{router: api.NewRouter(services, cfg, m, db, zerolog.Nop()), store: store}
}

func (s *testServer) do(t *testing.T, method, url string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) createPost(t *testing.T, title, author string, published bool) models.Post {
	t.Helper()
	in := models.NewPost{Title: title, Body: "Body of " + title, Tags: []string{"go"}}
	if published {
		in.Status = models.PostStatusPublished
	}
	w := s.do(t, http.MethodPost, "/v1/posts", in, map[string]string{"X-User-ID": author})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Post](t, w)
}

func TestHealthEndpoint(t *testing.T) {
	s := setupTestRouter(t, pinger{})
	w := s.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	response := decode[map[string]interface{}](t, w)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "blog-engagement-engine", response["service"])

	s = setupTestRouter(t, pinger{err: errors.New("connection refused")})
	w = s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestRouter(t, nil)
	post := s.createPost(t, "Counted", "a1", true)
	s.do(t, http.MethodPost, "/v1/posts/"+post.ID+"/views", nil, map[string]string{"X-Session-ID": "s1"})

	w := s.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "blog_engagement_posts_created_total 1")
	assert.Contains(t, w.Body.String(), `blog_engagement_views_total{outcome="counted"} 1`)
}

func TestPostLifecycle(t *testing.T) {
	s := setupTestRouter(t, nil)
	post := s.createPost(t, "Hello, World!", "a1", false)

	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, "a1", post.AuthorID)
	assert.Equal(t, models.PostStatusDraft, post.Status)

	w := s.do(t, http.MethodPatch, "/v1/posts/"+post.ID, map[string]string{"status": "published"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotNil(t, decode[models.Post](t, w).PublishedAt)

	w = s.do(t, http.MethodGet, "/v1/slugs/hello-world", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, post.ID, decode[models.Post](t, w).ID)

	w = s.do(t, http.MethodDelete, "/v1/posts/"+post.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/v1/posts/"+post.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorMapping(t *testing.T) {
	s := setupTestRouter(t, nil)
	post := s.createPost(t, "Target", "a1", true)
	other := s.createPost(t, "Other", "a1", true)

	w := s.do(t, http.MethodPost, "/v1/posts/"+other.ID+"/comments", map[string]string{"body": "root"}, map[string]string{"X-User-ID": "r"})
	require.Equal(t, http.StatusCreated, w.Code)
	foreign := decode[models.Comment](t, w)

	tests := []struct {
		name           string
		method         string
		url            string
		body           interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "missing title",
			method:         http.MethodPost,
			url:            "/v1/posts",
			body:           map[string]string{"body": "b", "author_id": "a1"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION",
		},
		{
			name:           "unknown sort",
			method:         http.MethodGet,
			url:            "/v1/search?sort=loudest",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_SORT",
		},
		{
			name:           "relevance without text",
			method:         http.MethodGet,
			url:            "/v1/search?sort=relevance",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_SORT",
		},
		{
			name:           "parent on another post",
			method:         http.MethodPost,
			url:            "/v1/posts/" + post.ID + "/comments",
			body:           map[string]string{"body": "reply", "author_id": "r", "parent_id": foreign.ID},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "INVALID_PARENT",
		},
		{
			name:           "unknown post",
			method:         http.MethodGet,
			url:            "/v1/posts/not-a-post",
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
		{
			name:           "like without user",
			method:         http.MethodPost,
			url:            "/v1/posts/" + post.ID + "/like",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION",
		},
		{
			name:           "non-integer page",
			method:         http.MethodGet,
			url:            "/v1/search?page=two",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.url, tt.body, nil)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedCode, decode[map[string]interface{}](t, w)["code"])
		})
	}
}

func TestCommentThreadEndpoint(t *testing.T) {
	s := setupTestRouter(t, nil)
	post := s.createPost(t, "Discussed", "a1", true)
	reader := map[string]string{"X-User-ID": "reader"}

	w := s.do(t, http.MethodPost, "/v1/posts/"+post.ID+"/comments", map[string]string{"body": "root"}, reader)
	require.Equal(t, http.StatusCreated, w.Code)
	root := decode[models.Comment](t, w)

	w = s.do(t, http.MethodPost, "/v1/posts/"+post.ID+"/comments", map[string]string{"body": "reply", "parent_id": root.ID}, reader)
	require.Equal(t, http.StatusCreated, w.Code)

	type threadResponse struct {
		Count    int                  `json:"count"`
		Comments []models.ThreadEntry `json:"comments"`
	}

	w = s.do(t, http.MethodGet, "/v1/posts/"+post.ID+"/comments", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	thread := decode[threadResponse](t, w)
	require.Equal(t, 2, thread.Count)
	assert.Equal(t, "root", thread.Comments[0].Comment.Body)
	assert.Equal(t, 1, thread.Comments[1].Depth)

	// moderation needs elevation
	w = s.do(t, http.MethodPut, "/v1/comments/"+root.ID+"/moderation", map[string]bool{"hidden": true}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	elevated := map[string]string{"X-Elevated": "true"}
	w = s.do(t, http.MethodPut, "/v1/comments/"+root.ID+"/moderation", map[string]bool{"hidden": true}, elevated)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/v1/posts/"+post.ID+"/comments?include_hidden=true", nil, nil)
	assert.Equal(t, 1, decode[threadResponse](t, w).Count)
	w = s.do(t, http.MethodGet, "/v1/posts/"+post.ID+"/comments?include_hidden=true", nil, elevated)
	assert.Equal(t, 2, decode[threadResponse](t, w).Count)

	w = s.do(t, http.MethodDelete, "/v1/comments/"+root.ID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]interface{}](t, w)["removed"])
	assert.Zero(t, s.store.Post(post.ID).CommentCount)
}

func TestLikeAndViewEndpoints(t *testing.T) {
	s := setupTestRouter(t, nil)
	post := s.createPost(t, "Engaging", "a1", true)
	user := map[string]string{"X-User-ID": "u1"}

	w := s.do(t, http.MethodPost, "/v1/posts/"+post.ID+"/like", nil, user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.LikeState{Liked: true, LikeCount: 1}, decode[models.LikeState](t, w))

	w = s.do(t, http.MethodGet, "/v1/posts/"+post.ID+"/like", nil, user)
	assert.Equal(t, true, decode[map[string]interface{}](t, w)["liked"])

	session := map[string]string{"X-Session-ID": "s1"}
	for i := 0; i < 3; i++ {
		w = s.do(t, http.MethodPost, "/v1/posts/"+post.ID+"/views", nil, session)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, float64(1), decode[map[string]interface{}](t, w)["view_count"])
}

func TestSearchAndDiscoveryEndpoints(t *testing.T) {
	s := setupTestRouter(t, nil)
	first := s.createPost(t, "Go Generics", "a1", true)
	second := s.createPost(t, "Go Channels", "a2", true)
	s.createPost(t, "Go Drafts", "a1", false)

	w := s.do(t, http.MethodGet, "/v1/search?q=go&sort=date&page_size=1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page struct {
		Posts      []models.Post `json:"posts"`
		Total      int           `json:"total"`
		TotalPages int           `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, second.ID, page.Posts[0].ID)

	w = s.do(t, http.MethodGet, "/v1/search?status=draft", nil, map[string]string{"X-User-ID": "a1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]interface{}](t, w)["total"])

	w = s.do(t, http.MethodGet, "/v1/posts/"+first.ID+"/related", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), second.ID))

	w = s.do(t, http.MethodGet, "/v1/discover/tags", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tag":"go","posts":2`)

	w = s.do(t, http.MethodGet, "/v1/discover/trending?window=forever", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardEndpoints(t *testing.T) {
	s := setupTestRouter(t, nil)
	s.createPost(t, "Draft", "a1", false)
	post := s.createPost(t, "Live", "a1", true)
	s.do(t, http.MethodPost, "/v1/posts/"+post.ID+"/views", nil, map[string]string{"X-Session-ID": "s1"})

	w := s.do(t, http.MethodGet, "/v1/authors/a1/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.AuthorStats](t, w)
	assert.Equal(t, int64(1), stats.DraftCount)
	assert.Equal(t, int64(1), stats.PublishedCount)
	assert.Equal(t, int64(1), stats.TotalViews)

	w = s.do(t, http.MethodGet, "/v1/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[models.SiteStats](t, w).PublishedPosts)
}
