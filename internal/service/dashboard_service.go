package service

import (
	"context"
	"strings"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/repository"
	"github.com/blog-engagement-engine/internal/search"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// dashboardService is the concrete implementation of DashboardService.
// Every call reads the current store state; nothing is cached.
type dashboardService struct {
	posts       repository.PostRepository
	comments    CommentService
	search      SearchService
	topK        int
	recentLimit int
	log         zerolog.Logger
}

func newDashboardService(posts repository.PostRepository, comments CommentService, searchSvc SearchService, topK, recentLimit int, log zerolog.Logger) *dashboardService {
	return &dashboardService{
		posts:       posts,
		comments:    comments,
		search:      searchSvc,
		topK:        topK,
		recentLimit: recentLimit,
		log:         log.With().Str("service", "dashboard").Logger(),
	}
}

// StatsFor aggregates one author's posts. The totals, the top posts and
// the recent comments are independent reads and run concurrently.
func (s *dashboardService) StatsFor(ctx context.Context, authorID string) (*models.AuthorStats, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return nil, apperror.Validation("author_id", "author_id is required")
	}

	var (
		totals *models.AuthorTotals
		top    *models.PostPage
		recent []*models.Comment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.posts.AuthorTotals(gctx, authorID)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = s.search.Search(gctx, search.Query{
			Author:   authorID,
			Status:   search.StatusOwn,
			Viewer:   authorID,
			Sort:     search.SortViews,
			PageSize: s.topK,
		})
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.comments.RecentOnAuthorPosts(gctx, authorID, s.recentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Str("author_id", authorID).Msg("Failed to compute author stats")
		return nil, err
	}

	return &models.AuthorStats{
		AuthorID:       authorID,
		DraftCount:     totals.DraftCount,
		PublishedCount: totals.PublishedCount,
		TotalViews:     totals.TotalViews,
		TotalLikes:     totals.TotalLikes,
		TotalComments:  totals.TotalComments,
		TopPosts:       top.Posts,
		RecentComments: recent,
	}, nil
}

// SiteStats reports platform-wide totals over published content
func (s *dashboardService) SiteStats(ctx context.Context) (*models.SiteStats, error) {
	return s.posts.SiteStats(ctx)
}
