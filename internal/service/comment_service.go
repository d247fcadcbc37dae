package service

import (
	"context"
	"iter"
	"strings"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/blog-engagement-engine/internal/metrics"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/blog-engagement-engine/internal/repository"
	"github.com/blog-engagement-engine/internal/thread"
	"github.com/blog-engagement-engine/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	comments  repository.CommentRepository
	posts     repository.PostRepository
	validator *validation.Validator
	clock     Clock
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func newCommentService(repos *repository.Repositories, validator *validation.Validator, o options, log zerolog.Logger) *commentService {
	return &commentService{
		comments:  repos.Comment,
		posts:     repos.Post,
		validator: validator,
		clock:     o.clock,
		metrics:   o.metrics,
		log:       log.With().Str("service", "comment").Logger(),
	}
}

// Add creates a comment, optionally as a reply to a comment on the same post
func (s *commentService) Add(ctx context.Context, in *models.NewComment) (*models.Comment, error) {
	if !validation.IsValidID(in.PostID) {
		return nil, apperror.NotFound("post", in.PostID)
	}
	if in.ParentID != nil && !validation.IsValidID(*in.ParentID) {
		return nil, apperror.InvalidParent("parent comment does not exist: " + *in.ParentID)
	}
	if err := validation.Err(s.validator.ValidateComment(in)); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	comment := &models.Comment{
		ID:        uuid.NewString(),
		PostID:    in.PostID,
		ParentID:  in.ParentID,
		AuthorID:  strings.TrimSpace(in.AuthorID),
		Body:      strings.TrimSpace(in.Body),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.metrics.CommentsCreated.Inc()
	s.log.Info().
		Str("comment_id", comment.ID).
		Str("post_id", comment.PostID).
		Bool("reply", !comment.IsTopLevel()).
		Msg("Comment added")

	return comment, nil
}

// ListThread loads the post's comments once and returns a lazy depth-first
// walk over them.
func (s *commentService) ListThread(ctx context.Context, postID string, opts ThreadOptions) (iter.Seq2[*models.Comment, int], error) {
	if !validation.IsValidID(postID) {
		return nil, apperror.NotFound("post", postID)
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return thread.Build(comments).Walk(opts.IncludeHidden), nil
}

// Moderate hides or reveals a comment; its replies are unaffected
func (s *commentService) Moderate(ctx context.Context, commentID string, hidden bool) (*models.Comment, error) {
	if !validation.IsValidID(commentID) {
		return nil, apperror.NotFound("comment", commentID)
	}

	comment, err := s.comments.SetHidden(ctx, commentID, hidden)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("comment_id", commentID).Bool("hidden", hidden).Msg("Comment moderated")
	return comment, nil
}

// Delete removes a comment and its whole reply subtree
func (s *commentService) Delete(ctx context.Context, commentID string) (int64, error) {
	if !validation.IsValidID(commentID) {
		return 0, apperror.NotFound("comment", commentID)
	}

	removed, err := s.comments.DeleteSubtree(ctx, commentID)
	if err != nil {
		return 0, err
	}

	s.metrics.CommentsDeleted.Add(float64(removed))
	s.log.Info().Str("comment_id", commentID).Int64("removed", removed).Msg("Comment subtree deleted")
	return removed, nil
}

// RecentOnAuthorPosts lists the newest visible comments on an author's posts
func (s *commentService) RecentOnAuthorPosts(ctx context.Context, authorID string, limit int) ([]*models.Comment, error) {
	if limit < 1 {
		return []*models.Comment{}, nil
	}
	return s.comments.RecentOnAuthorPosts(ctx, authorID, limit)
}
