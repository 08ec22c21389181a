package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelForum/app/models"
	"github.com/ManuelReschke/PixelForum/app/repository"
	"github.com/ManuelReschke/PixelForum/internal/pkg/cache"
	"github.com/ManuelReschke/PixelForum/internal/pkg/metrics"
)

// commentCountTTL bounds how long a count cached by another instance can lag
const commentCountTTL = time.Minute

// CommentService enforces the comment rules independent of transport:
// non-empty content and owner-only mutation.
type CommentService struct {
	comments repository.CommentRepository
	counts   cache.CountStore
	metrics  *metrics.CommentMetrics
	now      func() time.Time

	// invalidations counts count invalidations, to detect a mutation that
	// ran while CountForPost was reading
	invalidations atomic.Uint64
}

// NewCommentService creates a comment service. counts and m may be nil.
func NewCommentService(comments repository.CommentRepository, counts cache.CountStore, m *metrics.CommentMetrics) *CommentService {
	return &CommentService{
		comments: comments,
		counts:   counts,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns all comments of a post, oldest first. A post without
// comments yields an empty slice.
func (s *CommentService) List(ctx context.Context, postID uint) (views []models.CommentView, err error) {
	defer s.observe("list", time.Now(), &err)

	views, err = s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("%w: list comments of post %d: %w", ErrStore, postID, err)
	}
	return views, nil
}

// Create stores a comment authored by authorID and returns it joined with
// the author's display fields. Content is stored exactly as given.
func (s *CommentService) Create(ctx context.Context, postID, authorID uint, content string) (view *models.CommentView, err error) {
	defer s.observe("create", time.Now(), &err)

	if models.IsBlankContent(content) {
		return nil, ErrValidation
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  authorID,
		Content: content,
	}
	if err = s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, fmt.Errorf("%w: post %d", ErrNotFound, postID)
		}
		return nil, fmt.Errorf("%w: create comment: %w", ErrStore, err)
	}
	s.invalidateCount(ctx, postID)

	view, err = s.comments.GetViewByID(ctx, comment.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: load comment %d: %w", ErrStore, comment.ID, err)
	}
	return view, nil
}

// Update replaces the content of a comment owned by callerID and advances
// its updated_at.
func (s *CommentService) Update(ctx context.Context, commentID, callerID uint, content string) (err error) {
	defer s.observe("update", time.Now(), &err)

	if models.IsBlankContent(content) {
		return ErrValidation
	}
	if _, err = s.authorize(ctx, commentID, callerID); err != nil {
		return err
	}

	affected, err := s.comments.UpdateContent(ctx, commentID, callerID, content, s.now())
	if err != nil {
		return fmt.Errorf("%w: update comment %d: %w", ErrStore, commentID, err)
	}
	// the row vanished between the owner check and the update
	if affected == 0 {
		return fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
	}
	return nil
}

// Delete permanently removes a comment owned by callerID.
func (s *CommentService) Delete(ctx context.Context, commentID, callerID uint) (err error) {
	defer s.observe("delete", time.Now(), &err)

	comment, err := s.authorize(ctx, commentID, callerID)
	if err != nil {
		return err
	}

	affected, err := s.comments.Delete(ctx, commentID, callerID)
	if err != nil {
		return fmt.Errorf("%w: delete comment %d: %w", ErrStore, commentID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
	}
	s.invalidateCount(ctx, comment.PostID)
	return nil
}

// CountForPost returns the number of comments of a post, served from the
// count cache when possible. The cached value is only invalidated after
// mutations, so it may briefly lag behind List.
func (s *CommentService) CountForPost(ctx context.Context, postID uint) (int64, error) {
	key := cache.CommentCountKey(postID)
	if s.counts != nil {
		if n, ok, err := s.counts.GetCount(ctx, key); err == nil && ok {
			return n, nil
		} else if err != nil {
			log.Printf("comment count cache read failed for post %d: %v", postID, err)
		}
	}

	seen := s.invalidations.Load()
	n, err := s.comments.CountByPost(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("%w: count comments of post %d: %w", ErrStore, postID, err)
	}
	if s.counts != nil {
		if err := s.counts.SetCount(ctx, key, n, commentCountTTL); err != nil {
			log.Printf("comment count cache write failed for post %d: %v", postID, err)
		}
		// a create or delete invalidated while we counted; n may be stale
		if s.invalidations.Load() != seen {
			s.dropCount(ctx, postID)
		}
	}
	return n, nil
}

// authorize reads the owner of a comment and compares it to callerID.
func (s *CommentService) authorize(ctx context.Context, commentID, callerID uint) (*models.Comment, error) {
	comment, err := s.comments.GetOwnership(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
		}
		return nil, fmt.Errorf("%w: load comment %d: %w", ErrStore, commentID, err)
	}
	if comment.UserID != callerID {
		return nil, fmt.Errorf("%w: comment %d belongs to another user", ErrPermission, commentID)
	}
	return comment, nil
}

func (s *CommentService) invalidateCount(ctx context.Context, postID uint) {
	s.invalidations.Add(1)
	s.dropCount(ctx, postID)
}

func (s *CommentService) dropCount(ctx context.Context, postID uint) {
	if s.counts == nil {
		return
	}
	if err := s.counts.Invalidate(ctx, cache.CommentCountKey(postID)); err != nil {
		log.Printf("comment count cache invalidation failed for post %d: %v", postID, err)
	}
}

func (s *CommentService) observe(operation string, started time.Time, err *error) {
	s.metrics.Observe(operation, outcomeOf(*err), started)
}
