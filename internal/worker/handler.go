package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"inkstream/internal/model"
	"inkstream/internal/queue"
)

// ActivityStore reads and repairs a post's stored counters.
// Abstracts the repository layer so workers don't depend on DB directly.
type ActivityStore interface {
	GetActivity(ctx context.Context, postID int64) (*model.Activity, error)
	SetCommentCounts(ctx context.Context, postID int64, total, parents int) error
	SetLikeCount(ctx context.Context, postID int64, likes int) error
}

// CommentCounter counts a post's live comment rows.
type CommentCounter interface {
	CountLive(ctx context.Context, postID int64) (total, parents int, err error)
}

// LikeCounter counts a post's live like rows.
type LikeCounter interface {
	CountLikes(ctx context.Context, postID int64) (int, error)
}

// Handler reconciles engagement events against the stored counters. Every
// event triggers a recount of the affected post from its live rows; when the
// stored counter disagrees the handler repairs it and logs the drift.
type Handler struct {
	activity ActivityStore
	comments CommentCounter
	likes    LikeCounter
}

// NewHandler creates a new event handler.
func NewHandler(activity ActivityStore, comments CommentCounter, likes LikeCounter) *Handler {
	return &Handler{
		activity: activity,
		comments: comments,
		likes:    likes,
	}
}

// HandleEvent routes an event to the appropriate reconciler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.EngagementEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventCommentAdded, queue.EventCommentDeleted:
		err = h.reconcileComments(ctx, event.PostID)
	case queue.EventPostLiked, queue.EventPostUnliked:
		err = h.reconcileLikes(ctx, event.PostID)
	case queue.EventPostDeleted:
		// Post and its rows are gone; nothing left to reconcile.
		log.Printf("[Worker] PostDeleted: post=%d, skipping", event.PostID)
		return nil
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s post=%d duration=%v err=%v",
			event.Type, event.PostID, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s post=%d duration=%v", event.Type, event.PostID, time.Since(startTime))
	return nil
}

// reconcileComments recounts a post's live comments and repairs the stored
// counters if they drifted.
func (h *Handler) reconcileComments(ctx context.Context, postID int64) error {
	activity, err := h.activity.GetActivity(ctx, postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			// Deleted between the event and now.
			return nil
		}
		return fmt.Errorf("get activity: %w", err)
	}

	total, parents, err := h.comments.CountLive(ctx, postID)
	if err != nil {
		return fmt.Errorf("count live comments: %w", err)
	}

	if activity.TotalComments == total && activity.TotalParentComments == parents {
		return nil
	}

	log.Printf("[Worker] Comment counter drift on post=%d: stored=%d/%d live=%d/%d, repairing",
		postID, activity.TotalComments, activity.TotalParentComments, total, parents)

	if err := h.activity.SetCommentCounts(ctx, postID, total, parents); err != nil {
		return fmt.Errorf("repair comment counts: %w", err)
	}
	return nil
}

// reconcileLikes recounts a post's live like rows and repairs the stored
// counter if it drifted.
func (h *Handler) reconcileLikes(ctx context.Context, postID int64) error {
	activity, err := h.activity.GetActivity(ctx, postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			return nil
		}
		return fmt.Errorf("get activity: %w", err)
	}

	likes, err := h.likes.CountLikes(ctx, postID)
	if err != nil {
		return fmt.Errorf("count likes: %w", err)
	}

	if activity.TotalLikes == likes {
		return nil
	}

	log.Printf("[Worker] Like counter drift on post=%d: stored=%d live=%d, repairing",
		postID, activity.TotalLikes, likes)

	if err := h.activity.SetLikeCount(ctx, postID, likes); err != nil {
		return fmt.Errorf("repair like count: %w", err)
	}
	return nil
}
