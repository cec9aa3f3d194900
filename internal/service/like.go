package service

import (
	"context"
	"errors"
	"log"

	"github.com/jmoiron/sqlx"

	"inkstream/internal/database"
	"inkstream/internal/model"
	"inkstream/internal/queue"
	"inkstream/internal/repository"
)

// LikeService toggles and reports the liked state of posts. The live like
// notification row for (actor, post) is the single source of truth: the
// like_count column is only ever moved in the same transaction that creates
// or removes that row.
type LikeService struct {
	postRepo  repository.PostRepository
	notifRepo repository.NotificationRepository
	tx        database.TxRunner
	publisher queue.Publisher
}

func NewLikeService(
	postRepo repository.PostRepository,
	notifRepo repository.NotificationRepository,
	tx database.TxRunner,
	publisher queue.Publisher,
) *LikeService {
	return &LikeService{
		postRepo:  postRepo,
		notifRepo: notifRepo,
		tx:        tx,
		publisher: publisher,
	}
}

// Toggle flips the caller's liked state. likedByUser is the client's view of
// the current state: false means "like now", true means "unlike now". The
// store decides the real outcome; a duplicate like or a missing unlike is a
// quiet no-op, so repeated or racing toggles converge instead of skewing the
// counter.
func (s *LikeService) Toggle(ctx context.Context, blogID string, userID int64, likedByUser bool) (*model.LikedStateResponse, error) {
	meta, err := s.postRepo.GetMeta(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if meta.Draft {
		return nil, model.ErrDraftAccess
	}

	if !likedByUser {
		err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
			if err := s.notifRepo.CreateLike(ctx, tx, meta.ID, meta.AuthorID, userID); err != nil {
				return err
			}
			return s.postRepo.AdjustActivity(ctx, tx, meta.ID, model.ActivityTotalLikes, 1)
		})
		if err != nil && !errors.Is(err, model.ErrAlreadyLiked) {
			return nil, err
		}
		if errors.Is(err, model.ErrAlreadyLiked) {
			log.Printf("[LikeService] User %d re-liked post %d, no-op", userID, meta.ID)
		} else {
			log.Printf("[LikeService] User %d liked post %d", userID, meta.ID)
			s.publish(ctx, queue.NewPostLikedEvent(meta.ID, userID))
		}
		return &model.LikedStateResponse{LikedByUser: true}, nil
	}

	var existed bool
	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		existed, err = s.notifRepo.DeleteLike(ctx, tx, meta.ID, userID)
		if err != nil {
			return err
		}
		if !existed {
			// Nothing to remove; leaving the counter alone keeps it honest.
			return nil
		}
		return s.postRepo.AdjustActivity(ctx, tx, meta.ID, model.ActivityTotalLikes, -1)
	})
	if err != nil {
		return nil, err
	}
	if existed {
		log.Printf("[LikeService] User %d unliked post %d", userID, meta.ID)
		s.publish(ctx, queue.NewPostUnlikedEvent(meta.ID, userID))
	} else {
		log.Printf("[LikeService] User %d un-liked post %d that was not liked, no-op", userID, meta.ID)
	}
	return &model.LikedStateResponse{LikedByUser: false}, nil
}

// IsLiked reports whether the caller currently likes the post.
func (s *LikeService) IsLiked(ctx context.Context, blogID string, userID int64) (*model.LikedStateResponse, error) {
	meta, err := s.postRepo.GetMeta(ctx, blogID)
	if err != nil {
		return nil, err
	}
	liked, err := s.notifRepo.LikeExists(ctx, meta.ID, userID)
	if err != nil {
		return nil, err
	}
	return &model.LikedStateResponse{LikedByUser: liked}, nil
}

func (s *LikeService) publish(ctx context.Context, event queue.EngagementEvent) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, queue.StreamEngagement, event); err != nil {
		log.Printf("[LikeService] Failed to publish %s event: %v", event.Type, err)
	}
}
