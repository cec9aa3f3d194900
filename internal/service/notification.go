package service

import (
	"context"
	"fmt"
	"log"

	"inkstream/internal/model"
	"inkstream/internal/pagination"
	"inkstream/internal/repository"
)

type NotificationService struct {
	notifRepo repository.NotificationRepository
}

func NewNotificationService(notifRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifRepo: notifRepo}
}

// HasUnseen answers the badge poll: is there anything new from someone else.
func (s *NotificationService) HasUnseen(ctx context.Context, userID int64) (*model.UnseenResponse, error) {
	unseen, err := s.notifRepo.HasUnseen(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.UnseenResponse{NewNotificationAvailable: unseen}, nil
}

// List returns one page of the caller's notifications, filtered by kind, with
// the deletion-corrected offset. Returning a page marks its items seen; a
// failure to mark is logged, not surfaced, since the page itself is intact.
func (s *NotificationService) List(ctx context.Context, userID int64, kind string, page, deletedCount int) (*model.NotificationListResponse, error) {
	if !model.ValidNotificationFilter(kind) {
		kind = model.NotificationFilterAll
	}

	req := pagination.Request{
		Page:         page,
		PageSize:     pagination.NotificationPageSize,
		DeletedCount: deletedCount,
	}

	notifications, err := s.notifRepo.List(ctx, userID, kind, req.Offset(), req.Limit())
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	total, err := s.notifRepo.Count(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}

	if len(notifications) > 0 {
		ids := make([]int64, 0, len(notifications))
		for _, n := range notifications {
			if !n.Seen {
				ids = append(ids, n.ID)
			}
		}
		if err := s.notifRepo.MarkSeen(ctx, userID, ids); err != nil {
			log.Printf("[NotificationService] Failed to mark notifications seen for user %d: %v", userID, err)
		}
	}

	if page < 1 {
		page = 1
	}
	return &model.NotificationListResponse{
		Notifications: notifications,
		TotalDocs:     total,
		Page:          page,
	}, nil
}

// Count returns the caller's total for the given kind filter.
func (s *NotificationService) Count(ctx context.Context, userID int64, kind string) (*model.CountResponse, error) {
	if !model.ValidNotificationFilter(kind) {
		kind = model.NotificationFilterAll
	}
	total, err := s.notifRepo.Count(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}
	return &model.CountResponse{TotalDocs: total}, nil
}
