package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"inkstream/internal/database"
	"inkstream/internal/model"
	"inkstream/internal/pagination"
	"inkstream/internal/queue"
	"inkstream/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	notifRepo   repository.NotificationRepository
	userRepo    repository.UserRepository
	tx          database.TxRunner
	publisher   queue.Publisher
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	tx database.TxRunner,
	publisher queue.Publisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		notifRepo:   notifRepo,
		userRepo:    userRepo,
		tx:          tx,
		publisher:   publisher,
	}
}

// Create adds a comment or reply to a post. One transaction covers the insert,
// the counter updates and the notification so a reader never sees a comment
// whose counters or notification are missing.
func (s *CommentService) Create(ctx context.Context, blogID string, userID int64, req model.CreateCommentRequest) (*model.Comment, error) {
	if len(req.Content) == 0 {
		return nil, model.ErrContentRequired
	}
	if len(req.Content) > model.MaxCommentLength {
		return nil, model.ErrContentTooLong
	}

	meta, err := s.postRepo.GetMeta(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if meta.Draft {
		return nil, model.ErrDraftAccess
	}

	// A reply must name a live top-level comment of the same post. Replies to
	// replies are rejected; the forest never grows past depth two.
	var parent *model.Comment
	if req.ReplyingTo != nil {
		parent, err = s.commentRepo.GetByID(ctx, nil, *req.ReplyingTo)
		if err != nil {
			return nil, err
		}
		if parent.PostID != meta.ID {
			return nil, model.ErrParentMismatch
		}
		if parent.IsReply {
			return nil, model.ErrReplyDepthExceeded
		}
	}

	comment := &model.Comment{
		PostID:       meta.ID,
		UserID:       userID,
		PostAuthorID: meta.AuthorID,
		Content:      req.Content,
		IsReply:      parent != nil,
		ParentID:     req.ReplyingTo,
	}

	err = s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.commentRepo.Create(ctx, tx, comment); err != nil {
			return err
		}

		if err := s.postRepo.AdjustActivity(ctx, tx, meta.ID, model.ActivityTotalComments, 1); err != nil {
			return err
		}
		if !comment.IsReply {
			if err := s.postRepo.AdjustActivity(ctx, tx, meta.ID, model.ActivityTotalParentComments, 1); err != nil {
				return err
			}
		}

		n := &model.Notification{
			PostID:    meta.ID,
			ActorID:   userID,
			CommentID: &comment.ID,
		}
		if comment.IsReply {
			n.Type = model.NotificationTypeReply
			n.UserID = parent.UserID
			n.RepliedOnCommentID = &parent.ID
		} else {
			n.Type = model.NotificationTypeComment
			n.UserID = meta.AuthorID
		}
		return s.notifRepo.Create(ctx, tx, n)
	})
	if err != nil {
		return nil, err
	}

	// Fetch author info
	author, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		comment.Author = &model.UserSummary{
			ID:        author.ID,
			Username:  author.Username,
			FullName:  author.FullName,
			AvatarURL: author.AvatarURL,
		}
	}

	// Back-fill the reply reference on the notification the client replied
	// from. Best-effort: a stale id must not fail the created comment.
	if req.NotificationID != nil && comment.IsReply {
		if err := s.notifRepo.SetReply(ctx, *req.NotificationID, comment.ID); err != nil {
			log.Printf("[CommentService] Failed to back-fill reply on notification %d: %v", *req.NotificationID, err)
		}
	}

	log.Printf("[CommentService] User %d commented on post %d (reply=%t)", userID, meta.ID, comment.IsReply)

	// Publish reconciliation event (after commit, best-effort)
	if s.publisher != nil {
		event := queue.NewCommentAddedEvent(meta.ID, userID, comment.ID)
		if _, err := s.publisher.Publish(ctx, queue.StreamEngagement, event); err != nil {
			log.Printf("[CommentService] Failed to publish CommentAdded event: %v", err)
		}
	}

	return comment, nil
}

// Delete removes a comment and its whole subtree. Only the commenter or the
// post author may delete. The walk removes children before parents so no
// reply ever outlives the comment it hangs from, retires the notifications
// referencing each removed node, and settles the counters once at the end.
func (s *CommentService) Delete(ctx context.Context, commentID, userID int64) error {
	var postID int64
	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		comment, err := s.commentRepo.GetByID(ctx, tx, commentID)
		if err != nil {
			return err
		}
		if userID != comment.UserID && userID != comment.PostAuthorID {
			return model.ErrCommentForbidden
		}
		postID = comment.PostID

		removed, removedParents, err := s.deleteTree(ctx, tx, comment)
		if err != nil {
			return err
		}

		if err := s.postRepo.AdjustActivity(ctx, tx, postID, model.ActivityTotalComments, -removed); err != nil {
			return err
		}
		if removedParents > 0 {
			if err := s.postRepo.AdjustActivity(ctx, tx, postID, model.ActivityTotalParentComments, -removedParents); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("[CommentService] User %d deleted comment %d from post %d", userID, commentID, postID)

	if s.publisher != nil {
		event := queue.NewCommentDeletedEvent(postID, userID, commentID)
		if _, err := s.publisher.Publish(ctx, queue.StreamEngagement, event); err != nil {
			log.Printf("[CommentService] Failed to publish CommentDeleted event: %v", err)
		}
	}
	return nil
}

// deleteTree removes a node and its descendants depth-first and reports how
// many nodes and how many top-level nodes went away.
func (s *CommentService) deleteTree(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) (int, int, error) {
	removed, removedParents := 0, 0

	childIDs, err := s.commentRepo.GetChildIDs(ctx, tx, comment.ID)
	if err != nil {
		return 0, 0, err
	}
	for _, childID := range childIDs {
		child, err := s.commentRepo.GetByID(ctx, tx, childID)
		if err != nil {
			return 0, 0, err
		}
		r, rp, err := s.deleteTree(ctx, tx, child)
		if err != nil {
			return 0, 0, err
		}
		removed += r
		removedParents += rp
	}

	if err := s.notifRepo.RetireForComment(ctx, tx, comment.ID); err != nil {
		return 0, 0, err
	}
	if err := s.commentRepo.Delete(ctx, tx, comment.ID); err != nil {
		return 0, 0, err
	}

	removed++
	if !comment.IsReply {
		removedParents++
	}
	return removed, removedParents, nil
}

// ListByPost returns a page of a post's top-level comments.
func (s *CommentService) ListByPost(ctx context.Context, blogID string, skip int) (*model.CommentListResponse, error) {
	meta, err := s.postRepo.GetMeta(ctx, blogID)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListTopLevel(ctx, meta.ID, pagination.ClampSkip(skip), pagination.CommentPageSize)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return &model.CommentListResponse{Comments: comments}, nil
}

// ListReplies returns a page of one comment's direct replies.
func (s *CommentService) ListReplies(ctx context.Context, commentID int64, skip int) (*model.ReplyListResponse, error) {
	if _, err := s.commentRepo.GetByID(ctx, nil, commentID); err != nil {
		return nil, err
	}

	replies, err := s.commentRepo.ListReplies(ctx, commentID, pagination.ClampSkip(skip), pagination.CommentPageSize)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return &model.ReplyListResponse{Replies: replies}, nil
}
