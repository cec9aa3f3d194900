package service

import (
	"context"
	"errors"
	"testing"

	"inkstream/internal/model"
)

func publishedPostMeta() *model.PostMeta {
	return &model.PostMeta{ID: 10, AuthorID: 1, Draft: false, BlogID: "hello-world-abc123"}
}

func newCommentService(posts *mockPostRepository, comments *mockCommentRepository, notifs *mockNotificationRepository, users *mockUserRepository) *CommentService {
	return NewCommentService(comments, posts, notifs, users, fakeTxRunner{}, nil)
}

func TestCommentService_Create_TopLevel(t *testing.T) {
	posts := &mockPostRepository{
		getMetaFn: func(ctx context.Context, blogID string) (*model.PostMeta, error) {
			return publishedPostMeta(), nil
		},
	}
	comments := &mockCommentRepository{}
	notifs := &mockNotificationRepository{}
	svc := newCommentService(posts, comments, notifs, &mockUserRepository{})

	comment, err := svc.Create(context.Background(), "hello-world-abc123", 2, model.CreateCommentRequest{
		Content: "nice article",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if comment.IsReply {
		t.Error("top-level comment should not be a reply")
	}
	if comment.PostAuthorID != 1 {
		t.Errorf("post_author_id = %d, want 1", comment.PostAuthorID)
	}

	// Both counters move for a top-level comment.
	if got := posts.adjustTotal(model.ActivityTotalComments); got != 1 {
		t.Errorf("total_comments delta = %d, want 1", got)
	}
	if got := posts.adjustTotal(model.ActivityTotalParentComments); got != 1 {
		t.Errorf("total_parent_comments delta = %d, want 1", got)
	}

	// Notification goes to the post author.
	if len(notifs.created) != 1 {
		t.Fatalf("notifications created = %d, want 1", len(notifs.created))
	}
	n := notifs.created[0]
	if n.Type != model.NotificationTypeComment {
		t.Errorf("notification type = %q, want %q", n.Type, model.NotificationTypeComment)
	}
	if n.UserID != 1 || n.ActorID != 2 {
		t.Errorf("notification recipient/actor = %d/%d, want 1/2", n.UserID, n.ActorID)
	}
	if n.CommentID == nil || *n.CommentID != comment.ID {
		t.Error("notification should reference the new comment")
	}
}

func TestCommentService_Create_Reply(t *testing.T) {
	parentID := int64(50)
	posts := &mockPostRepository{
		getMetaFn: func(ctx context.Context, blogID string) (*model.PostMeta, error) {
			return publishedPostMeta(), nil
		},
	}
	comments := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return &model.Comment{ID: parentID, PostID: 10, UserID: 7, PostAuthorID: 1}, nil
		},
	}
	notifs := &mockNotificationRepository{}
	svc := newCommentService(posts, comments, notifs, &mockUserRepository{})

	comment, err := svc.Create(context.Background(), "hello-world-abc123", 2, model.CreateCommentRequest{
		Content:    "agreed",
		ReplyingTo: &parentID,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !comment.IsReply {
		t.Error("expected a reply")
	}

	// A reply moves the total but not the parent counter.
	if got := posts.adjustTotal(model.ActivityTotalComments); got != 1 {
		t.Errorf("total_comments delta = %d, want 1", got)
	}
	if got := posts.adjustTotal(model.ActivityTotalParentComments); got != 0 {
		t.Errorf("total_parent_comments delta = %d, want 0", got)
	}

	// Notification is addressed to the parent comment's author.
	if len(notifs.created) != 1 {
		t.Fatalf("notifications created = %d, want 1", len(notifs.created))
	}
	n := notifs.created[0]
	if n.Type != model.NotificationTypeReply {
		t.Errorf("notification type = %q, want %q", n.Type, model.NotificationTypeReply)
	}
	if n.UserID != 7 {
		t.Errorf("notification recipient = %d, want 7 (parent author)", n.UserID)
	}
	if n.RepliedOnCommentID == nil || *n.RepliedOnCommentID != parentID {
		t.Error("notification should reference the parent comment")
	}
}

func TestCommentService_Create_ReplyToReply(t *testing.T) {
	parentID := int64(60)
	grandparent := int64(50)
	posts := &mockPostRepository{
		getMetaFn: func(ctx context.Context, blogID string) (*model.PostMeta, error) {
			return publishedPostMeta(), nil
		},
	}
	comments := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return &model.Comment{ID: parentID, PostID: 10, UserID: 7, IsReply: true, ParentID: &grandparent}, nil
		},
	}
	svc := newCommentService(posts, comments, &mockNotificationRepository{}, &mockUserRepository{})

	_, err := svc.Create(context.Background(), "hello-world-abc123", 2, model.CreateCommentRequest{
		Content:    "deep thread",
		ReplyingTo: &parentID,
	})
	if !errors.Is(err, model.ErrReplyDepthExceeded) {
		t.Fatalf("expected ErrReplyDepthExceeded, got: %v", err)
	}
	if got := posts.adjustTotal(model.ActivityTotalComments); got != 0 {
		t.Errorf("total_comments delta = %d, want 0", got)
	}
}

func TestCommentService_Create_ParentFromOtherPost(t *testing.T) {
	parentID := int64(50)
	posts := &mockPostRepository{
		getMetaFn: func(ctx context.Context, blogID string) (*model.PostMeta, error) {
			return publishedPostMeta(), nil
		},
	}
	comments := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return &model.Comment{ID: parentID, PostID: 99, UserID: 7}, nil
		},
	}
	svc := newCommentService(posts, comments, &mockNotificationRepository{}, &mockUserRepository{})

	_, err := svc.Create(context.Background(), "hello-world-abc123", 2, model.CreateCommentRequest{
		Content:    "hi",
		ReplyingTo: &parentID,
	})
	if !errors.Is(err, model.ErrParentMismatch) {
		t.Fatalf("expected ErrParentMismatch, got: %v", err)
	}
}

func TestCommentService_Create_Validation(t *testing.T) {
	svc := newCommentService(&mockPostRepository{}, &mockCommentRepository{}, &mockNotificationRepository{}, &mockUserRepository{})

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"empty content", "", model.ErrContentRequired},
		{"too long", string(make([]byte, model.MaxCommentLength+1)), model.ErrContentTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "some-post", 2, model.CreateCommentRequest{Content: tt.content})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommentService_Delete_Forbidden(t *testing.T) {
	comments := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return &model.Comment{ID: commentID, PostID: 10, UserID: 7, PostAuthorID: 1}, nil
		},
	}
	svc := newCommentService(&mockPostRepository{}, comments, &mockNotificationRepository{}, &mockUserRepository{})

	// User 3 is neither the commenter (7) nor the post author (1).
	err := svc.Delete(context.Background(), 50, 3)
	if !errors.Is(err, model.ErrCommentForbidden) {
		t.Fatalf("expected ErrCommentForbidden, got: %v", err)
	}
	if len(comments.deletedIDs) != 0 {
		t.Error("nothing should be deleted on authorization failure")
	}
}

func TestCommentService_Delete_PostAuthorMayDelete(t *testing.T) {
	comments := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return &model.Comment{ID: commentID, PostID: 10, UserID: 7, PostAuthorID: 1}, nil
		},
	}
	svc := newCommentService(&mockPostRepository{}, comments, &mockNotificationRepository{}, &mockUserRepository{})

	if err := svc.Delete(context.Background(), 50, 1); err != nil {
		t.Fatalf("post author should be allowed to delete, got: %v", err)
	}
}

func TestCommentService_Delete_Cascade(t *testing.T) {
	// Comment 50 is top-level with replies 60 and 61.
	tree := map[int64]*model.Comment{
		50: {ID: 50, PostID: 10, UserID: 7, PostAuthorID: 1},
		60: {ID: 60, PostID: 10, UserID: 2, PostAuthorID: 1, IsReply: true},
		61: {ID: 61, PostID: 10, UserID: 3, PostAuthorID: 1, IsReply: true},
	}
	posts := &mockPostRepository{}
	comments := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			if c, ok := tree[commentID]; ok {
				return c, nil
			}
			return nil, model.ErrCommentNotFound
		},
		getChildIDsFn: func(ctx context.Context, commentID int64) ([]int64, error) {
			if commentID == 50 {
				return []int64{60, 61}, nil
			}
			return nil, nil
		},
	}
	notifs := &mockNotificationRepository{}
	svc := newCommentService(posts, comments, notifs, &mockUserRepository{})

	if err := svc.Delete(context.Background(), 50, 7); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Children go before the parent.
	wantOrder := []int64{60, 61, 50}
	if len(comments.deletedIDs) != len(wantOrder) {
		t.Fatalf("deleted %v, want %v", comments.deletedIDs, wantOrder)
	}
	for i, id := range wantOrder {
		if comments.deletedIDs[i] != id {
			t.Errorf("deletion order %v, want %v", comments.deletedIDs, wantOrder)
			break
		}
	}

	// Notifications for every removed node are retired.
	if len(notifs.retiredIDs) != 3 {
		t.Errorf("retired notifications for %d comments, want 3", len(notifs.retiredIDs))
	}

	// Counters settle by the size of the subtree.
	if got := posts.adjustTotal(model.ActivityTotalComments); got != -3 {
		t.Errorf("total_comments delta = %d, want -3", got)
	}
	if got := posts.adjustTotal(model.ActivityTotalParentComments); got != -1 {
		t.Errorf("total_parent_comments delta = %d, want -1", got)
	}
}

func TestCommentService_Create_BackfillsReplyReference(t *testing.T) {
	parentID := int64(50)
	notifID := int64(400)
	var gotNotifID, gotReplyID int64

	posts := &mockPostRepository{
		getMetaFn: func(ctx context.Context, blogID string) (*model.PostMeta, error) {
			return publishedPostMeta(), nil
		},
	}
	comments := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return &model.Comment{ID: parentID, PostID: 10, UserID: 7}, nil
		},
	}
	notifs := &mockNotificationRepository{
		setReplyFn: func(ctx context.Context, notificationID, replyID int64) error {
			gotNotifID, gotReplyID = notificationID, replyID
			return nil
		},
	}
	svc := newCommentService(posts, comments, notifs, &mockUserRepository{})

	comment, err := svc.Create(context.Background(), "hello-world-abc123", 2, model.CreateCommentRequest{
		Content:        "answer",
		ReplyingTo:     &parentID,
		NotificationID: &notifID,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if gotNotifID != notifID || gotReplyID != comment.ID {
		t.Errorf("back-fill got (%d, %d), want (%d, %d)", gotNotifID, gotReplyID, notifID, comment.ID)
	}
}

func TestCommentService_Create_StaleBackfillDoesNotFail(t *testing.T) {
	parentID := int64(50)
	notifID := int64(400)

	posts := &mockPostRepository{
		getMetaFn: func(ctx context.Context, blogID string) (*model.PostMeta, error) {
			return publishedPostMeta(), nil
		},
	}
	comments := &mockCommentRepository{
		getByIDFn: func(ctx context.Context, commentID int64) (*model.Comment, error) {
			return &model.Comment{ID: parentID, PostID: 10, UserID: 7}, nil
		},
	}
	notifs := &mockNotificationRepository{
		setReplyFn: func(ctx context.Context, notificationID, replyID int64) error {
			return model.ErrNotificationNotFound
		},
	}
	svc := newCommentService(posts, comments, notifs, &mockUserRepository{})

	if _, err := svc.Create(context.Background(), "hello-world-abc123", 2, model.CreateCommentRequest{
		Content:        "answer",
		ReplyingTo:     &parentID,
		NotificationID: &notifID,
	}); err != nil {
		t.Fatalf("stale notification id must not fail the comment, got: %v", err)
	}
}
