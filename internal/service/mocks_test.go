package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"inkstream/internal/model"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================
//
// Services depend on the repository interfaces and on database.TxRunner, so
// unit tests swap in mocks. The fake runner invokes fn with a nil tx; the
// repository mocks ignore the tx argument entirely.

type fakeTxRunner struct {
	beginErr error
}

func (f fakeTxRunner) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	return fn(nil)
}

type adjustCall struct {
	PostID int64
	Field  string
	Delta  int
}

type mockPostRepository struct {
	createFn         func(ctx context.Context, post *model.Post) error
	updateFn         func(ctx context.Context, blogID string, userID int64, req model.SavePostRequest) error
	getByBlogIDFn    func(ctx context.Context, blogID string) (*model.Post, error)
	getMetaFn        func(ctx context.Context, blogID string) (*model.PostMeta, error)
	deleteFn         func(ctx context.Context, postID, userID int64) (bool, error)
	getLatestFn      func(ctx context.Context, offset, limit int) ([]model.Post, error)
	countPublishedFn func(ctx context.Context) (int, error)
	getByAuthorFn    func(ctx context.Context, userID int64, draft bool, query string, offset, limit int) ([]model.Post, error)
	countByAuthorFn  func(ctx context.Context, userID int64, draft bool, query string) (int, error)
	adjustFn         func(ctx context.Context, postID int64, field string, delta int) error
	getActivityFn    func(ctx context.Context, postID int64) (*model.Activity, error)

	adjustCalls []adjustCall
}

func (m *mockPostRepository) Create(ctx context.Context, tx *sqlx.Tx, post *model.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	post.ID = 1
	return nil
}

func (m *mockPostRepository) Update(ctx context.Context, blogID string, userID int64, req model.SavePostRequest) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, blogID, userID, req)
	}
	return nil
}

func (m *mockPostRepository) GetByBlogID(ctx context.Context, blogID string) (*model.Post, error) {
	if m.getByBlogIDFn != nil {
		return m.getByBlogIDFn(ctx, blogID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) GetMeta(ctx context.Context, blogID string) (*model.PostMeta, error) {
	if m.getMetaFn != nil {
		return m.getMetaFn(ctx, blogID)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) Delete(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID, userID)
	}
	return false, model.ErrPostNotFound
}

func (m *mockPostRepository) GetLatest(ctx context.Context, offset, limit int) ([]model.Post, error) {
	if m.getLatestFn != nil {
		return m.getLatestFn(ctx, offset, limit)
	}
	return nil, nil
}

func (m *mockPostRepository) CountPublished(ctx context.Context) (int, error) {
	if m.countPublishedFn != nil {
		return m.countPublishedFn(ctx)
	}
	return 0, nil
}

func (m *mockPostRepository) GetByAuthor(ctx context.Context, userID int64, draft bool, query string, offset, limit int) ([]model.Post, error) {
	if m.getByAuthorFn != nil {
		return m.getByAuthorFn(ctx, userID, draft, query, offset, limit)
	}
	return nil, nil
}

func (m *mockPostRepository) CountByAuthor(ctx context.Context, userID int64, draft bool, query string) (int, error) {
	if m.countByAuthorFn != nil {
		return m.countByAuthorFn(ctx, userID, draft, query)
	}
	return 0, nil
}

func (m *mockPostRepository) AdjustActivity(ctx context.Context, tx *sqlx.Tx, postID int64, field string, delta int) error {
	m.adjustCalls = append(m.adjustCalls, adjustCall{PostID: postID, Field: field, Delta: delta})
	if m.adjustFn != nil {
		return m.adjustFn(ctx, postID, field, delta)
	}
	return nil
}

func (m *mockPostRepository) GetActivity(ctx context.Context, postID int64) (*model.Activity, error) {
	if m.getActivityFn != nil {
		return m.getActivityFn(ctx, postID)
	}
	return &model.Activity{}, nil
}

func (m *mockPostRepository) SetCommentCounts(ctx context.Context, postID int64, total, parents int) error {
	return nil
}

func (m *mockPostRepository) SetLikeCount(ctx context.Context, postID int64, likes int) error {
	return nil
}

// adjustTotal sums the recorded deltas for one counter field.
func (m *mockPostRepository) adjustTotal(field string) int {
	total := 0
	for _, c := range m.adjustCalls {
		if c.Field == field {
			total += c.Delta
		}
	}
	return total
}

type mockCommentRepository struct {
	createFn      func(ctx context.Context, comment *model.Comment) (*model.Comment, error)
	getByIDFn     func(ctx context.Context, commentID int64) (*model.Comment, error)
	getChildIDsFn func(ctx context.Context, commentID int64) ([]int64, error)
	listTopFn     func(ctx context.Context, postID int64, offset, limit int) ([]model.Comment, error)
	listRepliesFn func(ctx context.Context, parentID int64, offset, limit int) ([]model.Comment, error)
	countLiveFn   func(ctx context.Context, postID int64) (int, int, error)

	deletedIDs     []int64
	deletedPostIDs []int64
}

func (m *mockCommentRepository) Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) (*model.Comment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, comment)
	}
	comment.ID = 100
	return comment, nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, tx *sqlx.Tx, commentID int64) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, commentID)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) GetChildIDs(ctx context.Context, tx *sqlx.Tx, commentID int64) ([]int64, error) {
	if m.getChildIDsFn != nil {
		return m.getChildIDsFn(ctx, commentID)
	}
	return nil, nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, tx *sqlx.Tx, commentID int64) error {
	m.deletedIDs = append(m.deletedIDs, commentID)
	return nil
}

func (m *mockCommentRepository) DeleteByPost(ctx context.Context, tx *sqlx.Tx, postID int64) error {
	m.deletedPostIDs = append(m.deletedPostIDs, postID)
	return nil
}

func (m *mockCommentRepository) ListTopLevel(ctx context.Context, postID int64, offset, limit int) ([]model.Comment, error) {
	if m.listTopFn != nil {
		return m.listTopFn(ctx, postID, offset, limit)
	}
	return nil, nil
}

func (m *mockCommentRepository) ListReplies(ctx context.Context, parentID int64, offset, limit int) ([]model.Comment, error) {
	if m.listRepliesFn != nil {
		return m.listRepliesFn(ctx, parentID, offset, limit)
	}
	return nil, nil
}

func (m *mockCommentRepository) CountLive(ctx context.Context, postID int64) (int, int, error) {
	if m.countLiveFn != nil {
		return m.countLiveFn(ctx, postID)
	}
	return 0, 0, nil
}

type mockNotificationRepository struct {
	createFn     func(ctx context.Context, n *model.Notification) error
	createLikeFn func(ctx context.Context, postID, recipientID, actorID int64) error
	deleteLikeFn func(ctx context.Context, postID, actorID int64) (bool, error)
	likeExistsFn func(ctx context.Context, postID, actorID int64) (bool, error)
	setReplyFn   func(ctx context.Context, notificationID, replyID int64) error
	listFn       func(ctx context.Context, userID int64, kind string, offset, limit int) ([]model.Notification, error)
	hasUnseenFn  func(ctx context.Context, userID int64) (bool, error)
	countFn      func(ctx context.Context, userID int64, kind string) (int, error)

	created        []*model.Notification
	retiredIDs     []int64
	markSeenIDs    []int64
	deletedPostIDs []int64
}

func (m *mockNotificationRepository) Create(ctx context.Context, tx *sqlx.Tx, n *model.Notification) error {
	m.created = append(m.created, n)
	if m.createFn != nil {
		return m.createFn(ctx, n)
	}
	n.ID = int64(len(m.created))
	return nil
}

func (m *mockNotificationRepository) CreateLike(ctx context.Context, tx *sqlx.Tx, postID, recipientID, actorID int64) error {
	if m.createLikeFn != nil {
		return m.createLikeFn(ctx, postID, recipientID, actorID)
	}
	return nil
}

func (m *mockNotificationRepository) DeleteLike(ctx context.Context, tx *sqlx.Tx, postID, actorID int64) (bool, error) {
	if m.deleteLikeFn != nil {
		return m.deleteLikeFn(ctx, postID, actorID)
	}
	return false, nil
}

func (m *mockNotificationRepository) LikeExists(ctx context.Context, postID, actorID int64) (bool, error) {
	if m.likeExistsFn != nil {
		return m.likeExistsFn(ctx, postID, actorID)
	}
	return false, nil
}

func (m *mockNotificationRepository) CountLikes(ctx context.Context, postID int64) (int, error) {
	return 0, nil
}

func (m *mockNotificationRepository) RetireForComment(ctx context.Context, tx *sqlx.Tx, commentID int64) error {
	m.retiredIDs = append(m.retiredIDs, commentID)
	return nil
}

func (m *mockNotificationRepository) SetReply(ctx context.Context, notificationID, replyID int64) error {
	if m.setReplyFn != nil {
		return m.setReplyFn(ctx, notificationID, replyID)
	}
	return nil
}

func (m *mockNotificationRepository) DeleteByPost(ctx context.Context, tx *sqlx.Tx, postID int64) error {
	m.deletedPostIDs = append(m.deletedPostIDs, postID)
	return nil
}

func (m *mockNotificationRepository) List(ctx context.Context, userID int64, kind string, offset, limit int) ([]model.Notification, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, kind, offset, limit)
	}
	return nil, nil
}

func (m *mockNotificationRepository) MarkSeen(ctx context.Context, userID int64, ids []int64) error {
	m.markSeenIDs = append(m.markSeenIDs, ids...)
	return nil
}

func (m *mockNotificationRepository) HasUnseen(ctx context.Context, userID int64) (bool, error) {
	if m.hasUnseenFn != nil {
		return m.hasUnseenFn(ctx, userID)
	}
	return false, nil
}

func (m *mockNotificationRepository) Count(ctx context.Context, userID int64, kind string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, userID, kind)
	}
	return 0, nil
}

type mockUserRepository struct {
	getByIDFn func(ctx context.Context, id int64) (*model.User, error)

	totalPostsDeltas []int
	totalReadsDeltas []int
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &model.User{ID: id, Username: "user"}, nil
}

func (m *mockUserRepository) IncrementTotalPosts(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error {
	m.totalPostsDeltas = append(m.totalPostsDeltas, delta)
	return nil
}

func (m *mockUserRepository) IncrementTotalReads(ctx context.Context, userID int64, delta int) error {
	m.totalReadsDeltas = append(m.totalReadsDeltas, delta)
	return nil
}
