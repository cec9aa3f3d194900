package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"inkstream/internal/model"
)

// Methods that take a *sqlx.Tx participate in a caller-owned transaction;
// a nil tx falls back to the repository's own connection pool.

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// IncrementTotalPosts adjusts the author's published-post counter.
	IncrementTotalPosts(ctx context.Context, tx *sqlx.Tx, userID int64, delta int) error
	// IncrementTotalReads adjusts the author's aggregate read counter.
	IncrementTotalReads(ctx context.Context, userID int64, delta int) error
}

type PostRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, post *model.Post) error
	// Update rewrites an existing post's editable fields by public id.
	// Only the owner may update.
	Update(ctx context.Context, blogID string, userID int64, req model.SavePostRequest) error
	GetByBlogID(ctx context.Context, blogID string) (*model.Post, error)
	// GetMeta resolves a public blog id to internal references.
	GetMeta(ctx context.Context, blogID string) (*model.PostMeta, error)
	Delete(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (draft bool, err error)
	GetLatest(ctx context.Context, offset, limit int) ([]model.Post, error)
	CountPublished(ctx context.Context) (int, error)
	GetByAuthor(ctx context.Context, userID int64, draft bool, query string, offset, limit int) ([]model.Post, error)
	CountByAuthor(ctx context.Context, userID int64, draft bool, query string) (int, error)

	// Counter ledger. AdjustActivity applies delta to one named activity
	// counter atomically and refuses to drive it negative: an underflow on a
	// live post returns model.ErrCounterUnderflow, an unknown post is a
	// silent no-op (the caller holds a reference validated moments before).
	AdjustActivity(ctx context.Context, tx *sqlx.Tx, postID int64, field string, delta int) error
	// GetActivity reads the stored counters, for reconciliation.
	GetActivity(ctx context.Context, postID int64) (*model.Activity, error)
	// SetCommentCounts overwrites the comment counters after a recount.
	SetCommentCounts(ctx context.Context, postID int64, total, parents int) error
	// SetLikeCount overwrites the like counter after a recount.
	SetLikeCount(ctx context.Context, postID int64, likes int) error
}

type CommentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) (*model.Comment, error)
	GetByID(ctx context.Context, tx *sqlx.Tx, commentID int64) (*model.Comment, error)
	// GetChildIDs returns the ids of a node's direct replies in insertion order.
	GetChildIDs(ctx context.Context, tx *sqlx.Tx, commentID int64) ([]int64, error)
	// Delete removes a single node. Children must already be gone.
	Delete(ctx context.Context, tx *sqlx.Tx, commentID int64) error
	// DeleteByPost removes every comment of a post, for post deletion.
	DeleteByPost(ctx context.Context, tx *sqlx.Tx, postID int64) error
	ListTopLevel(ctx context.Context, postID int64, offset, limit int) ([]model.Comment, error)
	ListReplies(ctx context.Context, parentID int64, offset, limit int) ([]model.Comment, error)
	// CountLive counts live comments and live top-level comments of a post.
	CountLive(ctx context.Context, postID int64) (total, parents int, err error)
}

type NotificationRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, n *model.Notification) error
	// CreateLike inserts the live like-event for (actor, post). A concurrent
	// duplicate surfaces as model.ErrAlreadyLiked via the partial unique index.
	CreateLike(ctx context.Context, tx *sqlx.Tx, postID, recipientID, actorID int64) error
	// DeleteLike removes the live like-event; reports whether a row existed.
	DeleteLike(ctx context.Context, tx *sqlx.Tx, postID, actorID int64) (bool, error)
	LikeExists(ctx context.Context, postID, actorID int64) (bool, error)
	CountLikes(ctx context.Context, postID int64) (int, error)
	// RetireForComment deletes events referencing the comment and clears the
	// reply reference on comment-kind events that pointed at it.
	RetireForComment(ctx context.Context, tx *sqlx.Tx, commentID int64) error
	// SetReply back-fills the reply reference on an existing comment event.
	SetReply(ctx context.Context, notificationID, replyID int64) error
	DeleteByPost(ctx context.Context, tx *sqlx.Tx, postID int64) error
	List(ctx context.Context, userID int64, kind string, offset, limit int) ([]model.Notification, error)
	MarkSeen(ctx context.Context, userID int64, ids []int64) error
	HasUnseen(ctx context.Context, userID int64) (bool, error)
	Count(ctx context.Context, userID int64, kind string) (int, error)
}
