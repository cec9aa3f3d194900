package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"inkstream/internal/model"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, tx *sqlx.Tx, n *model.Notification) error {
	query := `
		INSERT INTO notifications (type, post_id, user_id, actor_id, comment_id, replied_on_comment_id, reply_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, seen, created_at
	`
	row := ext(r.db, tx).QueryRowxContext(ctx, query,
		n.Type, n.PostID, n.UserID, n.ActorID, n.CommentID, n.RepliedOnCommentID, n.ReplyID)
	if err := row.Scan(&n.ID, &n.Seen, &n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// CreateLike inserts the live like-event for (actor, post). The partial unique
// index on like rows turns a concurrent duplicate into model.ErrAlreadyLiked.
func (r *notificationRepository) CreateLike(ctx context.Context, tx *sqlx.Tx, postID, recipientID, actorID int64) error {
	query := `
		INSERT INTO notifications (type, post_id, user_id, actor_id)
		VALUES ($1, $2, $3, $4)
	`
	_, err := ext(r.db, tx).ExecContext(ctx, query, model.NotificationTypeLike, postID, recipientID, actorID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.ErrAlreadyLiked
		}
		return fmt.Errorf("insert like notification: %w", err)
	}
	return nil
}

// DeleteLike removes the live like-event and reports whether a row existed.
func (r *notificationRepository) DeleteLike(ctx context.Context, tx *sqlx.Tx, postID, actorID int64) (bool, error) {
	result, err := ext(r.db, tx).ExecContext(ctx, `
		DELETE FROM notifications WHERE type = $1 AND post_id = $2 AND actor_id = $3
	`, model.NotificationTypeLike, postID, actorID)
	if err != nil {
		return false, fmt.Errorf("delete like notification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// LikeExists reports whether the live like-event for (actor, post) exists.
// That row is the single source of truth for the liked state.
func (r *notificationRepository) LikeExists(ctx context.Context, postID, actorID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM notifications WHERE type = $1 AND post_id = $2 AND actor_id = $3)
	`, model.NotificationTypeLike, postID, actorID)
	if err != nil {
		return false, fmt.Errorf("check like exists: %w", err)
	}
	return exists, nil
}

// CountLikes counts the live like-events of a post, for reconciliation.
func (r *notificationRepository) CountLikes(ctx context.Context, postID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM notifications WHERE type = $1 AND post_id = $2
	`, model.NotificationTypeLike, postID)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

// RetireForComment removes events referencing the deleted comment and clears
// the reply reference on comment-kind events that pointed at it.
func (r *notificationRepository) RetireForComment(ctx context.Context, tx *sqlx.Tx, commentID int64) error {
	e := ext(r.db, tx)
	if _, err := e.ExecContext(ctx, `DELETE FROM notifications WHERE comment_id = $1`, commentID); err != nil {
		return fmt.Errorf("retire notifications for comment: %w", err)
	}
	if _, err := e.ExecContext(ctx, `UPDATE notifications SET reply_id = NULL WHERE reply_id = $1`, commentID); err != nil {
		return fmt.Errorf("clear reply references: %w", err)
	}
	return nil
}

// SetReply back-fills the reply reference on an existing comment event.
func (r *notificationRepository) SetReply(ctx context.Context, notificationID, replyID int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET reply_id = $1 WHERE id = $2`, replyID, notificationID)
	if err != nil {
		return fmt.Errorf("set reply reference: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) DeleteByPost(ctx context.Context, tx *sqlx.Tx, postID int64) error {
	if _, err := ext(r.db, tx).ExecContext(ctx, `DELETE FROM notifications WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("delete notifications by post: %w", err)
	}
	return nil
}

// notificationRow scans a notification joined with the actor, post and the
// referenced comment snippets. Self-actions are filtered in the query, not here.
type notificationRow struct {
	model.Notification
	ActorUsername string  `db:"actor.username"`
	ActorFullName *string `db:"actor.full_name"`
	ActorAvatar   *string `db:"actor.avatar_url"`
	BlogID        string  `db:"post.blog_id"`
	PostTitle     string  `db:"post.title"`
	CommentText   *string `db:"comment.content"`
	RepliedText   *string `db:"replied_on.content"`
	ReplyText     *string `db:"reply.content"`
}

func (row notificationRow) toNotification() model.Notification {
	n := row.Notification
	n.Actor = &model.UserSummary{
		ID:        row.ActorID,
		Username:  row.ActorUsername,
		FullName:  row.ActorFullName,
		AvatarURL: row.ActorAvatar,
	}
	n.Post = &model.PostRef{BlogID: row.BlogID, Title: row.PostTitle}
	if n.CommentID != nil && row.CommentText != nil {
		n.Comment = &model.CommentRef{ID: *n.CommentID, Content: *row.CommentText}
	}
	if n.RepliedOnCommentID != nil && row.RepliedText != nil {
		n.RepliedOnComment = &model.CommentRef{ID: *n.RepliedOnCommentID, Content: *row.RepliedText}
	}
	if n.ReplyID != nil && row.ReplyText != nil {
		n.Reply = &model.CommentRef{ID: *n.ReplyID, Content: *row.ReplyText}
	}
	return n
}

// listFilter appends the optional kind filter. kind has been validated by the
// handler against the known notification types.
func listFilter(kind string) string {
	if kind == model.NotificationFilterAll {
		return ""
	}
	return " AND n.type = $2"
}

// List returns the recipient's notifications newest-first, excluding ones
// the recipient triggered themselves.
func (r *notificationRepository) List(ctx context.Context, userID int64, kind string, offset, limit int) ([]model.Notification, error) {
	query := `
		SELECT n.id, n.type, n.post_id, n.user_id, n.actor_id, n.comment_id,
		       n.replied_on_comment_id, n.reply_id, n.seen, n.created_at,
		       u.username AS "actor.username", u.full_name AS "actor.full_name",
		       u.avatar_url AS "actor.avatar_url",
		       p.blog_id AS "post.blog_id", p.title AS "post.title",
		       c.content AS "comment.content",
		       rc.content AS "replied_on.content",
		       rp.content AS "reply.content"
		FROM notifications n
		JOIN users u ON u.id = n.actor_id
		JOIN posts p ON p.id = n.post_id
		LEFT JOIN post_comments c ON c.id = n.comment_id
		LEFT JOIN post_comments rc ON rc.id = n.replied_on_comment_id
		LEFT JOIN post_comments rp ON rp.id = n.reply_id
		WHERE n.user_id = $1 AND n.actor_id <> $1` + listFilter(kind) + `
		ORDER BY n.created_at DESC, n.id DESC
	`

	args := []interface{}{userID}
	if kind != model.NotificationFilterAll {
		args = append(args, kind)
	}
	query += fmt.Sprintf(" OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	args = append(args, offset, limit)

	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	notifications := make([]model.Notification, len(rows))
	for i, row := range rows {
		notifications[i] = row.toNotification()
	}
	return notifications, nil
}

// MarkSeen flags the given notifications of one recipient as seen.
func (r *notificationRepository) MarkSeen(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET seen = true WHERE user_id = $1 AND id = ANY($2)
	`, userID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark notifications seen: %w", err)
	}
	return nil
}

// HasUnseen reports whether the recipient has any unseen notification from
// another account.
func (r *notificationRepository) HasUnseen(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM notifications WHERE user_id = $1 AND actor_id <> $1 AND seen = false
		)
	`, userID)
	if err != nil {
		return false, fmt.Errorf("check unseen notifications: %w", err)
	}
	return exists, nil
}

// Count returns the recipient's total for the given kind filter.
func (r *notificationRepository) Count(ctx context.Context, userID int64, kind string) (int, error) {
	query := `SELECT COUNT(*) FROM notifications n WHERE n.user_id = $1 AND n.actor_id <> $1` + listFilter(kind)
	args := []interface{}{userID}
	if kind != model.NotificationFilterAll {
		args = append(args, kind)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}
