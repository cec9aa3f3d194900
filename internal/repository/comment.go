package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"inkstream/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment node and returns it with the generated fields set.
func (r *commentRepository) Create(ctx context.Context, tx *sqlx.Tx, comment *model.Comment) (*model.Comment, error) {
	query := `
		INSERT INTO post_comments (post_id, user_id, post_author_id, content, is_reply, parent_comment_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	row := ext(r.db, tx).QueryRowxContext(ctx, query,
		comment.PostID, comment.UserID, comment.PostAuthorID,
		comment.Content, comment.IsReply, comment.ParentID)
	if err := row.Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return comment, nil
}

func (r *commentRepository) GetByID(ctx context.Context, tx *sqlx.Tx, commentID int64) (*model.Comment, error) {
	var comment model.Comment
	err := sqlx.GetContext(ctx, ext(r.db, tx), &comment, `
		SELECT id, post_id, user_id, post_author_id, content, is_reply, parent_comment_id, created_at
		FROM post_comments WHERE id = $1
	`, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// GetChildIDs returns the ids of a node's direct replies in insertion order.
func (r *commentRepository) GetChildIDs(ctx context.Context, tx *sqlx.Tx, commentID int64) ([]int64, error) {
	var ids []int64
	err := sqlx.SelectContext(ctx, ext(r.db, tx), &ids, `
		SELECT id FROM post_comments WHERE parent_comment_id = $1 ORDER BY created_at, id
	`, commentID)
	if err != nil {
		return nil, fmt.Errorf("get child comment ids: %w", err)
	}
	return ids, nil
}

// Delete removes a single node. The caller walks children first.
func (r *commentRepository) Delete(ctx context.Context, tx *sqlx.Tx, commentID int64) error {
	result, err := ext(r.db, tx).ExecContext(ctx, `DELETE FROM post_comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrCommentNotFound
	}
	return nil
}

// DeleteByPost removes every comment of a post during post deletion.
func (r *commentRepository) DeleteByPost(ctx context.Context, tx *sqlx.Tx, postID int64) error {
	if _, err := ext(r.db, tx).ExecContext(ctx, `DELETE FROM post_comments WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("delete comments by post: %w", err)
	}
	return nil
}

// commentRow scans a comment joined with its author summary.
type commentRow struct {
	model.Comment
	AuthorUsername string  `db:"author.username"`
	AuthorFullName *string `db:"author.full_name"`
	AuthorAvatar   *string `db:"author.avatar_url"`
}

func (row commentRow) toComment() model.Comment {
	c := row.Comment
	c.Author = &model.UserSummary{
		ID:        row.UserID,
		Username:  row.AuthorUsername,
		FullName:  row.AuthorFullName,
		AvatarURL: row.AuthorAvatar,
	}
	return c
}

const commentSelectColumns = `
	c.id, c.post_id, c.user_id, c.post_author_id, c.content, c.is_reply,
	c.parent_comment_id, c.created_at,
	u.username AS "author.username", u.full_name AS "author.full_name",
	u.avatar_url AS "author.avatar_url"
`

// ListTopLevel returns a post's top-level comments, newest first.
func (r *commentRepository) ListTopLevel(ctx context.Context, postID int64, offset, limit int) ([]model.Comment, error) {
	query := `
		SELECT ` + commentSelectColumns + `
		FROM post_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1 AND c.is_reply = false
		ORDER BY c.created_at DESC, c.id DESC
		OFFSET $2 LIMIT $3
	`
	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, postID, offset, limit); err != nil {
		return nil, fmt.Errorf("list top-level comments: %w", err)
	}
	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toComment()
	}
	return comments, nil
}

// ListReplies returns one comment's direct replies, newest first.
func (r *commentRepository) ListReplies(ctx context.Context, parentID int64, offset, limit int) ([]model.Comment, error) {
	query := `
		SELECT ` + commentSelectColumns + `
		FROM post_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.parent_comment_id = $1
		ORDER BY c.created_at DESC, c.id DESC
		OFFSET $2 LIMIT $3
	`
	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, parentID, offset, limit); err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	replies := make([]model.Comment, len(rows))
	for i, row := range rows {
		replies[i] = row.toComment()
	}
	return replies, nil
}

// CountLive counts a post's live comments and live top-level comments, for
// reconciliation against the stored counters.
func (r *commentRepository) CountLive(ctx context.Context, postID int64) (int, int, error) {
	var counts struct {
		Total   int `db:"total"`
		Parents int `db:"parents"`
	}
	err := r.db.GetContext(ctx, &counts, `
		SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_reply = false) AS parents
		FROM post_comments WHERE post_id = $1
	`, postID)
	if err != nil {
		return 0, 0, fmt.Errorf("count live comments: %w", err)
	}
	return counts.Total, counts.Parents, nil
}
