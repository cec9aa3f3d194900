package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"inkstream/internal/model"
)

// activityColumns maps ledger field names to their posts columns. Anything
// outside this set is a programming error, not user input.
var activityColumns = map[string]string{
	model.ActivityTotalLikes:          "like_count",
	model.ActivityTotalComments:       "comment_count",
	model.ActivityTotalParentComments: "parent_comment_count",
	model.ActivityTotalReads:          "read_count",
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post row.
func (r *postRepository) Create(ctx context.Context, tx *sqlx.Tx, post *model.Post) error {
	query := `
		INSERT INTO posts (blog_id, user_id, title, description, banner_url, content, tags, draft)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, published_at, updated_at
	`
	row := ext(r.db, tx).QueryRowxContext(ctx, query,
		post.BlogID, post.UserID, post.Title, post.Description, post.BannerURL,
		post.Content, post.Tags, post.Draft)
	if err := row.Scan(&post.ID, &post.PublishedAt, &post.UpdatedAt); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// Update rewrites an existing post's editable fields. Only the owner may update.
func (r *postRepository) Update(ctx context.Context, blogID string, userID int64, req model.SavePostRequest) error {
	query := `
		UPDATE posts
		SET title = $1, description = $2, banner_url = $3, content = $4, tags = $5,
		    draft = $6, updated_at = NOW()
		WHERE blog_id = $7 AND user_id = $8
	`
	result, err := r.db.ExecContext(ctx, query,
		req.Title, nullable(req.Description), nullable(req.BannerURL), req.Content,
		pq.StringArray(req.Tags), req.Draft, blogID, userID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE blog_id = $1)`, blogID)
		if exists {
			return model.ErrNotPostOwner
		}
		return model.ErrPostNotFound
	}
	return nil
}

// postRow scans a post joined with its author summary.
type postRow struct {
	model.Post
	AuthorID       int64   `db:"author.id"`
	AuthorUsername string  `db:"author.username"`
	AuthorFullName *string `db:"author.full_name"`
	AuthorAvatar   *string `db:"author.avatar_url"`
}

func (row postRow) toPost() model.Post {
	p := row.Post
	p.Author = &model.UserSummary{
		ID:        row.AuthorID,
		Username:  row.AuthorUsername,
		FullName:  row.AuthorFullName,
		AvatarURL: row.AuthorAvatar,
	}
	return p
}

const postSelectColumns = `
	p.id, p.blog_id, p.user_id, p.title, p.description, p.banner_url, p.content,
	p.tags, p.draft, p.published_at, p.updated_at,
	p.like_count AS "activity.like_count",
	p.comment_count AS "activity.comment_count",
	p.parent_comment_count AS "activity.parent_comment_count",
	p.read_count AS "activity.read_count",
	u.id AS "author.id", u.username AS "author.username",
	u.full_name AS "author.full_name", u.avatar_url AS "author.avatar_url"
`

// GetByBlogID retrieves a single post with its author by public id.
func (r *postRepository) GetByBlogID(ctx context.Context, blogID string) (*model.Post, error) {
	query := `
		SELECT ` + postSelectColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.blog_id = $1
	`
	var row postRow
	err := r.db.GetContext(ctx, &row, query, blogID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	post := row.toPost()
	return &post, nil
}

// GetMeta resolves a public blog id to internal references.
func (r *postRepository) GetMeta(ctx context.Context, blogID string) (*model.PostMeta, error) {
	var meta model.PostMeta
	err := r.db.GetContext(ctx, &meta,
		`SELECT id, user_id, draft, blog_id FROM posts WHERE blog_id = $1`, blogID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post meta: %w", err)
	}
	return &meta, nil
}

// Delete removes a post row. Only the owner may delete. Returns whether the
// deleted post was a draft so the caller can fix the author's counters.
func (r *postRepository) Delete(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	var draft bool
	err := ext(r.db, tx).QueryRowxContext(ctx,
		`DELETE FROM posts WHERE id = $1 AND user_id = $2 RETURNING draft`, postID, userID).Scan(&draft)
	if err == sql.ErrNoRows {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID)
		if exists {
			return false, model.ErrNotPostOwner
		}
		return false, model.ErrPostNotFound
	}
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return draft, nil
}

// GetLatest returns published posts newest-first.
func (r *postRepository) GetLatest(ctx context.Context, offset, limit int) ([]model.Post, error) {
	query := `
		SELECT ` + postSelectColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.draft = false
		ORDER BY p.published_at DESC, p.id DESC
		OFFSET $1 LIMIT $2
	`
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, offset, limit); err != nil {
		return nil, fmt.Errorf("get latest posts: %w", err)
	}
	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		posts[i] = row.toPost()
	}
	return posts, nil
}

// CountPublished returns the total number of published posts.
func (r *postRepository) CountPublished(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts WHERE draft = false`); err != nil {
		return 0, fmt.Errorf("count published posts: %w", err)
	}
	return count, nil
}

// GetByAuthor returns one author's posts, optionally filtered by a title or
// tag query, newest-first.
func (r *postRepository) GetByAuthor(ctx context.Context, userID int64, draft bool, query string, offset, limit int) ([]model.Post, error) {
	q := `
		SELECT ` + postSelectColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1 AND p.draft = $2
		  AND (p.title ILIKE '%' || $3 || '%' OR $3 = ANY(p.tags))
		ORDER BY p.published_at DESC, p.id DESC
		OFFSET $4 LIMIT $5
	`
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, q, userID, draft, query, offset, limit); err != nil {
		return nil, fmt.Errorf("get posts by author: %w", err)
	}
	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		posts[i] = row.toPost()
	}
	return posts, nil
}

// CountByAuthor returns the total matching GetByAuthor's filter.
func (r *postRepository) CountByAuthor(ctx context.Context, userID int64, draft bool, query string) (int, error) {
	q := `
		SELECT COUNT(*) FROM posts
		WHERE user_id = $1 AND draft = $2
		  AND (title ILIKE '%' || $3 || '%' OR $3 = ANY(tags))
	`
	var count int
	if err := r.db.GetContext(ctx, &count, q, userID, draft, query); err != nil {
		return 0, fmt.Errorf("count posts by author: %w", err)
	}
	return count, nil
}

// AdjustActivity atomically applies delta to one activity counter. The guard
// clause keeps the stored value non-negative; an underflow on a live post is
// reported as model.ErrCounterUnderflow, never absorbed.
func (r *postRepository) AdjustActivity(ctx context.Context, tx *sqlx.Tx, postID int64, field string, delta int) error {
	col, ok := activityColumns[field]
	if !ok {
		return fmt.Errorf("unknown activity field %q", field)
	}

	query := fmt.Sprintf(
		`UPDATE posts SET %s = %s + $1, updated_at = NOW() WHERE id = $2 AND %s + $1 >= 0`,
		col, col, col)
	result, err := ext(r.db, tx).ExecContext(ctx, query, delta, postID)
	if err != nil {
		return fmt.Errorf("adjust %s: %w", field, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := sqlx.GetContext(ctx, ext(r.db, tx), &exists,
			`SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID); err != nil {
			return fmt.Errorf("check post exists: %w", err)
		}
		if exists {
			return fmt.Errorf("adjust %s by %d on post %d: %w", field, delta, postID, model.ErrCounterUnderflow)
		}
		// Unknown post: the reference was validated by the preceding store
		// operation, so the post was deleted concurrently. Nothing to adjust.
		return nil
	}
	return nil
}

// GetActivity reads the stored counters for reconciliation.
func (r *postRepository) GetActivity(ctx context.Context, postID int64) (*model.Activity, error) {
	var activity model.Activity
	err := r.db.GetContext(ctx, &activity, `
		SELECT like_count, comment_count, parent_comment_count, read_count
		FROM posts WHERE id = $1
	`, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return &activity, nil
}

// SetCommentCounts overwrites the comment counters after a recount.
func (r *postRepository) SetCommentCounts(ctx context.Context, postID int64, total, parents int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE posts SET comment_count = $1, parent_comment_count = $2, updated_at = NOW()
		WHERE id = $3
	`, total, parents, postID)
	if err != nil {
		return fmt.Errorf("set comment counts: %w", err)
	}
	return nil
}

// SetLikeCount overwrites the like counter after a recount.
func (r *postRepository) SetLikeCount(ctx context.Context, postID int64, likes int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET like_count = $1, updated_at = NOW() WHERE id = $2`, likes, postID)
	if err != nil {
		return fmt.Errorf("set like count: %w", err)
	}
	return nil
}

// nullable maps an empty string to NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
