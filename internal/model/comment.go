package model

import (
	"errors"
	"time"
)

// Comment is a node in a post's comment forest. The forest has depth at most
// two: top-level comments and their direct replies. A reply carries IsReply
// and ParentID; children are the rows whose ParentID points back here, in
// insertion order. PostAuthorID is denormalized so delete authorization does
// not need a join against posts.
type Comment struct {
	ID           int64     `db:"id" json:"id"`
	PostID       int64     `db:"post_id" json:"-"`
	UserID       int64     `db:"user_id" json:"-"`
	PostAuthorID int64     `db:"post_author_id" json:"-"`
	Content      string    `db:"content" json:"content"`
	IsReply      bool      `db:"is_reply" json:"is_reply"`
	ParentID     *int64    `db:"parent_comment_id" json:"parent_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"commented_at"`

	// Joined field
	Author *UserSummary `db:"-" json:"author,omitempty"`
}

// CreateCommentRequest is the request body for adding a comment or reply.
// NotificationID optionally names an existing comment notification that this
// reply answers; its reply reference is back-filled best-effort.
type CreateCommentRequest struct {
	Content        string `json:"content"`
	ReplyingTo     *int64 `json:"replying_to,omitempty"`
	NotificationID *int64 `json:"notification_id,omitempty"`
}

// CommentListResponse is a page of top-level comments.
type CommentListResponse struct {
	Comments []Comment `json:"comments"`
}

// ReplyListResponse is a page of replies under one comment.
type ReplyListResponse struct {
	Replies []Comment `json:"replies"`
}

const MaxCommentLength = 2200

// Comment errors
var (
	ErrCommentNotFound    = errors.New("comment not found")
	ErrCommentForbidden   = errors.New("only the commenter or the post author can delete this comment")
	ErrContentRequired    = errors.New("comment content is required")
	ErrContentTooLong     = errors.New("comment content too long")
	ErrReplyDepthExceeded = errors.New("replies to replies are not allowed")
	ErrParentMismatch     = errors.New("parent comment does not belong to this post")
)
