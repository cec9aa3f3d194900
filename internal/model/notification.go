package model

import (
	"errors"
	"time"
)

// Notification kinds.
const (
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeReply   = "reply"

	// NotificationFilterAll selects every kind on the read side.
	NotificationFilterAll = "all"
)

// ValidNotificationFilter reports whether s is "all" or a concrete kind.
func ValidNotificationFilter(s string) bool {
	switch s {
	case NotificationFilterAll, NotificationTypeLike, NotificationTypeComment, NotificationTypeReply:
		return true
	}
	return false
}

// Notification records an action requiring a recipient's attention.
// UserID is the recipient; ActorID is who triggered it. A live like-kind row
// for (actor, post) is the single source of truth for "actor likes post".
// Comment references are weak: deleting a comment retires rows referencing it
// via CommentID and clears ReplyID where it pointed at the deleted node.
type Notification struct {
	ID                 int64     `db:"id" json:"id"`
	Type               string    `db:"type" json:"type"`
	PostID             int64     `db:"post_id" json:"-"`
	UserID             int64     `db:"user_id" json:"-"`
	ActorID            int64     `db:"actor_id" json:"-"`
	CommentID          *int64    `db:"comment_id" json:"-"`
	RepliedOnCommentID *int64    `db:"replied_on_comment_id" json:"-"`
	ReplyID            *int64    `db:"reply_id" json:"-"`
	Seen               bool      `db:"seen" json:"seen"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`

	// Joined fields for display
	Actor            *UserSummary `db:"-" json:"user,omitempty"`
	Post             *PostRef     `db:"-" json:"blog,omitempty"`
	Comment          *CommentRef  `db:"-" json:"comment,omitempty"`
	RepliedOnComment *CommentRef  `db:"-" json:"replied_on_comment,omitempty"`
	Reply            *CommentRef  `db:"-" json:"reply,omitempty"`
}

// PostRef is the joined post summary on a notification.
type PostRef struct {
	BlogID string `json:"blog_id"`
	Title  string `json:"title"`
}

// CommentRef is the joined comment snippet on a notification.
type CommentRef struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// NotificationListResponse is a page of notifications with the server-side
// total; the client reconciles its local deletions against Page/TotalDocs.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	TotalDocs     int            `json:"total_docs"`
	Page          int            `json:"page"`
}

// UnseenResponse answers the "is there anything new" badge poll.
type UnseenResponse struct {
	NewNotificationAvailable bool `json:"new_notification_available"`
}

// LikedStateResponse reports the liked state after a toggle or query.
type LikedStateResponse struct {
	LikedByUser bool `json:"liked_by_user"`
}

// LikeRequest carries the client's view of the current liked state.
type LikeRequest struct {
	LikedByUser bool `json:"liked_by_user"`
}

// Notification errors
var (
	ErrAlreadyLiked         = errors.New("post already liked by this user")
	ErrNotificationNotFound = errors.New("notification not found")
)
