package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Activity holds a post's aggregate engagement counters. Counters are mutated
// only through PostRepository.AdjustActivity, never by arithmetic elsewhere.
type Activity struct {
	TotalLikes          int `db:"like_count" json:"total_likes"`
	TotalComments       int `db:"comment_count" json:"total_comments"`
	TotalParentComments int `db:"parent_comment_count" json:"total_parent_comments"`
	TotalReads          int `db:"read_count" json:"total_reads"`
}

// Activity field names accepted by the counter ledger.
const (
	ActivityTotalLikes          = "total_likes"
	ActivityTotalComments       = "total_comments"
	ActivityTotalParentComments = "total_parent_comments"
	ActivityTotalReads          = "total_reads"
)

// Post is a published or draft article. BlogID is the public identifier used
// in URLs; ID is internal and never leaves the service.
type Post struct {
	ID          int64           `db:"id" json:"-"`
	BlogID      string          `db:"blog_id" json:"blog_id"`
	UserID      int64           `db:"user_id" json:"-"`
	Title       string          `db:"title" json:"title"`
	Description *string         `db:"description" json:"des"`
	BannerURL   *string         `db:"banner_url" json:"banner"`
	Content     json.RawMessage `db:"content" json:"content,omitempty"`
	Tags        pq.StringArray  `db:"tags" json:"tags"`
	Draft       bool            `db:"draft" json:"draft"`
	Activity    Activity        `db:"activity" json:"activity"`
	PublishedAt time.Time       `db:"published_at" json:"published_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"-"`

	// Joined field
	Author *UserSummary `db:"-" json:"author,omitempty"`
}

// PostMeta is the lightweight resolution of a public blog id, used by the
// comment and like paths that only need references, not the full document.
type PostMeta struct {
	ID       int64  `db:"id"`
	AuthorID int64  `db:"user_id"`
	Draft    bool   `db:"draft"`
	BlogID   string `db:"blog_id"`
}

// SavePostRequest is the request body for creating or updating a post.
// When ID is set the request updates an existing post by its public id.
type SavePostRequest struct {
	ID          *string         `json:"id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"des"`
	BannerURL   string          `json:"banner"`
	Content     json.RawMessage `json:"content"`
	Tags        []string        `json:"tags"`
	Draft       bool            `json:"draft"`
}

// PostListResponse is a page of posts.
type PostListResponse struct {
	Blogs []Post `json:"blogs"`
}

// CountResponse carries the server-side total for a collection; the client
// uses it to drive load-more pagination.
type CountResponse struct {
	TotalDocs int `json:"total_docs"`
}

// SavePostResponse returns the public id of the saved post.
type SavePostResponse struct {
	ID string `json:"id"`
}

// UploadURLResponse carries a presigned banner upload URL.
type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
}

// Post constraints, matching the editor limits.
const (
	MaxPostDescriptionLength = 200
	MaxPostTags              = 5
)

// Post errors
var (
	ErrPostNotFound        = errors.New("post not found")
	ErrNotPostOwner        = errors.New("not the owner of this post")
	ErrTitleRequired       = errors.New("post title is required")
	ErrDescriptionInvalid  = errors.New("post description is required and limited to 200 characters")
	ErrBannerRequired      = errors.New("post banner is required")
	ErrPostContentRequired = errors.New("post content is required")
	ErrTagsInvalid         = errors.New("between 1 and 5 tags are required")
	ErrDraftAccess         = errors.New("draft posts are not accessible")

	// ErrCounterUnderflow reports that a ledger adjustment would have driven
	// a counter negative. It indicates drift between counters and live rows
	// and must never be silently absorbed.
	ErrCounterUnderflow = errors.New("activity counter would go negative")
)
