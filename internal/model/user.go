package model

import (
	"errors"
	"time"
)

// User is a minimal author record. Profile management and credential flows
// live outside this service; users exist here so posts, comments and
// notifications can join author info and track account-level counters.
type User struct {
	ID         int64     `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	FullName   *string   `db:"full_name" json:"full_name"`
	AvatarURL  *string   `db:"avatar_url" json:"avatar_url"`
	TotalPosts int       `db:"total_posts" json:"total_posts"`
	TotalReads int       `db:"total_reads" json:"total_reads"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// UserSummary is the joined author/actor shape embedded in list responses.
type UserSummary struct {
	ID        int64   `db:"id" json:"-"`
	Username  string  `db:"username" json:"username"`
	FullName  *string `db:"full_name" json:"full_name"`
	AvatarURL *string `db:"avatar_url" json:"avatar_url"`
}

// Auth error codes surfaced by the bearer-token middleware.
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

var ErrUserNotFound = errors.New("user not found")
