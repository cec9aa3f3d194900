package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the engagement stream
const (
	EventCommentAdded   = "comment_added"
	EventCommentDeleted = "comment_deleted"
	EventPostLiked      = "post_liked"
	EventPostUnliked    = "post_unliked"
	EventPostDeleted    = "post_deleted"
)

// Stream names
const (
	StreamEngagement = "stream:engagement"
)

// Consumer group name for the counter reconciliation workers
const (
	ConsumerGroupLedger = "ledger_workers"
)

// EngagementEvent represents an event published to the engagement stream.
// Workers use these to reconcile a post's stored counters against its live
// comment and like rows.
type EngagementEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	PostID  int64 `json:"post_id,omitempty"`
	ActorID int64 `json:"actor_id,omitempty"`

	// Comment events
	CommentID int64 `json:"comment_id,omitempty"`
}

// NewCommentAddedEvent creates an event for a new comment or reply.
func NewCommentAddedEvent(postID, actorID, commentID int64) EngagementEvent {
	return EngagementEvent{
		Type:      EventCommentAdded,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		ActorID:   actorID,
		CommentID: commentID,
	}
}

// NewCommentDeletedEvent creates an event for a comment removal, including
// cascades. Worker recounts the post's live comments.
func NewCommentDeletedEvent(postID, actorID, commentID int64) EngagementEvent {
	return EngagementEvent{
		Type:      EventCommentDeleted,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		ActorID:   actorID,
		CommentID: commentID,
	}
}

// NewPostLikedEvent creates an event for a like toggle turning on.
func NewPostLikedEvent(postID, actorID int64) EngagementEvent {
	return EngagementEvent{
		Type:      EventPostLiked,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		ActorID:   actorID,
	}
}

// NewPostUnlikedEvent creates an event for a like toggle turning off.
func NewPostUnlikedEvent(postID, actorID int64) EngagementEvent {
	return EngagementEvent{
		Type:      EventPostUnliked,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		ActorID:   actorID,
	}
}

// NewPostDeletedEvent creates an event for a post removal so workers can drop
// any in-flight reconciliation for it.
func NewPostDeletedEvent(postID, actorID int64) EngagementEvent {
	return EngagementEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		PostID:    postID,
		ActorID:   actorID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e EngagementEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEngagementEvent parses an EngagementEvent from Redis stream message values.
func ParseEngagementEvent(values map[string]interface{}) (EngagementEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return EngagementEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event EngagementEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return EngagementEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
