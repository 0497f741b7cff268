package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventPostLiked     EventType = "post.liked"
	EventPostCommented EventType = "post.commented"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// PostLikedEvent is sent to a post owner when another user likes the post
type PostLikedEvent struct {
	PostID   EntityID `json:"post_id"`
	UserID   EntityID `json:"user_id"`
	Username string   `json:"username"`
	Likes    int      `json:"number_of_likes"`
	LikedAt  string   `json:"liked_at"`
}

// PostCommentedEvent is sent to a post owner when another user comments
type PostCommentedEvent struct {
	PostID    EntityID `json:"post_id"`
	CommentID EntityID `json:"comment_id"`
	UserID    EntityID `json:"user_id"`
	Username  string   `json:"username"`
	Body      string   `json:"body"`
	PostedAt  string   `json:"posted_at"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
