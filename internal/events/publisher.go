package events

import (
	"time"

	"github.com/princekumarofficial/journal-service/internal/types"
)

// Publisher tells post owners about activity on their posts
type Publisher interface {
	PublishPostLiked(post types.Post, likerID types.EntityID, likerName string) error
	PublishPostCommented(post types.Post, comment types.Comment) error
}

// WebSocketHub is the part of the hub the publisher needs
type WebSocketHub interface {
	BroadcastToUser(userID types.EntityID, event *types.Event)
	IsUserConnected(userID types.EntityID) bool
}

// EventPublisher delivers events to the owner's open connection, if any.
// Delivery is best effort: offline owners simply miss the event.
type EventPublisher struct {
	hub WebSocketHub
	now func() time.Time
}

func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (p *EventPublisher) PublishPostLiked(post types.Post, likerID types.EntityID, likerName string) error {
	p.notifyOwner(post, likerID, types.EventPostLiked, func() interface{} {
		return &types.PostLikedEvent{
			PostID:   post.ID,
			UserID:   likerID,
			Username: likerName,
			Likes:    post.NumberOfLikes,
			LikedAt:  p.now().Format(time.RFC3339),
		}
	})
	return nil
}

func (p *EventPublisher) PublishPostCommented(post types.Post, comment types.Comment) error {
	p.notifyOwner(post, comment.UserID, types.EventPostCommented, func() interface{} {
		return &types.PostCommentedEvent{
			PostID:    post.ID,
			CommentID: comment.ID,
			UserID:    comment.UserID,
			Username:  comment.Username,
			Body:      comment.Body,
			PostedAt:  comment.DatePosted.UTC().Format(time.RFC3339),
		}
	})
	return nil
}

// notifyOwner skips activity by the owner themselves and owners with no
// open connection; payload is only built when the event will be sent.
func (p *EventPublisher) notifyOwner(post types.Post, actor types.EntityID, eventType types.EventType, payload func() interface{}) {
	if actor == post.UserID || !p.hub.IsUserConnected(post.UserID) {
		return
	}
	p.hub.BroadcastToUser(post.UserID, types.NewEvent(eventType, payload()))
}
