package events

import (
	"testing"
	"time"

	"github.com/princekumarofficial/journal-service/internal/types"
)

type fakeHub struct {
	connected map[types.EntityID]bool
	sent      map[types.EntityID][]*types.Event
}

func newFakeHub(connected ...types.EntityID) *fakeHub {
	h := &fakeHub{
		connected: make(map[types.EntityID]bool),
		sent:      make(map[types.EntityID][]*types.Event),
	}
	for _, id := range connected {
		h.connected[id] = true
	}
	return h
}

func (h *fakeHub) BroadcastToUser(userID types.EntityID, event *types.Event) {
	h.sent[userID] = append(h.sent[userID], event)
}

func (h *fakeHub) IsUserConnected(userID types.EntityID) bool {
	return h.connected[userID]
}

func TestPublishPostLiked(t *testing.T) {
	owner := types.NewEntityID()
	liker := types.NewEntityID()
	post := types.Post{ID: types.NewEntityID(), UserID: owner, NumberOfLikes: 3}

	hub := newFakeHub(owner)
	p := NewEventPublisher(hub)

	p.PublishPostLiked(post, liker, "fan")
	if len(hub.sent[owner]) != 1 {
		t.Fatalf("Expected one event for the owner, got %d", len(hub.sent[owner]))
	}

	event := hub.sent[owner][0]
	data, ok := event.Data.(*types.PostLikedEvent)
	if event.Type != types.EventPostLiked || !ok || data.Likes != 3 || data.Username != "fan" {
		t.Fatalf("Unexpected event %+v", event)
	}

	p.PublishPostLiked(post, owner, "owner")
	if len(hub.sent[owner]) != 1 {
		t.Fatal("Expected no event for a self-like")
	}
}

func TestPublishPostCommented(t *testing.T) {
	owner := types.NewEntityID()
	post := types.Post{ID: types.NewEntityID(), UserID: owner}
	comment := types.Comment{
		ID:         types.NewEntityID(),
		PostID:     post.ID,
		UserID:     types.NewEntityID(),
		Body:       "nice",
		DatePosted: time.Now(),
	}

	offline := newFakeHub()
	NewEventPublisher(offline).PublishPostCommented(post, comment)
	if len(offline.sent) != 0 {
		t.Fatal("Expected no event when the owner is offline")
	}

	online := newFakeHub(owner)
	NewEventPublisher(online).PublishPostCommented(post, comment)
	if len(online.sent[owner]) != 1 || online.sent[owner][0].Type != types.EventPostCommented {
		t.Fatalf("Expected one comment event, got %+v", online.sent[owner])
	}
}
