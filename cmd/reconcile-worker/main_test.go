package main

import (
	"context"
	"testing"
	"time"

	"github.com/princekumarofficial/journal-service/internal/storage/memory"
	"github.com/princekumarofficial/journal-service/internal/types"
)

func TestReconcileRepairsDrift(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	owner := types.NewEntityID()
	liker := types.NewEntityID()
	post := types.Post{
		ID:            types.NewEntityID(),
		UserID:        owner,
		Title:         "Day 1",
		Content:       "hello",
		IsPublic:      true,
		DatePosted:    time.Now().UTC(),
		Likes:         []types.EntityID{liker},
		NumberOfLikes: 3,
	}
	store.ForcePost(post)
	store.ForceComment(types.Comment{
		ID:     types.NewEntityID(),
		PostID: types.NewEntityID(),
		UserID: liker,
		Body:   "orphan",
	})

	worker := NewReconcileWorker(store, time.Minute)
	worker.reconcile(ctx)

	got, err := store.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.NumberOfLikes != 1 {
		t.Fatalf("Expected 1 like after reconcile, got %d", got.NumberOfLikes)
	}

	n, err := store.DeleteOrphanComments(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 0 {
		t.Fatalf("Expected orphans already removed, got %d", n)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	worker := NewReconcileWorker(memory.New(), time.Hour)

	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected worker to stop after cancel")
	}
}
