package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/types"
	"github.com/princekumarofficial/journal-service/internal/types/users"
)

func seedUser(t *testing.T, m *Memory, name string) users.User {
	t.Helper()
	u := users.User{
		ID:        types.NewEntityID(),
		Email:     name + "@example.com",
		Username:  name,
		Password:  "hash",
		CreatedAt: time.Now(),
	}
	if err := m.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return u
}

func seedPost(t *testing.T, m *Memory, owner users.User, public bool, at time.Time) types.Post {
	t.Helper()
	p := types.Post{
		ID:         types.NewEntityID(),
		UserID:     owner.ID,
		Username:   owner.Username,
		Title:      "title",
		Content:    "content",
		IsPublic:   public,
		DatePosted: at,
	}
	if err := m.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return p
}

func TestCreateUser_Duplicate(t *testing.T) {
	m := New()
	seedUser(t, m, "alice")

	err := m.CreateUser(context.Background(), users.User{
		ID:       types.NewEntityID(),
		Email:    "ALICE@example.com",
		Username: "other",
	})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate for same email, got %v", err)
	}

	err = m.CreateUser(context.Background(), users.User{
		ID:       types.NewEntityID(),
		Email:    "new@example.com",
		Username: "alice",
	})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate for same username, got %v", err)
	}
}

func TestRaiseLongestStreak_NeverLowers(t *testing.T) {
	m := New()
	u := seedUser(t, m, "alice")
	ctx := context.Background()

	got, err := m.RaiseLongestStreak(ctx, u.ID, 5)
	if err != nil || got != 5 {
		t.Fatalf("Expected 5, got %d (%v)", got, err)
	}

	got, err = m.RaiseLongestStreak(ctx, u.ID, 3)
	if err != nil || got != 5 {
		t.Fatalf("Expected longest to stay 5, got %d (%v)", got, err)
	}

	if _, err := m.RaiseLongestStreak(ctx, types.NewEntityID(), 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestLikes_KeepCounterInStep(t *testing.T) {
	m := New()
	ctx := context.Background()
	owner := seedUser(t, m, "owner")
	fan := seedUser(t, m, "fan")
	post := seedPost(t, m, owner, true, time.Now())

	added, err := m.AddLike(ctx, post.ID, fan.ID)
	if err != nil || !added {
		t.Fatalf("Expected first like to be added, got %v (%v)", added, err)
	}
	added, err = m.AddLike(ctx, post.ID, fan.ID)
	if err != nil || added {
		t.Fatalf("Expected second like to be a no-op, got %v (%v)", added, err)
	}

	got, _ := m.GetPost(ctx, post.ID)
	if got.NumberOfLikes != 1 || len(got.Likes) != 1 {
		t.Fatalf("Expected one like, got %d/%d", got.NumberOfLikes, len(got.Likes))
	}

	removed, err := m.RemoveLike(ctx, post.ID, fan.ID)
	if err != nil || !removed {
		t.Fatalf("Expected like to be removed, got %v (%v)", removed, err)
	}
	removed, err = m.RemoveLike(ctx, post.ID, fan.ID)
	if err != nil || removed {
		t.Fatalf("Expected second removal to be a no-op, got %v (%v)", removed, err)
	}

	got, _ = m.GetPost(ctx, post.ID)
	if got.NumberOfLikes != 0 || len(got.Likes) != 0 {
		t.Fatalf("Expected no likes, got %d/%d", got.NumberOfLikes, len(got.Likes))
	}

	if _, err := m.AddLike(ctx, types.NewEntityID(), fan.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing post, got %v", err)
	}
}

func TestComments_CreateAndDelete(t *testing.T) {
	m := New()
	ctx := context.Background()
	owner := seedUser(t, m, "owner")
	post := seedPost(t, m, owner, true, time.Now())

	c := types.Comment{
		ID:         types.NewEntityID(),
		PostID:     post.ID,
		UserID:     owner.ID,
		Username:   owner.Username,
		Body:       "hi",
		DatePosted: time.Now(),
	}
	if err := m.CreateComment(ctx, c); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	got, _ := m.GetPost(ctx, post.ID)
	if got.NumberOfComments != 1 || !types.ContainsID(got.Comments, c.ID) {
		t.Fatalf("Expected comment attached to post, got %+v", got)
	}

	deleted, err := m.DeleteComment(ctx, c.ID, types.NewEntityID(), post.ID)
	if err != nil || deleted {
		t.Fatalf("Expected delete by stranger to match nothing, got %v (%v)", deleted, err)
	}

	deleted, err = m.DeleteComment(ctx, c.ID, owner.ID, post.ID)
	if err != nil || !deleted {
		t.Fatalf("Expected delete by author to succeed, got %v (%v)", deleted, err)
	}

	got, _ = m.GetPost(ctx, post.ID)
	if got.NumberOfComments != 0 || len(got.Comments) != 0 {
		t.Fatalf("Expected no comments, got %d/%d", got.NumberOfComments, len(got.Comments))
	}
}

func TestListPublicPosts_NewestFirst(t *testing.T) {
	m := New()
	ctx := context.Background()
	owner := seedUser(t, m, "owner")
	base := time.Now()

	older := seedPost(t, m, owner, true, base.Add(-time.Hour))
	newer := seedPost(t, m, owner, true, base)
	seedPost(t, m, owner, false, base.Add(time.Hour))

	posts, err := m.ListPublicPosts(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListPublicPosts: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != newer.ID || posts[1].ID != older.ID {
		t.Fatalf("Expected [newer, older], got %+v", posts)
	}

	posts, _ = m.ListPublicPosts(ctx, 1, 1)
	if len(posts) != 1 || posts[0].ID != older.ID {
		t.Fatalf("Expected second page to hold the older post, got %+v", posts)
	}

	n, _ := m.CountPublicPosts(ctx)
	if n != 2 {
		t.Fatalf("Expected 2 public posts, got %d", n)
	}
}

func TestDeleteUser_Cascades(t *testing.T) {
	m := New()
	ctx := context.Background()
	alice := seedUser(t, m, "alice")
	bob := seedUser(t, m, "bob")

	alicePost := seedPost(t, m, alice, true, time.Now())
	bobPost := seedPost(t, m, bob, true, time.Now())

	m.AddLike(ctx, bobPost.ID, alice.ID)
	m.CreateComment(ctx, types.Comment{ID: types.NewEntityID(), PostID: bobPost.ID, UserID: alice.ID, Body: "a"})
	bobComment := types.Comment{ID: types.NewEntityID(), PostID: alicePost.ID, UserID: bob.ID, Body: "b"}
	m.CreateComment(ctx, bobComment)

	if err := m.DeleteUser(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	if _, err := m.GetPost(ctx, alicePost.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected alice's post to be gone, got %v", err)
	}
	if _, err := m.GetComment(ctx, bobComment.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected comments on alice's post to be gone, got %v", err)
	}

	got, _ := m.GetPost(ctx, bobPost.ID)
	if got.NumberOfLikes != 0 || got.NumberOfComments != 0 || len(got.Likes) != 0 || len(got.Comments) != 0 {
		t.Fatalf("Expected alice's like and comment removed from bob's post, got %+v", got)
	}
}

func TestReconcile(t *testing.T) {
	m := New()
	ctx := context.Background()
	owner := seedUser(t, m, "owner")
	post := seedPost(t, m, owner, true, time.Now())

	drifted := post
	drifted.Likes = []types.EntityID{owner.ID}
	drifted.NumberOfLikes = 4
	m.ForcePost(drifted)
	m.ForceComment(types.Comment{ID: types.NewEntityID(), PostID: types.NewEntityID(), UserID: owner.ID})

	n, err := m.DeleteOrphanComments(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Expected one orphan removed, got %d (%v)", n, err)
	}

	n, err = m.ReconcileCounters(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Expected one post reconciled, got %d (%v)", n, err)
	}

	got, _ := m.GetPost(ctx, post.ID)
	if got.NumberOfLikes != 1 {
		t.Fatalf("Expected number_of_likes 1, got %d", got.NumberOfLikes)
	}
}
