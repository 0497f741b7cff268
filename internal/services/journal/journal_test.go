package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/journal-service/internal/apperr"
	"github.com/princekumarofficial/journal-service/internal/cache"
	"github.com/princekumarofficial/journal-service/internal/storage/memory"
	"github.com/princekumarofficial/journal-service/internal/streak"
	"github.com/princekumarofficial/journal-service/internal/types"
	"github.com/princekumarofficial/journal-service/internal/types/users"
)

const (
	minInterval = 20 * time.Hour
	window      = 28 * time.Hour
)

type fixture struct {
	svc     *Service
	store   *memory.Memory
	streaks *streak.Engine
	mr      *miniredis.Miniredis
	redis   *redis.Client
	user    users.User
}

func setup(t *testing.T) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		redisClient.Close()
		mr.Close()
	})

	store := memory.New()
	user := users.User{
		ID:        types.NewEntityID(),
		Email:     "writer@example.com",
		Username:  "writer",
		CreatedAt: time.Now(),
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	streaks := streak.NewEngine(streak.NewRedisCounter(redisClient), minInterval, window)
	return &fixture{
		svc:     NewService(store, streaks, cache.NewFeedCache(redisClient), nil),
		store:   store,
		streaks: streaks,
		mr:      mr,
		redis:   redisClient,
		user:    user,
	}
}

func logRequest(public bool) types.LogRequest {
	return types.LogRequest{Title: "Day one", Content: "Wrote some Go.", IsPublic: &public}
}

func (f *fixture) longest(t *testing.T) int {
	t.Helper()
	u, err := f.store.GetUserByID(context.Background(), f.user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	return u.LongestStreak
}

func (f *fixture) current(t *testing.T) int {
	t.Helper()
	n, err := f.streaks.Current(context.Background(), f.user.ID)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	return n
}

func TestCreatePost_FirstEntryIsRecord(t *testing.T) {
	f := setup(t)

	created, err := f.svc.CreatePost(context.Background(), f.user.ID, logRequest(true))
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if !created.NewRecord || created.CurrentStreak != 1 || created.LongestStreak != 1 {
		t.Fatalf("Expected new record with streak 1, got %+v", created)
	}
	if f.current(t) != 1 || f.longest(t) != 1 {
		t.Fatalf("Expected stored streak 1/1, got %d/%d", f.current(t), f.longest(t))
	}
	if created.NumberOfLikes != 0 || created.NumberOfComments != 0 ||
		len(created.Likes) != 0 || len(created.Comments) != 0 {
		t.Fatalf("Expected empty likes and comments, got %+v", created.Post)
	}
	if created.Username != f.user.Username || created.UserID != f.user.ID {
		t.Fatalf("Expected owner snapshot, got %+v", created.Post)
	}
}

func TestCreatePost_SecondEntryWithinCooldownIsDenied(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.CreatePost(ctx, f.user.ID, logRequest(true)); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	f.mr.FastForward(2 * time.Hour)

	_, err := f.svc.CreatePost(ctx, f.user.ID, logRequest(true))
	if !errors.Is(err, apperr.ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited, got %v", err)
	}

	posts, _ := f.store.ListUserPosts(ctx, f.user.ID)
	if len(posts) != 1 {
		t.Fatalf("Expected denied entry not to be stored, got %d posts", len(posts))
	}
	if f.current(t) != 1 || f.longest(t) != 1 {
		t.Fatalf("Expected streak unchanged, got %d/%d", f.current(t), f.longest(t))
	}
}

func TestCreatePost_ExpiredWindowRestartsStreak(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.store.RaiseLongestStreak(ctx, f.user.ID, 3)
	f.svc.CreatePost(ctx, f.user.ID, logRequest(false))
	f.mr.FastForward(window + time.Hour)

	created, err := f.svc.CreatePost(ctx, f.user.ID, logRequest(false))
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if created.CurrentStreak != 1 || created.NewRecord || created.LongestStreak != 3 {
		t.Fatalf("Expected restart at 1 without record, got %+v", created)
	}
}

func TestCreatePost_TieWithLongestIsNotRecord(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.store.RaiseLongestStreak(ctx, f.user.ID, 5)
	f.redis.Set(ctx, "streak:current:"+f.user.ID.String(), 4, window)
	f.mr.FastForward(21 * time.Hour)

	created, err := f.svc.CreatePost(ctx, f.user.ID, logRequest(true))
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if created.CurrentStreak != 5 || created.NewRecord || created.LongestStreak != 5 {
		t.Fatalf("Expected streak 5 without record, got %+v", created)
	}
}

func TestCreatePost_ConsecutiveDays(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	prevLongest := 0
	for day := 1; day <= 4; day++ {
		created, err := f.svc.CreatePost(ctx, f.user.ID, logRequest(true))
		if err != nil {
			t.Fatalf("Day %d: %v", day, err)
		}
		if created.CurrentStreak != day || !created.NewRecord {
			t.Fatalf("Day %d: expected streak %d as record, got %+v", day, day, created)
		}

		longest := f.longest(t)
		if longest < prevLongest || longest < f.current(t) {
			t.Fatalf("Day %d: longest %d regressed or below current %d", day, longest, f.current(t))
		}
		prevLongest = longest
		f.mr.FastForward(24 * time.Hour)
	}
}

func TestCreatePost_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	yes := true

	tests := []struct {
		name string
		req  types.LogRequest
	}{
		{"missing title", types.LogRequest{Content: "c"}},
		{"blank title", types.LogRequest{Title: "   ", Content: "c"}},
		{"missing content", types.LogRequest{Title: "t"}},
		{"media disabled", types.LogRequest{Title: "t", Content: "c", IsPublic: &yes, MediaKey: "users/x/media/a.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreatePost(ctx, f.user.ID, tt.req)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("Expected ErrValidation, got %v", err)
			}
		})
	}

	if f.current(t) != 0 {
		t.Fatal("Expected rejected entries not to start a streak")
	}
}

func TestCreatePost_DefaultsToPrivate(t *testing.T) {
	f := setup(t)

	created, err := f.svc.CreatePost(context.Background(), f.user.ID, types.LogRequest{Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if created.IsPublic {
		t.Fatal("Expected is_public to default to false")
	}
}

func TestCreatePost_VanishedUserIsInternal(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreatePost(context.Background(), types.NewEntityID(), logRequest(true))
	if !errors.Is(err, apperr.ErrInternal) {
		t.Fatalf("Expected ErrInternal, got %v", err)
	}
}

type failingStore struct {
	*memory.Memory
}

func (failingStore) CreatePost(context.Context, types.Post) error {
	return errors.New("disk full")
}

func TestCreatePost_StoreFailureLeavesStreakAlone(t *testing.T) {
	f := setup(t)
	svc := NewService(failingStore{f.store}, f.streaks, nil, nil)

	_, err := svc.CreatePost(context.Background(), f.user.ID, logRequest(true))
	if !errors.Is(err, apperr.ErrInternal) {
		t.Fatalf("Expected ErrInternal, got %v", err)
	}
	if f.current(t) != 0 || f.longest(t) != 0 {
		t.Fatalf("Expected no streak change, got %d/%d", f.current(t), f.longest(t))
	}
}

// longestFailingStore stores posts but cannot persist the longest streak.
type longestFailingStore struct {
	*memory.Memory
}

func (longestFailingStore) RaiseLongestStreak(context.Context, types.EntityID, int) (int, error) {
	return 0, errors.New("connection reset")
}

func TestCreatePost_LongestStreakFailureLeavesCounterAlone(t *testing.T) {
	f := setup(t)
	svc := NewService(longestFailingStore{f.store}, f.streaks, nil, nil)

	_, err := svc.CreatePost(context.Background(), f.user.ID, logRequest(true))
	if !errors.Is(err, apperr.ErrInternal) {
		t.Fatalf("Expected ErrInternal, got %v", err)
	}
	if f.current(t) != 0 {
		t.Fatalf("Expected counter untouched, got %d", f.current(t))
	}
	if f.longest(t) != 0 {
		t.Fatalf("Expected longest streak 0, got %d", f.longest(t))
	}

	// the post was already written; the streak undercounts it
	posts, err := f.store.ListUserPosts(context.Background(), f.user.ID)
	if err != nil {
		t.Fatalf("ListUserPosts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("Expected the post to be stored, got %d posts", len(posts))
	}
}

// brokenCounter reads through to Redis but cannot write.
type brokenCounter struct {
	*streak.RedisCounter
}

func (brokenCounter) Store(context.Context, types.EntityID, int, time.Duration) error {
	return errors.New("READONLY You can't write against a read only replica")
}

func TestCreatePost_CommitFailure(t *testing.T) {
	f := setup(t)
	streaks := streak.NewEngine(brokenCounter{streak.NewRedisCounter(f.redis)}, minInterval, window)
	svc := NewService(f.store, streaks, nil, nil)

	_, err := svc.CreatePost(context.Background(), f.user.ID, logRequest(true))
	if !errors.Is(err, apperr.ErrInternal) {
		t.Fatalf("Expected ErrInternal, got %v", err)
	}
	if f.current(t) != 0 {
		t.Fatalf("Expected current streak unchanged, got %d", f.current(t))
	}
	if f.longest(t) != 1 {
		t.Fatalf("Expected longest streak raised to 1, got %d", f.longest(t))
	}
}

func TestCreatePost_RoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreatePost(ctx, f.user.ID, logRequest(true))
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	got, err := f.store.GetPost(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Title != created.Title || got.Content != created.Content ||
		got.IsPublic != created.IsPublic || got.UserID != f.user.ID {
		t.Fatalf("Round trip mismatch: stored %+v, created %+v", got, created.Post)
	}
}

type allowAll struct{}

func (allowAll) ValidateKey(types.EntityID, string) error { return nil }

func TestCreatePost_WithMedia(t *testing.T) {
	f := setup(t)
	f.svc.media = allowAll{}

	req := logRequest(true)
	req.MediaKey = "users/" + f.user.ID.String() + "/media/a.png"

	created, err := f.svc.CreatePost(context.Background(), f.user.ID, req)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if created.MediaKey != req.MediaKey {
		t.Fatalf("Expected media key to be stored, got %q", created.MediaKey)
	}
}

func TestCreatePost_InvalidatesPublicFeed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	feed := cache.NewFeedCache(f.redis)
	feed.SetPage(ctx, 1, types.FeedPage{Page: 1})

	if _, err := f.svc.CreatePost(ctx, f.user.ID, logRequest(true)); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if _, ok := feed.GetPage(ctx, 1); ok {
		t.Fatal("Expected public entry to invalidate cached feed pages")
	}
}
