package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/journal-service/internal/cache"
	"github.com/princekumarofficial/journal-service/internal/config"
	"github.com/princekumarofficial/journal-service/internal/events"
	"github.com/princekumarofficial/journal-service/internal/services/account"
	"github.com/princekumarofficial/journal-service/internal/services/feed"
	"github.com/princekumarofficial/journal-service/internal/services/journal"
	"github.com/princekumarofficial/journal-service/internal/session"
	"github.com/princekumarofficial/journal-service/internal/storage/memory"
	"github.com/princekumarofficial/journal-service/internal/streak"
	"github.com/princekumarofficial/journal-service/internal/types"
	"github.com/princekumarofficial/journal-service/internal/types/users"
	"github.com/princekumarofficial/journal-service/internal/websocket"
)

func setupRouter(t *testing.T) http.Handler {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	cfg := &config.Config{
		JWT:       config.JWT{Secret: "test_secret", AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour},
		Streak:    config.Streak{MinInterval: 20 * time.Hour, Window: 28 * time.Hour},
		RateLimit: config.RateLimit{SocialPerMinute: 60, LoginPerMinute: 10},
	}

	store := memory.New()
	streaks := streak.NewEngine(streak.NewRedisCounter(redisClient), cfg.Streak.MinInterval, cfg.Streak.Window)
	sessions := session.NewRegistry(redisClient)
	feedCache := cache.NewFeedCache(redisClient)
	hub := websocket.NewHub()

	return New(Deps{
		Config:   cfg,
		Redis:    redisClient,
		Store:    store,
		Sessions: sessions,
		Accounts: account.NewService(store, sessions, streaks, feedCache, nil, cfg.JWT),
		Journal:  journal.NewService(store, streaks, feedCache, nil),
		Feed:     feed.NewService(store, feedCache, events.NewEventPublisher(hub)),
		Hub:      hub,
	})
}

func do(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func login(t *testing.T, h http.Handler, email, username string) users.Tokens {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/register", "", users.SignUpRequest{Email: email, Username: username, Password: "secret123"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 on register, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodPost, "/api/login", "", users.SignInRequest{Email: email, Password: "secret123"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on login, got %d: %s", rr.Code, rr.Body.String())
	}
	var tokens users.Tokens
	if err := json.NewDecoder(rr.Body).Decode(&tokens); err != nil {
		t.Fatalf("Failed to decode tokens: %v", err)
	}
	return tokens
}

func TestJournalFlow(t *testing.T) {
	h := setupRouter(t)
	alice := login(t, h, "alice@example.com", "alice")
	bob := login(t, h, "bob@example.com", "bob")

	rr := do(t, h, http.MethodPost, "/api/log", alice.AccessToken, map[string]interface{}{
		"title": "Day 1", "content": "started", "is_public": true,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 on log, got %d: %s", rr.Code, rr.Body.String())
	}
	var created types.CreatedPost
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode created post: %v", err)
	}
	if !created.NewRecord || created.CurrentStreak != 1 {
		t.Fatalf("Expected first entry to be a record with streak 1, got %+v", created)
	}

	// a second entry inside the cooldown is refused
	rr = do(t, h, http.MethodPost, "/api/log", alice.AccessToken, map[string]interface{}{
		"title": "Day 1 again", "content": "too soon",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 during cooldown, got %d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/api/feed/get_posts", bob.AccessToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on feed, got %d", rr.Code)
	}
	var posts []types.Post
	if err := json.NewDecoder(rr.Body).Decode(&posts); err != nil {
		t.Fatalf("Failed to decode feed: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != created.ID {
		t.Fatalf("Expected the public entry in the feed, got %+v", posts)
	}

	like := types.PostIDRequest{PostID: created.ID.String()}
	if rr = do(t, h, http.MethodPost, "/api/feed/like", bob.AccessToken, like); rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on like, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-RateLimit-Limit") != "60" {
		t.Fatalf("Expected rate limit header 60, got %q", rr.Header().Get("X-RateLimit-Limit"))
	}
	if rr = do(t, h, http.MethodPost, "/api/feed/like", bob.AccessToken, like); rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 on double like, got %d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/api/me/streaks", alice.AccessToken, nil)
	var streaks users.Streaks
	if err := json.NewDecoder(rr.Body).Decode(&streaks); err != nil {
		t.Fatalf("Failed to decode streaks: %v", err)
	}
	if streaks.CurrentStreak != 1 || streaks.LongestStreak != 1 {
		t.Fatalf("Expected streaks 1/1, got %+v", streaks)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	h := setupRouter(t)
	tokens := login(t, h, "carol@example.com", "carol")

	if rr := do(t, h, http.MethodGet, "/api/", tokens.AccessToken, nil); rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 before logout, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/api/logout", tokens.AccessToken, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204 on logout, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/", tokens.AccessToken, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401 after logout, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/api/refresh", tokens.RefreshToken, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401 on refresh after logout, got %d", rr.Code)
	}
}

func TestRoutesRequireToken(t *testing.T) {
	h := setupRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/"},
		{http.MethodPost, "/api/log"},
		{http.MethodGet, "/api/feed/get_posts"},
		{http.MethodPost, "/api/feed/like"},
		{http.MethodGet, "/api/me/get_infos"},
		{http.MethodDelete, "/api/me/delete_user"},
		{http.MethodGet, "/api/media"},
		{http.MethodGet, "/api/ws"},
	}
	for _, p := range paths {
		if rr := do(t, h, p.method, p.path, "", nil); rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected status 401, got %d", p.method, p.path, rr.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	h := setupRouter(t)

	rr := do(t, h, http.MethodGet, "/api/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on health, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestMediaDisabled(t *testing.T) {
	h := setupRouter(t)
	tokens := login(t, h, "dave@example.com", "dave")

	rr := do(t, h, http.MethodPost, "/api/media/upload-url", tokens.AccessToken, map[string]string{"content_type": "image/png"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400 with uploads disabled, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/api/media", tokens.AccessToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 listing media, got %d", rr.Code)
	}
}
