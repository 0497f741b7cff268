// Package journal accepts journal entries. Creating an entry is ordered so
// that a streak is only advanced for a post that was stored:
//
//	resolve user -> validate -> evaluate streak -> store post ->
//	raise longest streak -> commit counter
//
// The last three steps are not atomic. A failure between them leaves a stored
// post whose streak did not advance; the streak may undercount, never
// overcount.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/princekumarofficial/journal-service/internal/apperr"
	"github.com/princekumarofficial/journal-service/internal/cache"
	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/streak"
	"github.com/princekumarofficial/journal-service/internal/types"
)

// KeyValidator checks that a media key belongs to the user.
type KeyValidator interface {
	ValidateKey(userID types.EntityID, key string) error
}

type Service struct {
	store   storage.Storage
	streaks *streak.Engine
	feed    *cache.FeedCache
	media   KeyValidator
	now     func() time.Time
}

// NewService wires the orchestrator. feed may be nil.
func NewService(store storage.Storage, streaks *streak.Engine, feed *cache.FeedCache, media KeyValidator) *Service {
	return &Service{
		store:   store,
		streaks: streaks,
		feed:    feed,
		media:   media,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreatePost(ctx context.Context, userID types.EntityID, req types.LogRequest) (types.CreatedPost, error) {
	// the gate already resolved this id, so a missing user is our fault
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return types.CreatedPost{}, fmt.Errorf("%w: resolve user %s: %s", apperr.ErrInternal, userID, err)
	}

	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" {
		return types.CreatedPost{}, fmt.Errorf("%w: title is required", apperr.ErrValidation)
	}
	if content == "" {
		return types.CreatedPost{}, fmt.Errorf("%w: content is required", apperr.ErrValidation)
	}
	isPublic := req.IsPublic != nil && *req.IsPublic
	if req.MediaKey != "" {
		if err := s.validateKey(user.ID, req.MediaKey); err != nil {
			return types.CreatedPost{}, err
		}
	}

	decision, err := s.streaks.Evaluate(ctx, user.ID, user.LongestStreak)
	if err != nil {
		return types.CreatedPost{}, fmt.Errorf("%w: evaluate streak: %s", apperr.ErrInternal, err)
	}
	if !decision.Allowed {
		slog.Info("Journal entry denied by cooldown",
			slog.String("user_id", user.ID.String()),
			slog.Duration("retry_in", decision.Retry))
		return types.CreatedPost{}, apperr.ErrRateLimited
	}

	post := types.Post{
		ID:         types.NewEntityID(),
		UserID:     user.ID,
		Username:   user.Username,
		Title:      title,
		Content:    content,
		IsPublic:   isPublic,
		MediaKey:   req.MediaKey,
		DatePosted: s.now(),
		Likes:      []types.EntityID{},
		Comments:   []types.EntityID{},
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return types.CreatedPost{}, fmt.Errorf("%w: store post: %s", apperr.ErrInternal, err)
	}

	longest, err := s.store.RaiseLongestStreak(ctx, user.ID, decision.Current)
	if err != nil {
		return types.CreatedPost{}, fmt.Errorf("%w: store longest streak: %s", apperr.ErrInternal, err)
	}

	if err := s.streaks.Commit(ctx, user.ID, decision.Current); err != nil {
		return types.CreatedPost{}, fmt.Errorf("%w: commit streak: %s", apperr.ErrInternal, err)
	}

	if post.IsPublic {
		if err := s.feed.InvalidateFeed(ctx); err != nil {
			slog.Warn("Failed to invalidate feed cache", slog.String("error", err.Error()))
		}
	}

	slog.Info("Journal entry created",
		slog.String("post_id", post.ID.String()),
		slog.String("user_id", user.ID.String()),
		slog.Int("current_streak", decision.Current),
		slog.Bool("new_record", decision.NewRecord))

	return types.CreatedPost{
		Post:          post,
		NewRecord:     decision.NewRecord,
		CurrentStreak: decision.Current,
		LongestStreak: longest,
	}, nil
}

func (s *Service) validateKey(userID types.EntityID, key string) error {
	if s.media == nil {
		return fmt.Errorf("%w: media uploads are disabled", apperr.ErrValidation)
	}
	return s.media.ValidateKey(userID, key)
}
