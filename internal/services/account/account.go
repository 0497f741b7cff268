// Package account owns users: registration, sessions, profile edits and the
// cascades that remove a user's posts or the user.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/princekumarofficial/journal-service/internal/apperr"
	"github.com/princekumarofficial/journal-service/internal/cache"
	"github.com/princekumarofficial/journal-service/internal/config"
	"github.com/princekumarofficial/journal-service/internal/services/media"
	"github.com/princekumarofficial/journal-service/internal/session"
	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/streak"
	"github.com/princekumarofficial/journal-service/internal/types"
	"github.com/princekumarofficial/journal-service/internal/types/users"
	"github.com/princekumarofficial/journal-service/internal/utils/jwt"
	"github.com/princekumarofficial/journal-service/internal/utils/password"
)

var errBadCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)

type Service struct {
	store    storage.Storage
	sessions *session.Registry
	streaks  *streak.Engine
	feed     *cache.FeedCache
	media    *media.Service
	jwt      config.JWT
	now      func() time.Time
}

// NewService wires the account service. feed and media may be nil.
func NewService(
	store storage.Storage,
	sessions *session.Registry,
	streaks *streak.Engine,
	feed *cache.FeedCache,
	mediaService *media.Service,
	jwtCfg config.JWT,
) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		streaks:  streaks,
		feed:     feed,
		media:    mediaService,
		jwt:      jwtCfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, req users.SignUpRequest) (users.User, error) {
	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return users.User{}, fmt.Errorf("%w: username is required", apperr.ErrValidation)
	}

	if err := s.checkUnique(ctx, types.NilID, &email, &username); err != nil {
		return users.User{}, err
	}

	hashed, err := password.HashPassword(req.Password)
	if err != nil {
		return users.User{}, fmt.Errorf("%w: hash password: %s", apperr.ErrInternal, err)
	}

	user := users.User{
		ID:            types.NewEntityID(),
		Email:         email,
		Username:      username,
		Password:      hashed,
		LongestStreak: 0,
		CreatedAt:     s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return users.User{}, storeErr("create user", err)
	}

	slog.Info("User registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// checkUnique reports ErrConflict when email or username belongs to a user
// other than self.
func (s *Service) checkUnique(ctx context.Context, self types.EntityID, email, username *string) error {
	if email != nil {
		existing, err := s.store.GetUserByEmail(ctx, *email)
		if err == nil && existing.ID != self {
			return fmt.Errorf("%w: email already used", apperr.ErrConflict)
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return storeErr("lookup email", err)
		}
	}
	if username != nil {
		existing, err := s.store.GetUserByUsername(ctx, *username)
		if err == nil && existing.ID != self {
			return fmt.Errorf("%w: username already used", apperr.ErrConflict)
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return storeErr("lookup username", err)
		}
	}
	return nil
}

// Login checks the credentials and issues an access and a refresh token.
// Each replaces the previously honoured token of its kind.
func (s *Service) Login(ctx context.Context, req users.SignInRequest) (users.Tokens, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, storage.ErrNotFound) {
		return users.Tokens{}, errBadCredentials
	}
	if err != nil {
		return users.Tokens{}, storeErr("lookup user", err)
	}
	if !password.CheckPasswordHash(req.Password, user.Password) {
		return users.Tokens{}, errBadCredentials
	}

	access, err := s.issue(ctx, user.ID, jwt.AccessToken, session.Access, s.jwt.AccessTTL)
	if err != nil {
		return users.Tokens{}, err
	}
	refresh, err := s.issue(ctx, user.ID, jwt.RefreshToken, session.Refresh, s.jwt.RefreshTTL)
	if err != nil {
		return users.Tokens{}, err
	}

	slog.Info("User logged in", slog.String("user_id", user.ID.String()))
	return users.Tokens{UserID: user.ID, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh issues a new access token. The refresh token stays valid.
func (s *Service) Refresh(ctx context.Context, userID types.EntityID) (users.Tokens, error) {
	access, err := s.issue(ctx, userID, jwt.AccessToken, session.Access, s.jwt.AccessTTL)
	if err != nil {
		return users.Tokens{}, err
	}
	return users.Tokens{UserID: userID, AccessToken: access}, nil
}

func (s *Service) issue(ctx context.Context, userID types.EntityID, tokenType jwt.TokenType, kind session.Kind, ttl time.Duration) (string, error) {
	token, jti, err := jwt.CreateToken(userID, tokenType, s.jwt.Secret, ttl)
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperr.ErrInternal, err)
	}
	if err := s.sessions.Store(ctx, userID, kind, jti, ttl); err != nil {
		return "", fmt.Errorf("%w: %s", apperr.ErrInternal, err)
	}
	return token, nil
}

// Logout revokes both tokens of the user.
func (s *Service) Logout(ctx context.Context, userID types.EntityID) error {
	if err := s.sessions.Revoke(ctx, userID); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInternal, err)
	}
	slog.Info("User logged out", slog.String("user_id", userID.String()))
	return nil
}

func (s *Service) user(ctx context.Context, userID types.EntityID) (users.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return users.User{}, storeErr("get user", err)
	}
	return user, nil
}

func (s *Service) Infos(ctx context.Context, userID types.EntityID) (users.Infos, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return users.Infos{}, err
	}
	return users.Infos{Email: user.Email, Username: user.Username}, nil
}

func (s *Service) Streaks(ctx context.Context, userID types.EntityID) (users.Streaks, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return users.Streaks{}, err
	}
	current, err := s.streaks.Current(ctx, userID)
	if err != nil {
		return users.Streaks{}, fmt.Errorf("%w: read streak: %s", apperr.ErrInternal, err)
	}
	return users.Streaks{
		LongestStreak: max(user.LongestStreak, current),
		CurrentStreak: current,
	}, nil
}

// UpdateInfos changes email and/or username. At least one must be set.
func (s *Service) UpdateInfos(ctx context.Context, userID types.EntityID, req users.UpdateInfosRequest) (users.Infos, error) {
	patch := users.Patch{Email: req.Email, Username: req.Username}
	if patch.Empty() {
		return users.Infos{}, fmt.Errorf("%w: email or username is required", apperr.ErrValidation)
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		patch.Email = &email
	}
	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if username == "" {
			return users.Infos{}, fmt.Errorf("%w: username must not be blank", apperr.ErrValidation)
		}
		patch.Username = &username
	}

	if err := s.checkUnique(ctx, userID, patch.Email, patch.Username); err != nil {
		return users.Infos{}, err
	}
	if err := s.store.UpdateUserInfo(ctx, userID, patch); err != nil {
		return users.Infos{}, storeErr("update user", err)
	}
	return s.Infos(ctx, userID)
}

func (s *Service) UpdatePassword(ctx context.Context, userID types.EntityID, req users.UpdatePasswordRequest) error {
	user, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	if !password.CheckPasswordHash(req.OldPassword, user.Password) {
		return fmt.Errorf("%w: old password is incorrect", apperr.ErrValidation)
	}

	hashed, err := password.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%w: hash password: %s", apperr.ErrInternal, err)
	}
	if err := s.store.UpdatePassword(ctx, userID, hashed); err != nil {
		return storeErr("update password", err)
	}
	return nil
}

// MyPosts returns the user's posts newest first, private ones included.
func (s *Service) MyPosts(ctx context.Context, userID types.EntityID) ([]types.Post, error) {
	posts, err := s.store.ListUserPosts(ctx, userID)
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	if posts == nil {
		posts = []types.Post{}
	}
	return posts, nil
}

// UpdatePost edits title, content and visibility of an owned post. An absent
// is_public keeps the current visibility.
func (s *Service) UpdatePost(ctx context.Context, userID types.EntityID, req types.UpdatePostRequest) (types.Post, error) {
	postID, err := types.ParseRequestID("post_id", req.PostID)
	if err != nil {
		return types.Post{}, err
	}
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return types.Post{}, fmt.Errorf("%w: title and content are required", apperr.ErrValidation)
	}

	existing, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return types.Post{}, storeErr("get post", err)
	}
	if existing.UserID != userID {
		return types.Post{}, fmt.Errorf("%w: post belongs to another user", apperr.ErrForbidden)
	}

	changed := existing
	changed.Title = title
	changed.Content = content
	if req.IsPublic != nil {
		changed.IsPublic = *req.IsPublic
	}

	updated, err := s.store.UpdatePost(ctx, changed, userID)
	if err != nil {
		return types.Post{}, storeErr("update post", err)
	}
	if existing.IsPublic || updated.IsPublic {
		s.invalidate(ctx)
	}
	return updated, nil
}

// DeletePost removes an owned post with its comments and attachment.
func (s *Service) DeletePost(ctx context.Context, userID, postID types.EntityID) error {
	deleted, err := s.store.DeletePost(ctx, postID, userID)
	if err != nil {
		return storeErr("delete post", err)
	}

	s.media.Remove(ctx, deleted.MediaKey)
	if deleted.IsPublic {
		s.invalidate(ctx)
	}

	slog.Info("Post deleted",
		slog.String("post_id", postID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("comments", deleted.NumberOfComments))
	return nil
}

// DeleteUser removes the user with everything they wrote, revokes their
// tokens and clears their streak.
func (s *Service) DeleteUser(ctx context.Context, userID types.EntityID) error {
	posts, err := s.store.ListUserPosts(ctx, userID)
	if err != nil {
		return storeErr("list posts", err)
	}
	keys := make(map[string]struct{})
	for _, p := range posts {
		if p.MediaKey != "" {
			keys[p.MediaKey] = struct{}{}
		}
	}
	objects, err := s.media.ListUserMedia(ctx, userID)
	if err != nil {
		slog.Warn("Failed to list user media", slog.String("user_id", userID.String()), slog.String("error", err.Error()))
	}
	for _, o := range objects {
		keys[o.ObjectKey] = struct{}{}
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return storeErr("delete user", err)
	}

	if err := s.sessions.Revoke(ctx, userID); err != nil {
		slog.Warn("Failed to revoke tokens of deleted user", slog.String("user_id", userID.String()), slog.String("error", err.Error()))
	}
	if err := s.streaks.Reset(ctx, userID); err != nil {
		slog.Warn("Failed to reset streak of deleted user", slog.String("user_id", userID.String()), slog.String("error", err.Error()))
	}
	s.invalidate(ctx)
	for key := range keys {
		s.media.Remove(ctx, key)
	}

	slog.Info("User deleted", slog.String("user_id", userID.String()), slog.Int("posts", len(posts)))
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.feed.InvalidateFeed(ctx); err != nil {
		slog.Warn("Failed to invalidate feed cache", slog.String("error", err.Error()))
	}
}

func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, op)
	case errors.Is(err, storage.ErrNotOwner):
		return fmt.Errorf("%w: %s", apperr.ErrForbidden, op)
	case errors.Is(err, storage.ErrDuplicate):
		return fmt.Errorf("%w: %s", apperr.ErrConflict, op)
	default:
		return fmt.Errorf("%w: %s: %s", apperr.ErrInternal, op, err)
	}
}
