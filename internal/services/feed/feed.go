// Package feed serves the public feed and the social actions on posts: likes,
// unlikes and comments. Every membership change goes through a single store
// update that moves the set and its counter together.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/princekumarofficial/journal-service/internal/apperr"
	"github.com/princekumarofficial/journal-service/internal/cache"
	"github.com/princekumarofficial/journal-service/internal/events"
	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/types"
)

// PageSize is the number of posts on one feed page.
const PageSize = 20

// InfoPageOutOfRange is set on a feed page past the last post.
const InfoPageOutOfRange = "page out of range"

type Service struct {
	store     storage.Storage
	feed      *cache.FeedCache
	publisher events.Publisher
	now       func() time.Time
}

// NewService wires the feed engine. feed and publisher may be nil.
func NewService(store storage.Storage, feed *cache.FeedCache, publisher events.Publisher) *Service {
	return &Service{
		store:     store,
		feed:      feed,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ParsePage reads the page query parameter. An empty value selects page 0,
// which means the whole feed.
func ParsePage(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: page argument must be an integer", apperr.ErrValidation)
	}
	if page < 1 {
		return 0, fmt.Errorf("%w: page number must be greater or equal to 1", apperr.ErrValidation)
	}
	return page, nil
}

// GetFeed returns public posts newest first.
func (s *Service) GetFeed(ctx context.Context, page int) (types.FeedPage, error) {
	if cached, ok := s.feed.GetPage(ctx, page); ok {
		return cached, nil
	}

	fp := types.FeedPage{Page: page}
	if page == 0 {
		posts, err := s.store.ListPublicPosts(ctx, 0, 0)
		if err != nil {
			return types.FeedPage{}, fmt.Errorf("%w: list feed: %s", apperr.ErrInternal, err)
		}
		fp.Posts = nonNil(posts)
		s.feed.SetPage(ctx, page, fp)
		return fp, nil
	}

	total, err := s.store.CountPublicPosts(ctx)
	if err != nil {
		return types.FeedPage{}, fmt.Errorf("%w: count feed: %s", apperr.ErrInternal, err)
	}
	offset := (page - 1) * PageSize
	if offset > total {
		fp.Posts = []types.Post{}
		fp.Info = InfoPageOutOfRange
		return fp, nil
	}

	posts, err := s.store.ListPublicPosts(ctx, offset, PageSize)
	if err != nil {
		return types.FeedPage{}, fmt.Errorf("%w: list feed page %d: %s", apperr.ErrInternal, page, err)
	}
	fp.Posts = nonNil(posts)
	s.feed.SetPage(ctx, page, fp)
	return fp, nil
}

func nonNil(posts []types.Post) []types.Post {
	if posts == nil {
		return []types.Post{}
	}
	return posts
}

// GetPost returns a post the viewer may see: public posts and their own.
func (s *Service) GetPost(ctx context.Context, viewerID, postID types.EntityID) (types.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return types.Post{}, storeErr("get post", err)
	}
	if !post.IsPublic && post.UserID != viewerID {
		return types.Post{}, fmt.Errorf("%w: post not found", apperr.ErrNotFound)
	}
	return post, nil
}

func (s *Service) Like(ctx context.Context, userID, postID types.EntityID) (types.Post, error) {
	if _, err := s.GetPost(ctx, userID, postID); err != nil {
		return types.Post{}, err
	}

	applied, err := s.store.AddLike(ctx, postID, userID)
	if err != nil {
		return types.Post{}, storeErr("like post", err)
	}
	if !applied {
		return types.Post{}, apperr.ErrAlreadyLiked
	}

	post, err := s.afterToggle(ctx, postID)
	if err != nil {
		return types.Post{}, err
	}

	if s.publisher != nil {
		username := ""
		if liker, err := s.store.GetUserByID(ctx, userID); err == nil {
			username = liker.Username
		}
		if err := s.publisher.PublishPostLiked(post, userID, username); err != nil {
			slog.Warn("Failed to publish like event", slog.String("post_id", postID.String()), slog.String("error", err.Error()))
		}
	}
	return post, nil
}

func (s *Service) Unlike(ctx context.Context, userID, postID types.EntityID) (types.Post, error) {
	if _, err := s.GetPost(ctx, userID, postID); err != nil {
		return types.Post{}, err
	}

	applied, err := s.store.RemoveLike(ctx, postID, userID)
	if err != nil {
		return types.Post{}, storeErr("unlike post", err)
	}
	if !applied {
		return types.Post{}, apperr.ErrNotLiked
	}
	return s.afterToggle(ctx, postID)
}

// afterToggle reloads the post and drops cached feed pages holding its old counters.
func (s *Service) afterToggle(ctx context.Context, postID types.EntityID) (types.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return types.Post{}, storeErr("reload post", err)
	}
	if post.IsPublic {
		s.invalidate(ctx)
	}
	return post, nil
}

func (s *Service) AddComment(ctx context.Context, userID, postID types.EntityID, body string) (types.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return types.Comment{}, fmt.Errorf("%w: body is required", apperr.ErrValidation)
	}

	post, err := s.GetPost(ctx, userID, postID)
	if err != nil {
		return types.Comment{}, err
	}
	author, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return types.Comment{}, fmt.Errorf("%w: resolve user %s: %s", apperr.ErrInternal, userID, err)
	}

	comment := types.Comment{
		ID:         types.NewEntityID(),
		PostID:     postID,
		UserID:     userID,
		Username:   author.Username,
		Body:       body,
		DatePosted: s.now(),
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return types.Comment{}, storeErr("create comment", err)
	}

	if post.IsPublic {
		s.invalidate(ctx)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishPostCommented(post, comment); err != nil {
			slog.Warn("Failed to publish comment event", slog.String("post_id", postID.String()), slog.String("error", err.Error()))
		}
	}

	slog.Info("Comment added",
		slog.String("comment_id", comment.ID.String()),
		slog.String("post_id", postID.String()),
		slog.String("user_id", userID.String()))
	return comment, nil
}

// UpdateComment changes the body of a comment written by userID on postID.
func (s *Service) UpdateComment(ctx context.Context, userID, postID, commentID types.EntityID, body string) (types.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return types.Comment{}, fmt.Errorf("%w: body is required", apperr.ErrValidation)
	}

	existing, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return types.Comment{}, storeErr("get comment", err)
	}
	if existing.PostID != postID {
		return types.Comment{}, fmt.Errorf("%w: comment not found on post", apperr.ErrNotFound)
	}

	updated, err := s.store.UpdateComment(ctx, commentID, userID, body)
	if err != nil {
		return types.Comment{}, storeErr("update comment", err)
	}
	return updated, nil
}

// DeleteComment removes a comment written by userID on postID.
func (s *Service) DeleteComment(ctx context.Context, userID, postID, commentID types.EntityID) error {
	deleted, err := s.store.DeleteComment(ctx, commentID, userID, postID)
	if err != nil {
		return storeErr("delete comment", err)
	}
	if !deleted {
		existing, err := s.store.GetComment(ctx, commentID)
		if err != nil {
			return storeErr("get comment", err)
		}
		if existing.PostID != postID {
			return fmt.Errorf("%w: comment not found on post", apperr.ErrNotFound)
		}
		return fmt.Errorf("%w: comment belongs to another user", apperr.ErrForbidden)
	}

	s.invalidate(ctx)
	slog.Info("Comment deleted",
		slog.String("comment_id", commentID.String()),
		slog.String("post_id", postID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// ListComments returns a visible post's comments oldest first.
func (s *Service) ListComments(ctx context.Context, viewerID, postID types.EntityID) ([]types.Comment, error) {
	if _, err := s.GetPost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, postID)
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	return comments, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.feed.InvalidateFeed(ctx); err != nil {
		slog.Warn("Failed to invalidate feed cache", slog.String("error", err.Error()))
	}
}

// storeErr maps a store failure to the error kinds callers report.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, op)
	case errors.Is(err, storage.ErrNotOwner):
		return fmt.Errorf("%w: %s", apperr.ErrForbidden, op)
	default:
		return fmt.Errorf("%w: %s: %s", apperr.ErrInternal, op, err)
	}
}
