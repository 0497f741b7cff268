package storage

import (
	"context"
	"errors"

	"github.com/princekumarofficial/journal-service/internal/types"
	"github.com/princekumarofficial/journal-service/internal/types/users"
)

var (
	// ErrNotFound is returned when no document matches the lookup
	ErrNotFound = errors.New("document not found")

	// ErrDuplicate is returned when a unique field (email, username) is taken
	ErrDuplicate = errors.New("duplicate key")

	// ErrNotOwner is returned when the caller does not own the document
	ErrNotOwner = errors.New("document not owned by caller")
)

// Storage is the document store behind the services. Every method that
// changes a membership set (likes, comments) also adjusts its counter in the
// same store operation.
type Storage interface {
	CreateUser(ctx context.Context, user users.User) error
	GetUserByID(ctx context.Context, id types.EntityID) (users.User, error)
	GetUserByEmail(ctx context.Context, email string) (users.User, error)
	GetUserByUsername(ctx context.Context, username string) (users.User, error)
	UpdateUserInfo(ctx context.Context, id types.EntityID, patch users.Patch) error
	UpdatePassword(ctx context.Context, id types.EntityID, hashedPassword string) error
	// RaiseLongestStreak stores max(longest_streak, value) and returns the stored value.
	RaiseLongestStreak(ctx context.Context, id types.EntityID, value int) (int, error)
	// DeleteUser removes the user's posts (with their comments), the user's
	// comments and likes elsewhere, then the user.
	DeleteUser(ctx context.Context, id types.EntityID) error

	CreatePost(ctx context.Context, post types.Post) error
	GetPost(ctx context.Context, id types.EntityID) (types.Post, error)
	// ListPublicPosts returns public posts newest first. limit <= 0 means no limit.
	ListPublicPosts(ctx context.Context, offset, limit int) ([]types.Post, error)
	CountPublicPosts(ctx context.Context) (int, error)
	ListUserPosts(ctx context.Context, userID types.EntityID) ([]types.Post, error)
	// UpdatePost changes title, content and visibility of a post owned by ownerID.
	UpdatePost(ctx context.Context, post types.Post, ownerID types.EntityID) (types.Post, error)
	// DeletePost deletes the post's comments and then the post, if owned by ownerID.
	DeletePost(ctx context.Context, id, ownerID types.EntityID) (types.Post, error)
	// AddLike adds userID to likes and increments number_of_likes in one
	// update. It reports false when userID was already present.
	AddLike(ctx context.Context, postID, userID types.EntityID) (bool, error)
	// RemoveLike is the inverse of AddLike. It reports false when userID was absent.
	RemoveLike(ctx context.Context, postID, userID types.EntityID) (bool, error)

	// CreateComment stores the comment and appends its id to the post's
	// comments while incrementing number_of_comments.
	CreateComment(ctx context.Context, comment types.Comment) error
	GetComment(ctx context.Context, id types.EntityID) (types.Comment, error)
	UpdateComment(ctx context.Context, id, authorID types.EntityID, body string) (types.Comment, error)
	// DeleteComment removes a comment written by authorID on postID and
	// detaches it from the post. It reports false when nothing matched.
	DeleteComment(ctx context.Context, id, authorID, postID types.EntityID) (bool, error)
	ListComments(ctx context.Context, postID types.EntityID) ([]types.Comment, error)

	// DeleteOrphanComments removes comments whose post no longer exists.
	DeleteOrphanComments(ctx context.Context) (int64, error)
	// ReconcileCounters resets counters that drifted from their sets.
	ReconcileCounters(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
