// Package memory is an in-process Storage used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/princekumarofficial/journal-service/internal/storage"
	"github.com/princekumarofficial/journal-service/internal/types"
	"github.com/princekumarofficial/journal-service/internal/types/users"
)

type Memory struct {
	mu       sync.RWMutex
	users    map[types.EntityID]users.User
	posts    map[types.EntityID]types.Post
	comments map[types.EntityID]types.Comment
}

func New() *Memory {
	return &Memory{
		users:    make(map[types.EntityID]users.User),
		posts:    make(map[types.EntityID]types.Post),
		comments: make(map[types.EntityID]types.Comment),
	}
}

func clonePost(p types.Post) types.Post {
	p.Likes = append([]types.EntityID{}, p.Likes...)
	p.Comments = append([]types.EntityID{}, p.Comments...)
	return p
}

func removeID(ids []types.EntityID, id types.EntityID) ([]types.EntityID, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...), true
		}
	}
	return ids, false
}

func (m *Memory) CreateUser(_ context.Context, user users.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
			return storage.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id types.EntityID) (users.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return users.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (users.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return users.User{}, storage.ErrNotFound
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (users.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return users.User{}, storage.ErrNotFound
}

func (m *Memory) UpdateUserInfo(_ context.Context, id types.EntityID, patch users.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	for otherID, other := range m.users {
		if otherID == id {
			continue
		}
		if patch.Email != nil && strings.EqualFold(other.Email, *patch.Email) {
			return storage.ErrDuplicate
		}
		if patch.Username != nil && other.Username == *patch.Username {
			return storage.ErrDuplicate
		}
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	m.users[id] = u
	return nil
}

func (m *Memory) UpdatePassword(_ context.Context, id types.EntityID, hashedPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.Password = hashedPassword
	m.users[id] = u
	return nil
}

func (m *Memory) RaiseLongestStreak(_ context.Context, id types.EntityID, value int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if value > u.LongestStreak {
		u.LongestStreak = value
		m.users[id] = u
	}
	return u.LongestStreak, nil
}

func (m *Memory) DeleteUser(_ context.Context, id types.EntityID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return storage.ErrNotFound
	}

	for postID, p := range m.posts {
		if p.UserID != id {
			continue
		}
		m.deletePostLocked(postID)
	}

	for commentID, c := range m.comments {
		if c.UserID != id {
			continue
		}
		m.detachCommentLocked(c)
		delete(m.comments, commentID)
	}

	for postID, p := range m.posts {
		if likes, removed := removeID(p.Likes, id); removed {
			p.Likes = likes
			p.NumberOfLikes--
			m.posts[postID] = p
		}
	}

	delete(m.users, id)
	return nil
}

func (m *Memory) CreatePost(_ context.Context, post types.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.posts[post.ID] = clonePost(post)
	return nil
}

func (m *Memory) GetPost(_ context.Context, id types.EntityID) (types.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return types.Post{}, storage.ErrNotFound
	}
	return clonePost(p), nil
}

func (m *Memory) sortedPosts(keep func(types.Post) bool) []types.Post {
	out := make([]types.Post, 0)
	for _, p := range m.posts {
		if keep(p) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DatePosted.After(out[j].DatePosted)
	})
	return out
}

func (m *Memory) ListPublicPosts(_ context.Context, offset, limit int) ([]types.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts := m.sortedPosts(func(p types.Post) bool { return p.IsPublic })
	if offset >= len(posts) {
		return []types.Post{}, nil
	}
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts, nil
}

func (m *Memory) CountPublicPosts(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, p := range m.posts {
		if p.IsPublic {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListUserPosts(_ context.Context, userID types.EntityID) ([]types.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sortedPosts(func(p types.Post) bool { return p.UserID == userID }), nil
}

func (m *Memory) UpdatePost(_ context.Context, post types.Post, ownerID types.EntityID) (types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[post.ID]
	if !ok {
		return types.Post{}, storage.ErrNotFound
	}
	if p.UserID != ownerID {
		return types.Post{}, storage.ErrNotOwner
	}
	p.Title = post.Title
	p.Content = post.Content
	p.IsPublic = post.IsPublic
	m.posts[post.ID] = p
	return clonePost(p), nil
}

func (m *Memory) DeletePost(_ context.Context, id, ownerID types.EntityID) (types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return types.Post{}, storage.ErrNotFound
	}
	if p.UserID != ownerID {
		return types.Post{}, storage.ErrNotOwner
	}
	m.deletePostLocked(id)
	return p, nil
}

// deletePostLocked removes a post's comments before the post itself.
func (m *Memory) deletePostLocked(id types.EntityID) {
	for commentID, c := range m.comments {
		if c.PostID == id {
			delete(m.comments, commentID)
		}
	}
	delete(m.posts, id)
}

func (m *Memory) AddLike(_ context.Context, postID, userID types.EntityID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[postID]
	if !ok {
		return false, storage.ErrNotFound
	}
	if types.ContainsID(p.Likes, userID) {
		return false, nil
	}
	p.Likes = append(p.Likes, userID)
	p.NumberOfLikes++
	m.posts[postID] = p
	return true, nil
}

func (m *Memory) RemoveLike(_ context.Context, postID, userID types.EntityID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[postID]
	if !ok {
		return false, storage.ErrNotFound
	}
	likes, removed := removeID(p.Likes, userID)
	if !removed {
		return false, nil
	}
	p.Likes = likes
	p.NumberOfLikes--
	m.posts[postID] = p
	return true, nil
}

func (m *Memory) CreateComment(_ context.Context, comment types.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[comment.PostID]
	if !ok {
		return storage.ErrNotFound
	}
	m.comments[comment.ID] = comment
	p.Comments = append(p.Comments, comment.ID)
	p.NumberOfComments++
	m.posts[p.ID] = p
	return nil
}

func (m *Memory) GetComment(_ context.Context, id types.EntityID) (types.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.comments[id]
	if !ok {
		return types.Comment{}, storage.ErrNotFound
	}
	return c, nil
}

func (m *Memory) UpdateComment(_ context.Context, id, authorID types.EntityID, body string) (types.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return types.Comment{}, storage.ErrNotFound
	}
	if c.UserID != authorID {
		return types.Comment{}, storage.ErrNotOwner
	}
	c.Body = body
	m.comments[id] = c
	return c, nil
}

func (m *Memory) DeleteComment(_ context.Context, id, authorID, postID types.EntityID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok || c.UserID != authorID || c.PostID != postID {
		return false, nil
	}
	m.detachCommentLocked(c)
	delete(m.comments, id)
	return true, nil
}

func (m *Memory) detachCommentLocked(c types.Comment) {
	p, ok := m.posts[c.PostID]
	if !ok {
		return
	}
	if comments, removed := removeID(p.Comments, c.ID); removed {
		p.Comments = comments
		p.NumberOfComments--
		m.posts[p.ID] = p
	}
}

func (m *Memory) ListComments(_ context.Context, postID types.EntityID) ([]types.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Comment, 0)
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DatePosted.Before(out[j].DatePosted)
	})
	return out, nil
}

func (m *Memory) DeleteOrphanComments(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, c := range m.comments {
		if _, ok := m.posts[c.PostID]; !ok {
			delete(m.comments, id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) ReconcileCounters(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, p := range m.posts {
		kept := p.Comments[:0:0]
		for _, cid := range p.Comments {
			if _, ok := m.comments[cid]; ok {
				kept = append(kept, cid)
			}
		}
		p.Comments = kept

		if p.NumberOfLikes != len(p.Likes) || p.NumberOfComments != len(p.Comments) {
			p.NumberOfLikes = len(p.Likes)
			p.NumberOfComments = len(p.Comments)
			m.posts[id] = p
			n++
		}
	}
	return n, nil
}

// ForcePost overwrites a stored post as is. Tests use it to simulate drift.
func (m *Memory) ForcePost(post types.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.ID] = clonePost(post)
}

// ForceComment stores a comment without touching its post.
func (m *Memory) ForceComment(comment types.Comment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[comment.ID] = comment
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}
