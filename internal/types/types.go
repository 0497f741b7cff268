package types

import "time"

// Post is a journal entry. Likes and Comments are kept in lockstep with their
// counters by the store: NumberOfLikes == len(Likes) and
// NumberOfComments == len(Comments).
type Post struct {
	ID               EntityID   `json:"_id"`
	UserID           EntityID   `json:"user_id"`
	Username         string     `json:"username"`
	Title            string     `json:"title"`
	Content          string     `json:"content"`
	IsPublic         bool       `json:"is_public"`
	MediaKey         string     `json:"media_key,omitempty"`
	DatePosted       time.Time  `json:"datePosted"`
	Likes            []EntityID `json:"likes"`
	NumberOfLikes    int        `json:"number_of_likes"`
	Comments         []EntityID `json:"comments"`
	NumberOfComments int        `json:"number_of_comments"`
}

// CreatedPost is the response for an accepted journal entry. NewRecord is not
// persisted on the post.
type CreatedPost struct {
	Post
	NewRecord     bool `json:"new_record"`
	CurrentStreak int  `json:"current_streak"`
	LongestStreak int  `json:"longest_streak"`
}

type Comment struct {
	ID         EntityID  `json:"_id"`
	PostID     EntityID  `json:"post_id"`
	UserID     EntityID  `json:"user_id"`
	Username   string    `json:"username"`
	Body       string    `json:"body"`
	DatePosted time.Time `json:"date_posted"`
}

// LogRequest is the payload of POST /log. IsPublic is a pointer so that an
// absent field defaults to false while a non-boolean value fails decoding.
type LogRequest struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	IsPublic *bool  `json:"is_public"`
	MediaKey string `json:"media_key"`
}

// UpdatePostRequest is the payload of PUT /me/update_post.
type UpdatePostRequest struct {
	PostID   string `json:"post_id" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	IsPublic *bool  `json:"is_public"`
}

type PostIDRequest struct {
	PostID string `json:"post_id" validate:"required"`
}

type CommentRequest struct {
	PostID string `json:"post_id" validate:"required"`
	Body   string `json:"body" validate:"required"`
}

type UpdateCommentRequest struct {
	PostID    string `json:"post_id" validate:"required"`
	CommentID string `json:"comment_id" validate:"required"`
	Body      string `json:"body" validate:"required"`
}

type DeleteCommentRequest struct {
	PostID    string `json:"post_id" validate:"required"`
	CommentID string `json:"comment_id" validate:"required"`
}

// FeedPage is one page of public posts. Info is set when the page is past the end.
type FeedPage struct {
	Page  int    `json:"page,omitempty"`
	Posts []Post `json:"posts"`
	Info  string `json:"info,omitempty"`
}
