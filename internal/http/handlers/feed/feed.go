package feed

import (
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/journal-service/internal/apperr"
	"github.com/princekumarofficial/journal-service/internal/http/middleware"
	"github.com/princekumarofficial/journal-service/internal/services/feed"
	"github.com/princekumarofficial/journal-service/internal/types"
	"github.com/princekumarofficial/journal-service/internal/utils/response"
)

// GetPosts returns the public feed
// @Summary Get the public feed
// @Description Public posts newest first. Without page every post is returned; with page, 20 posts per page.
// @Tags feed
// @Produce json
// @Param page query int false "Page number, starting at 1"
// @Success 200 {array} types.Post "Posts"
// @Success 200 {object} response.Response "Page out of range"
// @Failure 400 {object} response.Response "Invalid page"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /feed/get_posts [get]
func GetPosts(posts *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := feed.ParsePage(r.URL.Query().Get("page"))
		if err != nil {
			response.Error(w, err)
			return
		}

		fp, err := posts.GetFeed(r.Context(), page)
		if err != nil {
			response.Error(w, err)
			return
		}

		if fp.Info != "" {
			response.WriteJSON(w, http.StatusOK, response.RequestOK(fp.Info, fp.Posts))
			return
		}
		response.WriteJSON(w, http.StatusOK, fp.Posts)
	}
}

// GetPost returns one post
// @Summary Get a post
// @Tags feed
// @Produce json
// @Param post_id query string true "Post id"
// @Success 200 {object} types.Post "Post"
// @Failure 400 {object} response.Response "Missing or invalid post_id"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /feed/post [get]
func GetPost(posts *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		postID, err := types.ParseRequestID("post_id", r.URL.Query().Get("post_id"))
		if err != nil {
			response.Error(w, err)
			return
		}

		post, err := posts.GetPost(r.Context(), userID, postID)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, post)
	}
}

// postIDFromBody decodes a {"post_id": ...} body.
func postIDFromBody(r *http.Request) (types.EntityID, error) {
	var req types.PostIDRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		return types.NilID, err
	}
	return types.ParseRequestID("post_id", req.PostID)
}

// Like handles liking a post
// @Summary Like a post
// @Tags feed
// @Accept json
// @Produce json
// @Param post body types.PostIDRequest true "Post to like"
// @Success 200 {object} types.Post "Post liked"
// @Failure 400 {object} response.Response "Missing post_id or already liked"
// @Failure 404 {object} response.Response "Post not found"
// @Failure 429 {object} response.Response "Too many requests"
// @Security BearerAuth
// @Router /feed/like [post]
func Like(posts *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		postID, err := postIDFromBody(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		post, err := posts.Like(r.Context(), userID, postID)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Post liked successfully", post))
	}
}

// Unlike handles removing a like
// @Summary Unlike a post
// @Tags feed
// @Accept json
// @Produce json
// @Param post body types.PostIDRequest true "Post to unlike"
// @Success 200 {object} types.Post "Post unliked"
// @Failure 400 {object} response.Response "Missing post_id or not liked"
// @Failure 404 {object} response.Response "Post not found"
// @Failure 429 {object} response.Response "Too many requests"
// @Security BearerAuth
// @Router /feed/unlike [post]
func Unlike(posts *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		postID, err := postIDFromBody(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		post, err := posts.Unlike(r.Context(), userID, postID)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Post unliked successfully", post))
	}
}

// Comment handles commenting on a post
// @Summary Comment on a post
// @Tags feed
// @Accept json
// @Produce json
// @Param comment body types.CommentRequest true "Comment"
// @Success 201 {object} types.Comment "Comment created"
// @Failure 400 {object} response.Response "Validation error"
// @Failure 404 {object} response.Response "Post not found"
// @Failure 429 {object} response.Response "Too many requests"
// @Security BearerAuth
// @Router /feed/comment [post]
func Comment(posts *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		var req types.CommentRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, err)
			return
		}
		postID, err := types.ParseRequestID("post_id", req.PostID)
		if err != nil {
			response.Error(w, err)
			return
		}

		comment, err := posts.AddComment(r.Context(), userID, postID, req.Body)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusCreated, comment)
	}
}

// UpdateComment handles editing a comment
// @Summary Edit own comment
// @Tags feed
// @Accept json
// @Produce json
// @Param comment body types.UpdateCommentRequest true "Comment changes"
// @Success 201 {object} types.Comment "Comment updated"
// @Failure 400 {object} response.Response "Validation error"
// @Failure 401 {object} response.Response "Unauthorized or not the author"
// @Failure 404 {object} response.Response "Comment not found"
// @Security BearerAuth
// @Router /feed/update_comment [put]
func UpdateComment(posts *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		var req types.UpdateCommentRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, err)
			return
		}
		postID, err := types.ParseRequestID("post_id", req.PostID)
		if err != nil {
			response.Error(w, err)
			return
		}
		commentID, err := types.ParseRequestID("comment_id", req.CommentID)
		if err != nil {
			response.Error(w, err)
			return
		}

		comment, err := posts.UpdateComment(r.Context(), userID, postID, commentID, req.Body)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusCreated, comment)
	}
}

// DeleteComment handles deleting a comment
// @Summary Delete own comment
// @Tags feed
// @Accept json
// @Produce json
// @Param comment body types.DeleteCommentRequest true "Comment to delete"
// @Success 200 {object} response.Response "Comment deleted"
// @Failure 400 {object} response.Response "Validation error"
// @Failure 401 {object} response.Response "Unauthorized or not the author"
// @Failure 404 {object} response.Response "Comment not found"
// @Security BearerAuth
// @Router /feed/delete_comment [delete]
func DeleteComment(posts *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		var req types.DeleteCommentRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, err)
			return
		}
		postID, err := types.ParseRequestID("post_id", req.PostID)
		if err != nil {
			response.Error(w, err)
			return
		}
		commentID, err := types.ParseRequestID("comment_id", req.CommentID)
		if err != nil {
			response.Error(w, err)
			return
		}

		if err := posts.DeleteComment(r.Context(), userID, postID, commentID); err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Comment deleted successfully", nil))
	}
}

// PostComments lists the comments of a post
// @Summary List comments
// @Description Comments of a visible post, oldest first
// @Tags feed
// @Produce json
// @Param post_id query string true "Post id"
// @Success 200 {array} types.Comment "Comments"
// @Failure 400 {object} response.Response "Missing or invalid post_id"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /feed/post_comments [get]
func PostComments(posts *feed.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		postID, err := types.ParseRequestID("post_id", r.URL.Query().Get("post_id"))
		if err != nil {
			response.Error(w, err)
			return
		}

		comments, err := posts.ListComments(r.Context(), userID, postID)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, comments)
	}
}
