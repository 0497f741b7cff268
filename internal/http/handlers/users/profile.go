package users

import (
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/journal-service/internal/apperr"
	"github.com/princekumarofficial/journal-service/internal/http/middleware"
	"github.com/princekumarofficial/journal-service/internal/services/account"
	"github.com/princekumarofficial/journal-service/internal/types"
	"github.com/princekumarofficial/journal-service/internal/types/users"
	"github.com/princekumarofficial/journal-service/internal/utils/response"
)

// GetInfos returns email and username
// @Summary Get profile
// @Tags me
// @Produce json
// @Success 200 {object} users.Infos "Profile"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "User not found"
// @Security BearerAuth
// @Router /me/get_infos [get]
func GetInfos(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		infos, err := accounts.Infos(r.Context(), userID)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, infos)
	}
}

// GetStreaks returns the longest and current streak
// @Summary Get streaks
// @Tags me
// @Produce json
// @Success 200 {object} users.Streaks "Streaks"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /me/streaks [get]
func GetStreaks(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		streaks, err := accounts.Streaks(r.Context(), userID)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, streaks)
	}
}

// MyPosts lists the caller's posts
// @Summary List own posts
// @Description Own posts newest first, private ones included
// @Tags me
// @Produce json
// @Success 200 {array} types.Post "Posts"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /me/posts [get]
func MyPosts(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		posts, err := accounts.MyPosts(r.Context(), userID)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, posts)
	}
}

// UpdateInfos changes email and/or username
// @Summary Update profile
// @Description Only email and username are accepted; any other key is rejected
// @Tags me
// @Accept json
// @Produce json
// @Param infos body users.UpdateInfosRequest true "Fields to change"
// @Success 201 {object} users.Infos "Updated profile"
// @Failure 400 {object} response.Response "Unknown key, invalid value or already used"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /me/update_infos [put]
func UpdateInfos(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		var req users.UpdateInfosRequest
		if err := response.DecodeJSONStrict(r, &req); err != nil {
			response.Error(w, err)
			return
		}

		infos, err := accounts.UpdateInfos(r.Context(), userID, req)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusCreated, infos)
	}
}

// UpdatePassword changes the caller's password
// @Summary Update password
// @Tags me
// @Accept json
// @Produce json
// @Param passwords body users.UpdatePasswordRequest true "Old and new password"
// @Success 201 {object} response.Response "Password updated"
// @Failure 400 {object} response.Response "Missing field or wrong old password"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /me/update_password [put]
func UpdatePassword(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		var req users.UpdatePasswordRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, err)
			return
		}

		if err := accounts.UpdatePassword(r.Context(), userID, req); err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Password updated successfully", nil))
	}
}

// UpdatePost edits an owned post
// @Summary Update own post
// @Description Change title, content and visibility. An absent is_public keeps the current value.
// @Tags me
// @Accept json
// @Produce json
// @Param post body types.UpdatePostRequest true "Post changes"
// @Success 201 {object} types.Post "Updated post"
// @Failure 400 {object} response.Response "Validation error"
// @Failure 401 {object} response.Response "Unauthorized or not the owner"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /me/update_post [put]
func UpdatePost(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		var req types.UpdatePostRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, err)
			return
		}

		post, err := accounts.UpdatePost(r.Context(), userID, req)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusCreated, post)
	}
}

// DeletePost deletes an owned post with its comments
// @Summary Delete own post
// @Tags me
// @Accept json
// @Produce json
// @Param post body types.PostIDRequest true "Post to delete"
// @Success 200 {object} response.Response "Post deleted"
// @Failure 400 {object} response.Response "Missing post_id"
// @Failure 401 {object} response.Response "Unauthorized or not the owner"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /me/delete_post [delete]
func DeletePost(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		var req types.PostIDRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, err)
			return
		}
		postID, err := types.ParseRequestID("post_id", req.PostID)
		if err != nil {
			response.Error(w, err)
			return
		}

		if err := accounts.DeletePost(r.Context(), userID, postID); err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Post deleted successfully", nil))
	}
}

// DeleteUser deletes the caller's account
// @Summary Delete own account
// @Description Deletes the caller's posts, comments and likes, then the account, and revokes its tokens
// @Tags me
// @Produce json
// @Success 200 {object} response.Response "User deleted"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /me/delete_user [delete]
func DeleteUser(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		if err := accounts.DeleteUser(r.Context(), userID); err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("User deleted successfully", nil))
	}
}
