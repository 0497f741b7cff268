package users

import (
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/journal-service/internal/apperr"
	"github.com/princekumarofficial/journal-service/internal/http/middleware"
	"github.com/princekumarofficial/journal-service/internal/services/account"
	"github.com/princekumarofficial/journal-service/internal/types/users"
	"github.com/princekumarofficial/journal-service/internal/utils/response"
)

// SignUp handles user registration
// @Summary Register a new user
// @Description Register a new user account. Email and username must be unused.
// @Tags users
// @Accept json
// @Produce json
// @Param user body users.SignUpRequest true "User registration details"
// @Success 201 {object} users.User "User created successfully"
// @Failure 400 {object} response.Response "Missing field or already used"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /register [post]
func SignUp(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signupReq users.SignUpRequest
		if err := response.DecodeJSON(r, &signupReq); err != nil {
			response.Error(w, err)
			return
		}

		user, err := accounts.Register(r.Context(), signupReq)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, user)
	}
}

// Login handles user authentication
// @Summary Authenticate a user
// @Description Authenticate a user and return an access and a refresh token
// @Tags users
// @Accept json
// @Produce json
// @Param user body users.SignInRequest true "User login details"
// @Success 200 {object} users.Tokens "User authenticated successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Invalid email or password"
// @Failure 429 {object} response.Response "Too many attempts"
// @Router /login [post]
func Login(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signinReq users.SignInRequest
		if err := response.DecodeJSON(r, &signinReq); err != nil {
			response.Error(w, err)
			return
		}

		tokens, err := accounts.Login(r.Context(), signinReq)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, tokens)
	}
}

// Refresh issues a new access token
// @Summary Refresh the access token
// @Description Exchange a valid refresh token for a new access token
// @Tags users
// @Produce json
// @Success 200 {object} users.Tokens "New access token"
// @Failure 401 {object} response.Response "Invalid, expired or revoked token"
// @Security BearerAuth
// @Router /refresh [post]
func Refresh(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		tokens, err := accounts.Refresh(r.Context(), userID)
		if err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		response.WriteJSON(w, http.StatusOK, tokens)
	}
}

// Logout revokes the tokens of the caller
// @Summary Log out
// @Description Revoke both the access and the refresh token of the caller
// @Tags users
// @Success 204 "Logged out"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /logout [post]
func Logout(accounts *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		if err := accounts.Logout(r.Context(), userID); err != nil {
			response.Error(w, err, slog.String("user_id", userID.String()))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// WhoAmI returns the id behind the access token
// @Summary Current user id
// @Tags users
// @Produce json
// @Success 200 {object} map[string]string "Current user id"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router / [get]
func WhoAmI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.Error(w, apperr.ErrUnauthorized)
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"user_id": userID.String(),
		})
	}
}
