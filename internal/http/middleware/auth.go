package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/princekumarofficial/journal-service/internal/apperr"
	"github.com/princekumarofficial/journal-service/internal/session"
	"github.com/princekumarofficial/journal-service/internal/types"
	"github.com/princekumarofficial/journal-service/internal/utils/jwt"
	"github.com/princekumarofficial/journal-service/internal/utils/response"
)

type contextKey string

const (
	UserIDKey  contextKey = "userID"
	TokenIDKey contextKey = "tokenID"
)

var ErrRevoked = fmt.Errorf("%w: token has been revoked", apperr.ErrUnauthorized)

// Gate checks a request and returns the context the next gate or the handler
// runs with. Any error stops the request.
type Gate func(r *http.Request) (context.Context, error)

// Chain runs gates in order before next. The first failing gate answers the
// request.
func Chain(gates ...Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, gate := range gates {
				ctx, err := gate(r)
				if err != nil {
					response.Error(w, err, slog.String("path", r.URL.Path))
					return
				}
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenSource pulls the raw token out of a request.
type TokenSource func(r *http.Request) (string, error)

// FromHeader reads "Authorization: Bearer <token>".
func FromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("%w: authorization header required", apperr.ErrUnauthorized)
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("%w: invalid authorization header format", apperr.ErrUnauthorized)
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", fmt.Errorf("%w: token not provided", apperr.ErrUnauthorized)
	}
	return token, nil
}

// FromQuery reads the token query parameter. Browsers cannot set headers on
// WebSocket upgrades.
func FromQuery(r *http.Request) (string, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return "", fmt.Errorf("%w: token not provided", apperr.ErrUnauthorized)
	}
	return token, nil
}

// BearerGate verifies a signed token of the given type and puts its user id
// and token id into the context.
func BearerGate(source TokenSource, secret string, tokenType jwt.TokenType) Gate {
	return func(r *http.Request) (context.Context, error) {
		raw, err := source(r)
		if err != nil {
			return nil, err
		}

		claims, err := jwt.ParseToken(raw, tokenType, secret)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", apperr.ErrUnauthorized, err)
		}
		userID, err := claims.UserID()
		if err != nil {
			return nil, fmt.Errorf("%w: invalid token subject", apperr.ErrUnauthorized)
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		return context.WithValue(ctx, TokenIDKey, claims.ID), nil
	}
}

// RevocationGate admits a token only while the registry still honours its id.
// It must run after BearerGate.
func RevocationGate(registry *session.Registry, kind session.Kind) Gate {
	return func(r *http.Request) (context.Context, error) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			return nil, fmt.Errorf("%w: user not authenticated", apperr.ErrUnauthorized)
		}
		jti, _ := r.Context().Value(TokenIDKey).(string)

		valid, err := registry.Valid(r.Context(), userID, kind, jti)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", apperr.ErrInternal, err)
		}
		if !valid {
			return nil, ErrRevoked
		}
		return r.Context(), nil
	}
}

// Access is the pipeline for endpoints taking an access token.
func Access(registry *session.Registry, secret string) func(http.Handler) http.Handler {
	return Chain(
		BearerGate(FromHeader, secret, jwt.AccessToken),
		RevocationGate(registry, session.Access),
	)
}

// Refresh is the pipeline for the token refresh endpoint.
func Refresh(registry *session.Registry, secret string) func(http.Handler) http.Handler {
	return Chain(
		BearerGate(FromHeader, secret, jwt.RefreshToken),
		RevocationGate(registry, session.Refresh),
	)
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (types.EntityID, bool) {
	userID, ok := ctx.Value(UserIDKey).(types.EntityID)
	return userID, ok
}
