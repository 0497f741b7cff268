package middleware

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/journal-service/internal/config"
	"github.com/princekumarofficial/journal-service/internal/ratelimit"
	"github.com/princekumarofficial/journal-service/internal/utils/response"
)

// Rate limited actions
const (
	ActionLike    = "like"
	ActionUnlike  = "unlike"
	ActionComment = "comment"
	ActionLogin   = "login"
)

type RateLimitConfig struct {
	limiters map[string]*ratelimit.Bucket
}

func NewRateLimitConfig(redisClient *redis.Client, cfg config.RateLimit) *RateLimitConfig {
	rlc := &RateLimitConfig{
		limiters: make(map[string]*ratelimit.Bucket),
	}

	// social actions are limited per user
	for _, action := range []string{ActionLike, ActionUnlike, ActionComment} {
		rlc.limiters[action] = ratelimit.NewBucket(redisClient, action, cfg.SocialPerMinute)
	}

	// login is limited per client address
	rlc.limiters[ActionLogin] = ratelimit.NewBucket(redisClient, ActionLogin, cfg.LoginPerMinute)

	return rlc
}

// Subject names who a request is counted against.
type Subject func(r *http.Request) (string, bool)

// ByUser counts requests against the authenticated user. It must run after
// the access pipeline.
func ByUser(r *http.Request) (string, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		return "", false
	}
	return userID.String(), true
}

// ByClientIP counts requests against the remote address.
func ByClientIP(r *http.Request) (string, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr, r.RemoteAddr != ""
	}
	return host, true
}

func (rlc *RateLimitConfig) RateLimitMiddleware(action string, subject Subject) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter, exists := rlc.limiters[action]
			if !exists {
				next.ServeHTTP(w, r)
				return
			}

			key, ok := subject(r)
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("user not authenticated")))
				return
			}

			res, err := limiter.Take(r.Context(), key)
			if err != nil {
				slog.Error("Rate limit check failed", slog.String("action", action), slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", "60")

			if !res.Allowed {
				response.WriteJSON(w, http.StatusTooManyRequests, response.Response{
					Status: response.StatusError,
					Code:   "too_many_requests",
					Error:  "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitedHandler wraps a handler with rate limiting for a specific action
func (rlc *RateLimitConfig) RateLimitedHandler(action string, subject Subject, handler http.Handler) http.Handler {
	return rlc.RateLimitMiddleware(action, subject)(handler)
}
