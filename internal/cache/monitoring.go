package cache

import (
	"context"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/journal-service/internal/utils/response"
)

// Pinger is anything with a health check, the document store in practice.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStats reports the backing services of the API.
type HealthStats struct {
	RedisConnected bool  `json:"redis_connected"`
	StoreConnected bool  `json:"store_connected"`
	FeedPages      int   `json:"cached_feed_pages"`
	KeyCount       int64 `json:"total_keys"`
}

// Health reports redis and store connectivity. It answers 503 when either is
// unreachable.
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} response.Response "Healthy"
// @Failure 503 {object} response.Response "Degraded"
// @Router /health [get]
func Health(redisClient *redis.Client, store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		stats := HealthStats{
			RedisConnected: redisClient.Ping(ctx).Err() == nil,
			StoreConnected: store.Ping(ctx) == nil,
		}

		if stats.RedisConnected {
			if n, err := redisClient.DBSize(ctx).Result(); err == nil {
				stats.KeyCount = n
			}
			fc := &FeedCache{redis: redisClient}
			if keys, err := fc.feedKeys(ctx); err == nil {
				stats.FeedPages = len(keys)
			}
		}

		if !stats.RedisConnected || !stats.StoreConnected {
			resp := response.RequestOK("Service degraded", stats)
			resp.Status = response.StatusError
			response.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Service healthy", stats))
	}
}
