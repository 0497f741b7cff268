package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/princekumarofficial/journal-service/internal/types"
)

// Cache key patterns
const (
	FeedPageKey     = "feed:public:page:%d" // feed:public:page:N
	FeedAllKey      = "feed:public:all"
	FeedKeysPattern = "feed:public:*"
)

// FeedCacheDuration keeps hot feed pages briefly; every write path
// invalidates them anyway.
const FeedCacheDuration = 45 * time.Second

// FeedCache holds rendered public feed pages. A nil *FeedCache caches nothing.
type FeedCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewFeedCache(redisClient *redis.Client) *FeedCache {
	return &FeedCache{
		redis: redisClient,
		ttl:   FeedCacheDuration,
	}
}

func pageKey(page int) string {
	if page == 0 {
		return FeedAllKey
	}
	return fmt.Sprintf(FeedPageKey, page)
}

// GetPage returns a cached page. Errors count as a miss.
func (c *FeedCache) GetPage(ctx context.Context, page int) (types.FeedPage, bool) {
	if c == nil {
		return types.FeedPage{}, false
	}

	cached, err := c.redis.Get(ctx, pageKey(page)).Bytes()
	if err != nil {
		return types.FeedPage{}, false
	}

	var fp types.FeedPage
	if err := json.Unmarshal(cached, &fp); err != nil {
		return types.FeedPage{}, false
	}
	return fp, true
}

func (c *FeedCache) SetPage(ctx context.Context, page int, fp types.FeedPage) {
	if c == nil {
		return
	}

	data, err := json.Marshal(fp)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, pageKey(page), data, c.ttl).Err(); err != nil {
		slog.Warn("Failed to cache feed page", slog.Int("page", page), slog.String("error", err.Error()))
	}
}

// InvalidateFeed drops every cached feed page.
func (c *FeedCache) InvalidateFeed(ctx context.Context) error {
	if c == nil {
		return nil
	}

	keys, err := c.feedKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list feed keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...).Err()
}

func (c *FeedCache) feedKeys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := c.redis.Scan(ctx, cursor, FeedKeysPattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}
