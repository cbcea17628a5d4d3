package facebook

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mspsf/fbsession/internal/repository"
)

// DefaultCacheTTL is how long a cached Graph response stays valid.
const DefaultCacheTTL = 300 * time.Second

const cacheKeyPrefix = "fb_request_"

// ExecuteFunc performs an uncached request and returns the raw response body.
type ExecuteFunc func(ctx context.Context, url string, params Params) ([]byte, error)

// ResponseCache stores raw response bodies keyed by request fingerprint.
// Expiry is enforced by the backing store.
type ResponseCache struct {
	store  repository.KeyValueStore
	ttl    time.Duration
	logger *zap.Logger
}

func NewResponseCache(store repository.KeyValueStore, ttl time.Duration, logger *zap.Logger) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseCache{store: store, ttl: ttl, logger: logger}
}

// Key returns the storage key used for (url, params).
func (c *ResponseCache) Key(url string, params Params) string {
	return cacheKeyPrefix + Fingerprint(url, params)
}

// Fetch returns the cached body for (url, params), calling exec on a miss.
// Concurrent misses are not coalesced; the last write wins.
func (c *ResponseCache) Fetch(ctx context.Context, url string, params Params, exec ExecuteFunc) ([]byte, error) {
	key := c.Key(url, params)

	cached, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("response cache read failed", zap.String("key", key), zap.Error(err))
	} else if len(cached) > 0 {
		c.logger.Debug("response cache hit", zap.String("key", key))
		return cached, nil
	}

	body, err := exec(ctx, url, params)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, key, body, c.ttl); err != nil {
		c.logger.Warn("response cache write failed", zap.String("key", key), zap.Error(err))
	}
	return body, nil
}
