package repository

import (
	"context"
	"time"
)

// KeyValueStore abstracts durable key-value storage with per-entry expiry.
// Implementations: in-memory, Redis, Valkey, or the SQL options table.
//
// Get returns (nil, nil) when the key is absent or expired.
// A ttl <= 0 on Set stores the value without expiry.
type KeyValueStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
