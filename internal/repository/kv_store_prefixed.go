package repository

import (
	"context"
	"time"
)

type prefixedKeyValueStore struct {
	next   KeyValueStore
	prefix string
}

// NewPrefixedKeyValueStore scopes every key of next under prefix, giving each
// owner an isolated view of a shared backend.
func NewPrefixedKeyValueStore(next KeyValueStore, prefix string) KeyValueStore {
	if prefix == "" {
		return next
	}
	return &prefixedKeyValueStore{next: next, prefix: prefix}
}

// UserKeyPrefix is the namespace holding one host user's keys.
func UserKeyPrefix(userID string) string {
	return "user:" + userID + ":"
}

func (s *prefixedKeyValueStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.next.Set(ctx, s.prefix+key, value, ttl)
}

func (s *prefixedKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.next.Get(ctx, s.prefix+key)
}

func (s *prefixedKeyValueStore) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, s.prefix+key)
}
