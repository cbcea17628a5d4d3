package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
	hasTTL    bool
}

func (e memEntry) isExpired(now time.Time) bool {
	return e.hasTTL && !now.Before(e.expiresAt)
}

type memoryKeyValueStore struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	entries map[string]memEntry
}

// NewMemoryKeyValueStore returns a process-local store. Pass nil to use the real clock.
func NewMemoryKeyValueStore(clock clockwork.Clock) KeyValueStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &memoryKeyValueStore{
		clock:   clock,
		entries: make(map[string]memEntry),
	}
}

func (s *memoryKeyValueStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.hasTTL = true
		entry.expiresAt = s.clock.Now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

func (s *memoryKeyValueStore) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := s.lookup(key)
	if !ok {
		return nil, nil
	}
	return entry.value, nil
}

func (s *memoryKeyValueStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// lookup drops the entry on read once it has expired.
func (s *memoryKeyValueStore) lookup(key string) (memEntry, bool) {
	now := s.clock.Now()

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return memEntry{}, false
	}
	if entry.isExpired(now) {
		s.mu.Lock()
		if cur, still := s.entries[key]; still && cur.isExpired(now) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return memEntry{}, false
	}
	return entry, true
}
