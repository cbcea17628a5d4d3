package facebook

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mspsf/fbsession/internal/repository"
)

// SessionKey names one piece of persisted OAuth session state.
type SessionKey string

const (
	SessionKeyState       SessionKey = "state"
	SessionKeyCode        SessionKey = "code"
	SessionKeyAccessToken SessionKey = "access_token"
	SessionKeyUserID      SessionKey = "user_id"
)

const sessionKeyPrefix = "facebook_"

// SupportedSessionKeys lists every key the session store accepts, in clear order.
var SupportedSessionKeys = []SessionKey{
	SessionKeyState,
	SessionKeyCode,
	SessionKeyAccessToken,
	SessionKeyUserID,
}

// Supported reports whether k is one of SupportedSessionKeys.
func (k SessionKey) Supported() bool {
	for _, s := range SupportedSessionKeys {
		if k == s {
			return true
		}
	}
	return false
}

// Namespaced returns the storage name for k.
func (k SessionKey) Namespaced() string {
	return sessionKeyPrefix + string(k)
}

// SessionStore persists session state for a fixed set of keys. Unsupported
// keys are logged and ignored.
type SessionStore struct {
	store  repository.KeyValueStore
	logger *zap.Logger
}

func NewSessionStore(store repository.KeyValueStore, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{store: store, logger: logger}
}

func (s *SessionStore) Set(ctx context.Context, key SessionKey, value string) error {
	if !s.check(key, "set") {
		return nil
	}
	return s.store.Set(ctx, key.Namespaced(), []byte(value), 0)
}

// Get returns the stored value for key, or def when the key is unsupported,
// absent, empty, or unreadable.
func (s *SessionStore) Get(ctx context.Context, key SessionKey, def string) string {
	if !s.check(key, "get") {
		return def
	}
	val, err := s.store.Get(ctx, key.Namespaced())
	if err != nil {
		s.logger.Warn("failed to read session data", zap.String("key", string(key)), zap.Error(err))
		return def
	}
	if len(val) == 0 {
		return def
	}
	return string(val)
}

func (s *SessionStore) Clear(ctx context.Context, key SessionKey) error {
	if !s.check(key, "clear") {
		return nil
	}
	return s.store.Delete(ctx, key.Namespaced())
}

// ClearAll clears every supported key. A failure on one key does not stop the rest.
func (s *SessionStore) ClearAll(ctx context.Context) error {
	var errs error
	for _, key := range SupportedSessionKeys {
		errs = multierr.Append(errs, s.Clear(ctx, key))
	}
	return errs
}

func (s *SessionStore) check(key SessionKey, op string) bool {
	if key.Supported() {
		return true
	}
	s.logger.Warn("unsupported key passed to session store",
		zap.String("op", op),
		zap.String("key", string(key)),
		zap.Error(ErrInvalidSessionKey),
	)
	return false
}
