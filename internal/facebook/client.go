package facebook

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"mspsf/fbsession/internal/repository"
	"mspsf/fbsession/pkg/crypto"
)

const DefaultGraphURL = "https://graph.facebook.com/"

// Config configures one Facebook application.
type Config struct {
	AppID     string
	AppSecret string
	GraphURL  string
	// UserID identifies the host user this client acts for. Session state is
	// kept in that user's namespace; empty means the shared namespace.
	UserID            string
	FileUploadSupport bool
	CacheTTL          time.Duration
	Timeout           time.Duration
	UserAgent         string
	CABundle          []byte
}

// Client binds session persistence, response caching and the uncached
// request primitive for one Facebook application.
type Client struct {
	cfg      Config
	store    repository.KeyValueStore
	session  *SessionStore
	cache    *ResponseCache
	executor *Executor
	extender *TokenExtender
	logger   *zap.Logger
}

func NewClient(cfg Config, store repository.KeyValueStore, logger *zap.Logger) (*Client, error) {
	if cfg.AppID == "" {
		return nil, ErrMissingAppID
	}
	if cfg.GraphURL == "" {
		cfg.GraphURL = DefaultGraphURL
	}
	if !strings.HasSuffix(cfg.GraphURL, "/") {
		cfg.GraphURL += "/"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("app_id", cfg.AppID))

	c := &Client{
		cfg:     cfg,
		store:   store,
		session: newUserSession(store, cfg.UserID, logger),
		cache:   NewResponseCache(store, cfg.CacheTTL, logger),
		executor: NewExecutor(ExecutorConfig{
			Timeout:           cfg.Timeout,
			UserAgent:         cfg.UserAgent,
			FileUploadSupport: cfg.FileUploadSupport,
			CABundle:          cfg.CABundle,
		}, logger),
		logger: logger,
	}
	c.extender = NewTokenExtender(c.execute, c.GraphURL("oauth/access_token"), logger)
	return c, nil
}

// ForUser returns a copy of c acting for userID with its own session
// namespace. The response cache stays shared.
func (c *Client) ForUser(userID string) *Client {
	cp := *c
	cp.cfg.UserID = userID
	cp.session = newUserSession(c.store, userID, c.logger)
	return &cp
}

func newUserSession(store repository.KeyValueStore, userID string, logger *zap.Logger) *SessionStore {
	if userID != "" {
		store = repository.NewPrefixedKeyValueStore(store, repository.UserKeyPrefix(userID))
	}
	return NewSessionStore(store, logger)
}

func (c *Client) UserID() string         { return c.cfg.UserID }
func (c *Client) AppID() string          { return c.cfg.AppID }
func (c *Client) Session() *SessionStore { return c.session }

// GraphURL joins path onto the Graph API base URL.
func (c *Client) GraphURL(path string) string {
	return c.cfg.GraphURL + strings.TrimPrefix(path, "/")
}

// MakeRequest dispatches through the response cache.
func (c *Client) MakeRequest(ctx context.Context, url string, params Params, handle *http.Client) ([]byte, error) {
	return c.cache.Fetch(ctx, url, params, func(ctx context.Context, url string, params Params) ([]byte, error) {
		return c.executor.Execute(ctx, url, params, handle)
	})
}

// OAuthRequest dispatches without caching, adding the current access token
// when params carry none.
func (c *Client) OAuthRequest(ctx context.Context, url string, params Params) ([]byte, error) {
	if _, ok := params.Get("access_token"); !ok {
		params = params.With("access_token", c.AccessToken(ctx))
	}
	return c.execute(ctx, url, params)
}

// Api performs a Graph call for path. Token-issuing oauth/ paths bypass the
// response cache.
func (c *Client) Api(ctx context.Context, path string, params Params) ([]byte, error) {
	if isTokenPath(path) {
		return c.OAuthRequest(ctx, c.GraphURL(path), params)
	}
	if _, ok := params.Get("access_token"); !ok {
		params = params.With("access_token", c.AccessToken(ctx))
	}
	return c.MakeRequest(ctx, c.GraphURL(path), params, nil)
}

// AccessToken returns the user's session token, or the application token when
// no user token is stored.
func (c *Client) AccessToken(ctx context.Context) string {
	if token := c.session.Get(ctx, SessionKeyAccessToken, ""); token != "" {
		return token
	}
	return c.cfg.AppID + "|" + c.cfg.AppSecret
}

// ExtendAccessToken renews the stored user token and persists the result.
func (c *Client) ExtendAccessToken(ctx context.Context) (string, bool) {
	current := c.session.Get(ctx, SessionKeyAccessToken, "")
	if current == "" {
		return "", false
	}
	token, ok := c.extender.Extend(ctx, current, c.cfg.AppID, c.cfg.AppSecret)
	if !ok {
		c.logger.Info("no extended access token obtained", zap.String("user_id", c.cfg.UserID))
		return "", false
	}
	if err := c.session.Set(ctx, SessionKeyAccessToken, token); err != nil {
		c.logger.Error("failed to persist extended access token",
			zap.String("user_id", c.cfg.UserID), zap.Error(err))
	}
	return token, true
}

// ExchangeCode trades an authorization code for a user access token and
// persists both on success.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (string, bool) {
	if code == "" {
		return "", false
	}
	body, err := c.execute(ctx, c.GraphURL("oauth/access_token"), Params{
		{Key: "client_id", Value: c.cfg.AppID},
		{Key: "client_secret", Value: c.cfg.AppSecret},
		{Key: "redirect_uri", Value: redirectURI},
		{Key: "code", Value: code},
	})
	if err != nil {
		c.logger.Info("authorization code exchange failed",
			zap.String("user_id", c.cfg.UserID), zap.Error(err))
		return "", false
	}
	token, ok := accessTokenFromBody(body)
	if !ok {
		return "", false
	}
	if err := c.session.Set(ctx, SessionKeyCode, code); err != nil {
		c.logger.Error("failed to persist authorization code", zap.Error(err))
	}
	if err := c.session.Set(ctx, SessionKeyAccessToken, token); err != nil {
		c.logger.Error("failed to persist access token", zap.Error(err))
	}
	return token, true
}

// EstablishCSRFState returns the stored OAuth state, creating one if needed.
func (c *Client) EstablishCSRFState(ctx context.Context) (string, error) {
	if state := c.session.Get(ctx, SessionKeyState, ""); state != "" {
		return state, nil
	}
	state, err := crypto.GenerateCSRFState()
	if err != nil {
		return "", err
	}
	if err := c.session.Set(ctx, SessionKeyState, state); err != nil {
		return "", err
	}
	return state, nil
}

// ConsumeCSRFState reports whether state matches the stored value. A match
// clears the stored state so it cannot be replayed.
func (c *Client) ConsumeCSRFState(ctx context.Context, state string) bool {
	stored := c.session.Get(ctx, SessionKeyState, "")
	if stored == "" || state == "" || !crypto.EqualStrings(stored, state) {
		return false
	}
	if err := c.session.Clear(ctx, SessionKeyState); err != nil {
		c.logger.Warn("failed to clear consumed state", zap.Error(err))
	}
	return true
}

// Logout clears all persisted session state.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.ClearAll(ctx)
}

// isTokenPath matches oauth/ endpoints, with or without a vX.Y version segment.
func isTokenPath(path string) bool {
	path = strings.ToLower(strings.TrimLeft(path, "/"))
	if seg, rest, ok := strings.Cut(path, "/"); ok && strings.HasPrefix(seg, "v") {
		if _, err := strconv.ParseFloat(seg[1:], 64); err == nil {
			path = rest
		}
	}
	return path == "oauth" || strings.HasPrefix(path, "oauth/")
}

func (c *Client) execute(ctx context.Context, url string, params Params) ([]byte, error) {
	return c.executor.Execute(ctx, url, params, nil)
}
