package facebook

import (
	"context"
	"net/url"

	"go.uber.org/zap"
)

const grantTypeExchangeToken = "fb_exchange_token"

// TokenExtender trades an access token for a long-lived one.
type TokenExtender struct {
	request  ExecuteFunc
	tokenURL string
	logger   *zap.Logger
}

// NewTokenExtender wires an uncached request primitive. Token responses must
// never be served from the response cache.
func NewTokenExtender(request ExecuteFunc, tokenURL string, logger *zap.Logger) *TokenExtender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenExtender{request: request, tokenURL: tokenURL, logger: logger}
}

// Extend returns the renewed token, or false when none was obtained. A failed
// request most often means the user revoked authorization.
func (t *TokenExtender) Extend(ctx context.Context, currentToken, appID, appSecret string) (string, bool) {
	body, err := t.request(ctx, t.tokenURL, Params{
		{Key: "client_id", Value: appID},
		{Key: "client_secret", Value: appSecret},
		{Key: "grant_type", Value: grantTypeExchangeToken},
		{Key: "fb_exchange_token", Value: currentToken},
	})
	if err != nil {
		t.logger.Info("token extension request failed", zap.Error(err))
		return "", false
	}
	return accessTokenFromBody(body)
}

// accessTokenFromBody reads access_token out of a URL-encoded token response.
func accessTokenFromBody(body []byte) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	// Malformed pairs are skipped; the remaining pairs are still usable.
	values, _ := url.ParseQuery(string(body))
	token := values.Get("access_token")
	if token == "" {
		return "", false
	}
	return token, true
}
