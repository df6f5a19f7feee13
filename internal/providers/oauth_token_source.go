package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"bjugstad/fleetsync/internal/config"
	"bjugstad/fleetsync/internal/constants"
	"bjugstad/fleetsync/internal/logging"
)

// tokenRefreshMargin is how long before expiry a cached token is already
// considered stale. Avoids presenting a token that dies mid-request.
const tokenRefreshMargin = 60

// tokenResponse is the standard OAuth2 token endpoint payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// OAuthTokenSource fetches and caches one client-credentials bearer token.
// Config names are resolved lazily on first use. Concurrent refreshes (two
// jobs hitting the same expired cache) collapse into one token request.
type OAuthTokenSource struct {
	cfg *config.Resolver

	tokenURLKey     string
	clientIDKey     string
	clientSecretKey string

	// scopeKey is optional. When scopePrefixClientID is set the posted
	// scope is "<client_id>/<scope>", the form the CAT token endpoint
	// (AAD v2 resource App ID URI) expects.
	scopeKey            string
	scopePrefixClientID bool

	provider string // log tag

	client *http.Client

	mu     sync.Mutex
	token  string
	expiry int64 // epoch seconds

	group singleflight.Group

	now func() time.Time
}

func NewOAuthTokenSource(cfg *config.Resolver, provider, tokenURLKey, clientIDKey, clientSecretKey string) *OAuthTokenSource {
	return &OAuthTokenSource{
		cfg:             cfg,
		provider:        provider,
		tokenURLKey:     tokenURLKey,
		clientIDKey:     clientIDKey,
		clientSecretKey: clientSecretKey,
		client:          &http.Client{Timeout: 20 * time.Second},
		now:             time.Now,
	}
}

// WithScope makes the token request include a scope parameter.
func (t *OAuthTokenSource) WithScope(scopeKey string, prefixClientID bool) *OAuthTokenSource {
	t.scopeKey = scopeKey
	t.scopePrefixClientID = prefixClientID
	return t
}

// Token returns a bearer token, refreshing when the cached one is within
// the safety margin of its expiry.
func (t *OAuthTokenSource) Token(ctx context.Context) (string, error) {
	now := t.now().Unix()

	t.mu.Lock()
	if t.token != "" && t.expiry-tokenRefreshMargin > now {
		token := t.token
		t.mu.Unlock()
		return token, nil
	}
	t.mu.Unlock()

	v, err, _ := t.group.Do("token", func() (interface{}, error) {
		return t.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (t *OAuthTokenSource) fetchToken(ctx context.Context) (string, error) {
	tokenURL, err := t.cfg.Require(ctx, t.tokenURLKey)
	if err != nil {
		return "", err
	}
	clientID, err := t.cfg.Require(ctx, t.clientIDKey)
	if err != nil {
		return "", err
	}
	clientSecret, err := t.cfg.Require(ctx, t.clientSecretKey)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}
	if t.scopeKey != "" {
		scope, err := t.cfg.Require(ctx, t.scopeKey)
		if err != nil {
			return "", err
		}
		if t.scopePrefixClientID {
			scope = fmt.Sprintf("%s/%s", clientID, scope)
		}
		form.Set("scope", scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "failed to build token request",
			Err:     err,
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: fmt.Sprintf("token request to %s failed", tokenURL),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return "", &ProviderError{
			Code:    constants.ErrCodeUpstreamAuth,
			Message: fmt.Sprintf("TOKEN %s -> %d", tokenURL, resp.StatusCode),
			Details: string(body),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		return "", &ProviderError{
			Code:    constants.ErrCodeInvalidResponse,
			Message: "token endpoint returned an undecodable body",
			Details: string(body),
			Err:     err,
		}
	}

	expiresIn := tr.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}

	t.mu.Lock()
	t.token = tr.AccessToken
	t.expiry = t.now().Unix() + expiresIn
	t.mu.Unlock()

	logging.Debug("token acquired", "provider", t.provider, "token_len", len(tr.AccessToken))
	return tr.AccessToken, nil
}
