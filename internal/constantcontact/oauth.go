package constantcontact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// defaultTokenLifetime is used when the token response has no expires_in.
	defaultTokenLifetime = 60 * time.Minute

	// tokenSafetyMargin is subtracted from the token lifetime before caching.
	tokenSafetyMargin = 10 * time.Minute
)

// TokenStore provides access to OAuth refresh tokens.
type TokenStore interface {
	// RefreshToken returns the current refresh token.
	RefreshToken(ctx context.Context) (string, error)

	// SaveRefreshToken saves a new refresh token.
	SaveRefreshToken(ctx context.Context, token string) error
}

// TokenExchanger exchanges refresh tokens at the authorization server.
type TokenExchanger struct {
	// apiKey is the application client ID.
	apiKey string

	// clientSecret is empty for PKCE-issued refresh tokens.
	clientSecret string

	// httpClient is the HTTP client for token requests.
	httpClient *http.Client

	// tokenURL is the OAuth token endpoint.
	tokenURL string
}

// Exchange trades a refresh token for a new access token.
// Any failure is returned as a *TokenRefreshError.
func (e *TokenExchanger) Exchange(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	if e.clientSecret == "" {
		data.Set("client_id", e.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &TokenRefreshError{Err: fmt.Errorf("creating token request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if e.clientSecret != "" {
		req.SetBasicAuth(e.apiKey, e.clientSecret)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &TokenRefreshError{Err: fmt.Errorf("executing token request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TokenRefreshError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading token response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TokenRefreshError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, &TokenRefreshError{Err: fmt.Errorf("decoding token response: %w", err)}
	}
	if tokenResp.AccessToken == "" {
		return nil, &TokenRefreshError{Err: errors.New("token response has no access_token")}
	}

	return &tokenResp, nil
}

// NewTokenExchanger creates a TokenExchanger for the given application credentials.
func NewTokenExchanger(apiKey string, clientSecret string, opts ...Option) (*TokenExchanger, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}

	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	return &TokenExchanger{
		apiKey:       apiKey,
		clientSecret: clientSecret,
		httpClient:   o.client(),
		tokenURL:     o.tokenURL,
	}, nil
}

// tokenManager handles OAuth token refresh and caching.
type tokenManager struct {
	// exchanger performs the refresh grant.
	exchanger *TokenExchanger

	// mu protects token.
	mu sync.RWMutex

	// now returns the current time.
	now func() time.Time

	// token is the cached access token; the zero value is never valid.
	token AccessToken

	// tokenStore provides access to refresh tokens.
	tokenStore TokenStore
}

// AccessToken returns a valid access token, refreshing if necessary.
func (tm *tokenManager) AccessToken(ctx context.Context) (string, error) {
	if token, ok := tm.cachedToken(); ok {
		return token, nil
	}
	return tm.refreshAccessToken(ctx)
}

// cachedToken returns the cached access token if valid, or false if refresh is needed.
func (tm *tokenManager) cachedToken() (string, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if tokenValid(tm.token, tm.now()) {
		return tm.token.Value, true
	}
	return "", false
}

// refreshAccessToken fetches a new access token using the refresh token.
func (tm *tokenManager) refreshAccessToken(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if tokenValid(tm.token, tm.now()) {
		return tm.token.Value, nil
	}

	refreshToken, err := tm.tokenStore.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("getting refresh token: %w", err)
	}

	tokenResp, err := tm.exchanger.Exchange(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	if tokenResp.RefreshToken != "" && tokenResp.RefreshToken != refreshToken {
		if err := tm.tokenStore.SaveRefreshToken(ctx, tokenResp.RefreshToken); err != nil {
			return "", fmt.Errorf("saving refresh token: %w", err)
		}
	}

	tm.token = newAccessToken(tokenResp, tm.now())

	return tm.token.Value, nil
}

// newAccessToken builds the cached token with the safety margin applied.
func newAccessToken(resp *TokenResponse, now time.Time) AccessToken {
	lifetime := defaultTokenLifetime
	if resp.ExpiresIn > 0 {
		lifetime = time.Duration(resp.ExpiresIn) * time.Second
	}
	return AccessToken{
		ExpiresAt: now.Add(lifetime - tokenSafetyMargin),
		Value:     resp.AccessToken,
	}
}

// tokenValid reports whether token can be used at now.
func tokenValid(token AccessToken, now time.Time) bool {
	return token.Value != "" && now.Before(token.ExpiresAt)
}

// newTokenManager creates a new token manager for handling OAuth authentication.
func newTokenManager(exchanger *TokenExchanger, tokenStore TokenStore, now func() time.Time) *tokenManager {
	return &tokenManager{
		exchanger:  exchanger,
		now:        now,
		tokenStore: tokenStore,
	}
}
