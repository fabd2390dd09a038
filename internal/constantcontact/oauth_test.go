package constantcontact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// errMockStore is a sentinel error for testing.
var errMockStore = errors.New("mock store error")

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// Now returns the current fake time.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// tokenServer is a token endpoint that counts exchanges.
type tokenServer struct {
	*httptest.Server

	calls    atomic.Int32
	lastForm atomic.Value
	lastUser atomic.Value
}

func newTokenServer(t *testing.T, status int, resp any) *tokenServer {
	t.Helper()

	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)

		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ts.lastForm.Store(r.PostForm)
		user, pass, _ := r.BasicAuth()
		ts.lastUser.Store(user + ":" + pass)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if s, ok := resp.(string); ok {
			_, _ = w.Write([]byte(s))
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)

	return ts
}

func newTestTokenManager(t *testing.T, ts *tokenServer, clientSecret string, store TokenStore, clock *fakeClock) *tokenManager {
	t.Helper()

	exchanger, err := NewTokenExchanger("api-key", clientSecret, WithTokenURL(ts.URL), WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	return newTokenManager(exchanger, store, clock.Now)
}

func TestTokenValid(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		token AccessToken
		want  bool
	}{
		"zero token": {
			token: AccessToken{},
			want:  false,
		},
		"empty value with future expiry": {
			token: AccessToken{ExpiresAt: now.Add(time.Hour)},
			want:  false,
		},
		"future expiry": {
			token: AccessToken{Value: "tok", ExpiresAt: now.Add(time.Second)},
			want:  true,
		},
		"exactly at expiry": {
			token: AccessToken{Value: "tok", ExpiresAt: now},
			want:  false,
		},
		"past expiry": {
			token: AccessToken{Value: "tok", ExpiresAt: now.Add(-time.Second)},
			want:  false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, tokenValid(tc.token, now))
		})
	}
}

func TestNewAccessToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		expiresIn int
		want      time.Time
	}{
		"applies safety margin": {
			expiresIn: 7200,
			want:      now.Add(110 * time.Minute),
		},
		"missing expires_in uses default lifetime": {
			expiresIn: 0,
			want:      now.Add(50 * time.Minute),
		},
		"negative expires_in uses default lifetime": {
			expiresIn: -10,
			want:      now.Add(50 * time.Minute),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			token := newAccessToken(&TokenResponse{AccessToken: "tok", ExpiresIn: tc.expiresIn}, now)

			require.Equal(t, "tok", token.Value)
			require.Equal(t, tc.want, token.ExpiresAt)
		})
	}
}

func TestNewTokenExchanger(t *testing.T) {
	t.Parallel()

	t.Run("requires API key", func(t *testing.T) {
		t.Parallel()

		exchanger, err := NewTokenExchanger("", "secret")

		require.Error(t, err)
		require.Contains(t, err.Error(), "API key is required")
		require.Nil(t, exchanger)
	})

	t.Run("uses default token URL", func(t *testing.T) {
		t.Parallel()

		exchanger, err := NewTokenExchanger("api-key", "")

		require.NoError(t, err)
		require.Equal(t, DefaultTokenURL, exchanger.tokenURL)
	})

	t.Run("rejects invalid option", func(t *testing.T) {
		t.Parallel()

		exchanger, err := NewTokenExchanger("api-key", "", WithTokenURL(" "))

		require.Error(t, err)
		require.Contains(t, err.Error(), "token URL cannot be empty")
		require.Nil(t, exchanger)
	})
}

func TestTokenExchanger_Exchange(t *testing.T) {
	t.Parallel()

	t.Run("client secret uses basic auth", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, http.StatusOK, TokenResponse{AccessToken: "access", ExpiresIn: 3600})
		exchanger, err := NewTokenExchanger("api-key", "secret", WithTokenURL(ts.URL), WithHTTPClient(ts.Client()))
		require.NoError(t, err)

		resp, err := exchanger.Exchange(context.Background(), "refresh")

		require.NoError(t, err)
		require.Equal(t, "access", resp.AccessToken)
		require.Equal(t, "api-key:secret", ts.lastUser.Load())

		form := ts.lastForm.Load().(url.Values)
		require.Equal(t, []string{"refresh_token"}, form["grant_type"])
		require.Equal(t, []string{"refresh"}, form["refresh_token"])
		require.NotContains(t, form, "client_id")
	})

	t.Run("no client secret sends client_id", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, http.StatusOK, TokenResponse{AccessToken: "access", ExpiresIn: 3600})
		exchanger, err := NewTokenExchanger("api-key", "", WithTokenURL(ts.URL), WithHTTPClient(ts.Client()))
		require.NoError(t, err)

		_, err = exchanger.Exchange(context.Background(), "refresh")

		require.NoError(t, err)
		require.Equal(t, ":", ts.lastUser.Load())

		form := ts.lastForm.Load().(url.Values)
		require.Equal(t, []string{"api-key"}, form["client_id"])
	})

	t.Run("non-2xx returns status and body", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)
		exchanger, err := NewTokenExchanger("api-key", "secret", WithTokenURL(ts.URL), WithHTTPClient(ts.Client()))
		require.NoError(t, err)

		resp, err := exchanger.Exchange(context.Background(), "refresh")

		require.Nil(t, resp)
		var refreshErr *TokenRefreshError
		require.ErrorAs(t, err, &refreshErr)
		require.Equal(t, http.StatusBadRequest, refreshErr.StatusCode)
		require.Equal(t, `{"error":"invalid_grant"}`, refreshErr.Body)
		require.Contains(t, err.Error(), "status 400")
	})

	t.Run("missing access token is an error", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, http.StatusOK, `{"token_type":"Bearer"}`)
		exchanger, err := NewTokenExchanger("api-key", "secret", WithTokenURL(ts.URL), WithHTTPClient(ts.Client()))
		require.NoError(t, err)

		_, err = exchanger.Exchange(context.Background(), "refresh")

		var refreshErr *TokenRefreshError
		require.ErrorAs(t, err, &refreshErr)
		require.Zero(t, refreshErr.StatusCode)
		require.Contains(t, err.Error(), "no access_token")
	})

	t.Run("unreachable server has status zero", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, http.StatusOK, TokenResponse{AccessToken: "access"})
		addr := ts.URL
		ts.Close()

		exchanger, err := NewTokenExchanger("api-key", "secret", WithTokenURL(addr))
		require.NoError(t, err)

		_, err = exchanger.Exchange(context.Background(), "refresh")

		var refreshErr *TokenRefreshError
		require.ErrorAs(t, err, &refreshErr)
		require.Zero(t, refreshErr.StatusCode)
		require.Error(t, refreshErr.Unwrap())
	})
}

func TestTokenManager_AccessToken(t *testing.T) {
	t.Parallel()

	t.Run("second call within lifetime reuses token", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, http.StatusOK, TokenResponse{AccessToken: "access", ExpiresIn: 7200})
		clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
		tm := newTestTokenManager(t, ts, "secret", &mockTokenStore{refreshToken: "refresh"}, clock)

		first, err := tm.AccessToken(context.Background())
		require.NoError(t, err)

		clock.Advance(30 * time.Minute)

		second, err := tm.AccessToken(context.Background())
		require.NoError(t, err)

		require.Equal(t, first, second)
		require.Equal(t, int32(1), ts.calls.Load())
	})

	t.Run("refreshes once after expiry", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, http.StatusOK, TokenResponse{AccessToken: "access", ExpiresIn: 7200})
		clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
		tm := newTestTokenManager(t, ts, "secret", &mockTokenStore{refreshToken: "refresh"}, clock)

		_, err := tm.AccessToken(context.Background())
		require.NoError(t, err)

		clock.Advance(110 * time.Minute)

		_, err = tm.AccessToken(context.Background())
		require.NoError(t, err)
		_, err = tm.AccessToken(context.Background())
		require.NoError(t, err)

		require.Equal(t, int32(2), ts.calls.Load())
	})

	t.Run("refreshes inside safety margin", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, http.StatusOK, TokenResponse{AccessToken: "access", ExpiresIn: 3600})
		clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
		tm := newTestTokenManager(t, ts, "secret", &mockTokenStore{refreshToken: "refresh"}, clock)

		_, err := tm.AccessToken(context.Background())
		require.NoError(t, err)

		// Nominal lifetime is 60 minutes; 55 minutes in is within the margin.
		clock.Advance(55 * time.Minute)

		_, err = tm.AccessToken(context.Background())
		require.NoError(t, err)

		require.Equal(t, int32(2), ts.calls.Load())
	})

	t.Run("saves rotated refresh token", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, http.StatusOK, TokenResponse{AccessToken: "access", RefreshToken: "rotated", ExpiresIn: 3600})
		clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
		store := &mockTokenStore{refreshToken: "refresh"}
		tm := newTestTokenManager(t, ts, "", store, clock)

		_, err := tm.AccessToken(context.Background())

		require.NoError(t, err)
		require.Equal(t, "rotated", store.refreshToken)
	})

	t.Run("store read failure", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, http.StatusOK, TokenResponse{AccessToken: "access"})
		clock := &fakeClock{now: time.Now()}
		tm := newTestTokenManager(t, ts, "secret", &mockTokenStore{getErr: errMockStore}, clock)

		_, err := tm.AccessToken(context.Background())

		require.ErrorIs(t, err, errMockStore)
		require.Contains(t, err.Error(), "getting refresh token")
		require.Zero(t, ts.calls.Load())
	})

	t.Run("store save failure", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, http.StatusOK, TokenResponse{AccessToken: "access", RefreshToken: "rotated"})
		clock := &fakeClock{now: time.Now()}
		tm := newTestTokenManager(t, ts, "secret", &mockTokenStore{refreshToken: "refresh", saveErr: errMockStore}, clock)

		_, err := tm.AccessToken(context.Background())

		require.ErrorIs(t, err, errMockStore)
		require.Contains(t, err.Error(), "saving refresh token")
	})

	t.Run("exchange failure leaves cache empty", func(t *testing.T) {
		t.Parallel()

		ts := newTokenServer(t, http.StatusUnauthorized, `{"error":"invalid_client"}`)
		clock := &fakeClock{now: time.Now()}
		tm := newTestTokenManager(t, ts, "secret", &mockTokenStore{refreshToken: "refresh"}, clock)

		_, err := tm.AccessToken(context.Background())

		var refreshErr *TokenRefreshError
		require.ErrorAs(t, err, &refreshErr)
		require.Equal(t, http.StatusUnauthorized, refreshErr.StatusCode)

		_, ok := tm.cachedToken()
		require.False(t, ok)
	})
}

func TestTokenManager_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t, http.StatusOK, TokenResponse{AccessToken: "concurrent", ExpiresIn: 3600})
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	tm := newTestTokenManager(t, ts, "secret", &mockTokenStore{refreshToken: "refresh"}, clock)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := tm.AccessToken(context.Background())
			require.NoError(t, err)
			require.Equal(t, "concurrent", token)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), ts.calls.Load())
}
