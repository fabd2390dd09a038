package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/clubsync/internal/config"
)

func testConstantContact(secret string) config.LocalConstantContact {
	return config.LocalConstantContact{
		APIKey:       "client-id",
		ClientSecret: secret,
		ListID:       "list-1",
		RedirectURI:  "http://localhost:8085/callback",
	}
}

func TestAuthFlowURL(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		secret   string
		wantPKCE bool
	}{
		"PKCE without client secret": {
			wantPKCE: true,
		},
		"client secret": {
			secret: "shh",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			flow := newAuthFlow(testConstantContact(tc.secret), "https://auth.example.com/authorize", "https://auth.example.com/token")

			parsed, err := url.Parse(flow.authCodeURL())
			require.NoError(t, err)
			require.Equal(t, "auth.example.com", parsed.Host)
			require.Equal(t, "/authorize", parsed.Path)

			query := parsed.Query()
			require.Equal(t, "client-id", query.Get("client_id"))
			require.Equal(t, "http://localhost:8085/callback", query.Get("redirect_uri"))
			require.Equal(t, "code", query.Get("response_type"))
			require.Equal(t, "contact_data offline_access", query.Get("scope"))
			require.Equal(t, flow.state, query.Get("state"))
			require.NotEmpty(t, flow.state)

			if tc.wantPKCE {
				require.NotEmpty(t, flow.verifier)
				require.Equal(t, "S256", query.Get("code_challenge_method"))
				require.NotEmpty(t, query.Get("code_challenge"))
				return
			}
			require.Empty(t, flow.verifier)
			require.Empty(t, query.Get("code_challenge"))
		})
	}
}

func TestAuthFlowStateIsUnique(t *testing.T) {
	t.Parallel()

	a := newAuthFlow(testConstantContact(""), "https://a", "https://t")
	b := newAuthFlow(testConstantContact(""), "https://a", "https://t")

	require.NotEqual(t, a.state, b.state)
	require.NotEqual(t, a.verifier, b.verifier)
}

func TestAuthFlowExchange(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		secret        string
		serverHandler func(t *testing.T, flow *authFlow) http.HandlerFunc
		wantToken     string
		errContains   string
	}{
		"PKCE exchange": {
			serverHandler: func(t *testing.T, flow *authFlow) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					require.NoError(t, r.ParseForm())
					_, _, hasBasic := r.BasicAuth()
					require.False(t, hasBasic)
					require.Equal(t, "client-id", r.PostForm.Get("client_id"))
					require.Equal(t, "auth-code", r.PostForm.Get("code"))
					require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
					require.Equal(t, flow.verifier, r.PostForm.Get("code_verifier"))
					writeTokenJSON(w, "refresh-abc")
				}
			},
			wantToken: "refresh-abc",
		},
		"client secret exchange": {
			secret: "shh",
			serverHandler: func(t *testing.T, _ *authFlow) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					require.NoError(t, r.ParseForm())
					user, pass, ok := r.BasicAuth()
					require.True(t, ok)
					require.Equal(t, "client-id", user)
					require.Equal(t, "shh", pass)
					require.Empty(t, r.PostForm.Get("code_verifier"))
					writeTokenJSON(w, "refresh-xyz")
				}
			},
			wantToken: "refresh-xyz",
		},
		"error response": {
			serverHandler: func(_ *testing.T, _ *authFlow) http.HandlerFunc {
				return func(w http.ResponseWriter, _ *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusBadRequest)
					_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
				}
			},
			errContains: "invalid_grant",
		},
		"no refresh token": {
			serverHandler: func(_ *testing.T, _ *authFlow) http.HandlerFunc {
				return func(w http.ResponseWriter, _ *http.Request) {
					writeTokenJSON(w, "")
				}
			},
			errContains: "no refresh token returned",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var flow *authFlow
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tc.serverHandler(t, flow)(w, r)
			}))
			defer server.Close()

			flow = newAuthFlow(testConstantContact(tc.secret), server.URL+"/authorize", server.URL+"/token")

			token, err := flow.exchange(context.Background(), "auth-code")

			if tc.errContains != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantToken, token)
		})
	}
}

func writeTokenJSON(w http.ResponseWriter, refreshToken string) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{
		"access_token": "access-1",
		"expires_in":   7200,
		"token_type":   "Bearer",
	}
	if refreshToken != "" {
		body["refresh_token"] = refreshToken
	}
	_ = json.NewEncoder(w).Encode(body)
}

func TestCallbackAddress(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		redirectURI string
		wantAddr    string
		wantPath    string
		errContains string
	}{
		"default": {
			redirectURI: "http://localhost:8085/callback",
			wantAddr:    "localhost:8085",
			wantPath:    "/callback",
		},
		"loopback without path": {
			redirectURI: "http://127.0.0.1:9000",
			wantAddr:    "127.0.0.1:9000",
			wantPath:    "/",
		},
		"no port": {
			redirectURI: "http://localhost/cb",
			wantAddr:    "localhost:80",
			wantPath:    "/cb",
		},
		"https rejected": {
			redirectURI: "https://localhost:8085/callback",
			errContains: "local http URL",
		},
		"remote host rejected": {
			redirectURI: "http://example.com/callback",
			errContains: "must point at localhost",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			addr, path, err := callbackAddress(tc.redirectURI)

			if tc.errContains != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantAddr, addr)
			require.Equal(t, tc.wantPath, path)
		})
	}
}

func TestCallbackHandler(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		query       string
		wantCode    string
		errContains string
	}{
		"successful authorization": {
			query:    "code=auth-code&state=expected",
			wantCode: "auth-code",
		},
		"provider error": {
			query:       "error=access_denied&error_description=User%20denied%20access",
			errContains: "access_denied: User denied access",
		},
		"missing code": {
			query:       "state=expected",
			errContains: "no authorization code",
		},
		"state mismatch": {
			query:       "code=auth-code&state=other",
			errContains: "state mismatch",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			codeChan := make(chan string, 1)
			errChan := make(chan error, 1)
			h := callbackHandler("expected", codeChan, errChan)

			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/callback?"+tc.query, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, "text/html", rec.Header().Get("Content-Type"))

			if tc.errContains != "" {
				require.Empty(t, codeChan)
				err := <-errChan
				require.Contains(t, err.Error(), tc.errContains)
				require.Contains(t, rec.Body.String(), "Authorization Failed")
				return
			}
			require.Empty(t, errChan)
			require.Equal(t, tc.wantCode, <-codeChan)
			require.Contains(t, rec.Body.String(), "Authorization Successful")
		})
	}
}

func TestCallbackHandlerDeliversFirstOutcomeOnly(t *testing.T) {
	t.Parallel()

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)
	h := callbackHandler("s", codeChan, errChan)

	for _, code := range []string{"first", "second"} {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code="+code, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	require.Equal(t, "first", <-codeChan)
	require.Empty(t, codeChan)
}

func TestStartOAuthCallbackServer(t *testing.T) {
	t.Parallel()

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server, err := startOAuthCallbackServer("127.0.0.1:0", "/callback", "state-1", codeChan, errChan)
	require.NoError(t, err)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	resp, err := http.Get("http://" + server.Addr + "/callback?code=test-auth-code&state=state-1")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case code := <-codeChan:
		require.Equal(t, "test-auth-code", code)
	case err := <-errChan:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for code")
	}
}

func TestWriteCallbackResponse(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()

	writeCallbackResponse(w, "Test <Title>", "Test message here.")

	require.Equal(t, "text/html", w.Header().Get("Content-Type"))

	body := w.Body.String()
	require.Contains(t, body, "<h1>Test &lt;Title&gt;</h1>")
	require.Contains(t, body, "<p>Test message here.</p>")
	require.Contains(t, body, "You can close this window.")
}

func TestBrowserCommand(t *testing.T) {
	t.Parallel()

	testURL := "https://example.com/auth"
	name, args := browserCommand(testURL)

	require.NotEmpty(t, name)
	require.True(t, slices.Contains(args, testURL), "URL should be in command arguments")
}
