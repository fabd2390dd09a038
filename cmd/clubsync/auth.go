package main

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/peteski22/clubsync/internal/config"
	"github.com/peteski22/clubsync/internal/constantcontact"
	"github.com/peteski22/clubsync/internal/storage"
)

const (
	authTimeout = 5 * time.Minute
	httpTimeout = 30 * time.Second
)

// authScopes are the scopes a sync needs; offline_access yields the refresh token.
var authScopes = []string{"contact_data", "offline_access"}

// authFlow holds the parameters of one authorization attempt.
type authFlow struct {
	config *oauth2.Config
	state  string

	// verifier is the PKCE code verifier; empty when a client secret is used.
	verifier string
}

// newAuthFlow prepares an authorization. Without a client secret the flow uses
// PKCE and sends the client ID in the token request body.
func newAuthFlow(cc config.LocalConstantContact, authURL string, tokenURL string) *authFlow {
	flow := &authFlow{
		config: &oauth2.Config{
			ClientID:     cc.APIKey,
			ClientSecret: cc.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthStyle: oauth2.AuthStyleInHeader,
				AuthURL:   authURL,
				TokenURL:  tokenURL,
			},
			RedirectURL: cc.RedirectURI,
			Scopes:      authScopes,
		},
		state: uuid.NewString(),
	}

	if cc.ClientSecret == "" {
		flow.config.Endpoint.AuthStyle = oauth2.AuthStyleInParams
		flow.verifier = oauth2.GenerateVerifier()
	}

	return flow
}

// authCodeURL returns the consent page URL.
func (f *authFlow) authCodeURL() string {
	var opts []oauth2.AuthCodeOption
	if f.verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(f.verifier))
	}
	return f.config.AuthCodeURL(f.state, opts...)
}

// exchange trades the authorization code for a refresh token.
func (f *authFlow) exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: httpTimeout})

	var opts []oauth2.AuthCodeOption
	if f.verifier != "" {
		opts = append(opts, oauth2.VerifierOption(f.verifier))
	}

	token, err := f.config.Exchange(ctx, code, opts...)
	if err != nil {
		return "", fmt.Errorf("exchanging authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return "", errors.New("no refresh token returned, check the application allows offline_access")
	}

	return token.RefreshToken, nil
}

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize clubsync with Constant Contact",
		Long: `Open the Constant Contact consent page, wait for the redirect on the
configured redirect_uri and save the resulting refresh token to ~/.clubsync/token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuth(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

// runAuth performs the browser authorization flow and saves the refresh token.
func runAuth(ctx context.Context, out io.Writer) error {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	_, _ = fmt.Fprintln(out, bold("=== Constant Contact Authorization ==="))
	_, _ = fmt.Fprintln(out)

	cfg, err := config.LoadLocal()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tokenPath, err := config.TokenFilePath()
	if err != nil {
		return fmt.Errorf("getting token path: %w", err)
	}

	addr, path, err := callbackAddress(cfg.ConstantContact.RedirectURI)
	if err != nil {
		return err
	}

	flow := newAuthFlow(cfg.ConstantContact, constantcontact.DefaultAuthorizeURL, cfg.ConstantContact.TokenURL)

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server, err := startOAuthCallbackServer(addr, path, flow.state, codeChan, errChan)
	if err != nil {
		return fmt.Errorf("starting callback server: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	consentURL := flow.authCodeURL()

	_, _ = fmt.Fprintln(out, "Opening browser for Constant Contact authorization...")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "If the browser doesn't open, visit this URL:")
	_, _ = fmt.Fprintln(out, consentURL)
	_, _ = fmt.Fprintln(out)

	if err := openBrowser(consentURL); err != nil {
		_, _ = fmt.Fprintf(out, "Could not open browser: %s\n", err)
	}

	_, _ = fmt.Fprintln(out, "Waiting for authorization...")

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return fmt.Errorf("authorization failed: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(authTimeout):
		return fmt.Errorf("authorization timed out after %s", authTimeout)
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Authorization received, exchanging for tokens...")

	refreshToken, err := flow.exchange(ctx, code)
	if err != nil {
		return err
	}

	tokenStore, err := storage.NewFileTokenStore(tokenPath)
	if err != nil {
		return fmt.Errorf("creating token store: %w", err)
	}

	if err := tokenStore.SaveRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("saving refresh token: %w", err)
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, green("Authorization successful!"))
	_, _ = fmt.Fprintf(out, "Refresh token saved to: %s\n", tokenPath)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "You can now run:")
	_, _ = fmt.Fprintln(out, "  clubsync sync --dry-run")

	return nil
}

// callbackAddress derives the local listen address and path from the redirect URI.
func callbackAddress(redirectURI string) (string, string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("parsing redirect URI: %w", err)
	}
	if u.Scheme != "http" {
		return "", "", fmt.Errorf("redirect URI must be a local http URL, got %q", redirectURI)
	}

	host := u.Hostname()
	if host != "localhost" && host != "127.0.0.1" {
		return "", "", fmt.Errorf("redirect URI must point at localhost, got %q", host)
	}

	port := u.Port()
	if port == "" {
		port = "80"
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	return net.JoinHostPort(host, port), path, nil
}

// browserCommand returns the command and arguments to open a URL on the current OS.
func browserCommand(targetURL string) (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{targetURL}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", targetURL}
	default:
		return "xdg-open", []string{targetURL}
	}
}

// openBrowser opens the default web browser to the specified URL.
func openBrowser(targetURL string) error {
	name, args := browserCommand(targetURL)
	cmd := exec.Command(name, args...)
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	return cmd.Start()
}

// writeCallbackResponse writes an HTML response for the OAuth callback page.
// It escapes the title and message to prevent XSS attacks.
func writeCallbackResponse(w http.ResponseWriter, title string, message string) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(
		w,
		`<html><body><h1>%s</h1><p>%s</p><p>You can close this window.</p></body></html>`,
		html.EscapeString(title),
		html.EscapeString(message),
	)
}

// callbackHandler receives the authorization redirect. Only the first outcome is
// delivered; later requests still get a page but are otherwise ignored.
func callbackHandler(expectedState string, codeChan chan<- string, errChan chan<- error) http.HandlerFunc {
	fail := func(w http.ResponseWriter, err error, message string) {
		select {
		case errChan <- err:
		default:
		}
		writeCallbackResponse(w, "Authorization Failed", message)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		code := query.Get("code")
		errDesc := query.Get("error_description")
		errMsg := query.Get("error")
		state := query.Get("state")

		if errMsg != "" {
			fail(w, fmt.Errorf("%s: %s", errMsg, errDesc), fmt.Sprintf("%s: %s", errMsg, errDesc))
			return
		}

		if code == "" {
			fail(w, errors.New("no authorization code received"), "No authorization code received.")
			return
		}

		if state != expectedState {
			fail(w, errors.New("state mismatch: possible CSRF attack"), "State validation failed.")
			return
		}

		select {
		case codeChan <- code:
		default:
		}
		writeCallbackResponse(w, "Authorization Successful", "You can return to the terminal.")
	}
}

// startOAuthCallbackServer listens on addr and serves the callback on path.
// The returned server's Addr is the bound address.
func startOAuthCallbackServer(
	addr string,
	path string,
	expectedState string,
	codeChan chan<- string,
	errChan chan<- error,
) (*http.Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(path, callbackHandler(expectedState, codeChan, errChan))

	server := &http.Server{
		Addr:              listener.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- fmt.Errorf("server error: %w", err):
			default:
			}
		}
	}()

	return server, nil
}
