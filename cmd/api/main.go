// Package main runs the clubsync HTTP API, either as a plain server or as an
// AWS Lambda function URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambdaurl"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/peteski22/clubsync/internal/config"
	"github.com/peteski22/clubsync/internal/constantcontact"
	"github.com/peteski22/clubsync/internal/httpapi"
	"github.com/peteski22/clubsync/internal/storage"
	"github.com/peteski22/clubsync/internal/sync"
)

const (
	// envLambdaRuntimeAPI is set by the Lambda runtime.
	envLambdaRuntimeAPI = "AWS_LAMBDA_RUNTIME_API"

	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("clubsync api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: settings.Server.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, err := newHandler(ctx, settings, logger)
	if err != nil {
		return err
	}

	if os.Getenv(envLambdaRuntimeAPI) != "" {
		logger.Info("starting lambda function URL handler")
		lambdaurl.Start(handler)
		return nil
	}

	return serve(ctx, handler, settings.Server.Port, logger)
}

// newHandler wires the API. Incomplete configuration is logged once and left
// for the handlers to report; only failures building a configured dependency
// stop startup.
func newHandler(ctx context.Context, settings *config.Settings, logger *slog.Logger) (http.Handler, error) {
	cc := settings.ConstantContact
	opts := []constantcontact.Option{
		constantcontact.WithBaseURL(cc.APIBaseURL),
		constantcontact.WithTimeout(settings.Server.HTTPTimeout),
		constantcontact.WithTokenURL(cc.TokenURL),
	}

	apiCfg := httpapi.Config{Logger: logger}

	if cc.APIKey != "" {
		exchanger, err := constantcontact.NewTokenExchanger(cc.APIKey, cc.ClientSecret, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating token exchanger: %w", err)
		}
		apiCfg.Exchanger = exchanger
	}

	if err := settings.Validate(); err != nil {
		logger.Warn("configuration incomplete, list and sync requests will be rejected", "error", err)
		apiCfg.ConfigErr = err
	} else {
		tokenStore, err := newTokenStore(ctx, cc)
		if err != nil {
			return nil, fmt.Errorf("creating token store: %w", err)
		}

		client, err := constantcontact.NewClient(constantcontact.Config{
			APIKey:       cc.APIKey,
			ClientSecret: cc.ClientSecret,
			ListID:       cc.ListID,
			TokenStore:   tokenStore,
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating constant contact client: %w", err)
		}

		svc, err := sync.New(sync.Config{
			Client:       client,
			CustomFields: settings.CustomFields,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating sync service: %w", err)
		}

		apiCfg.Lister = client
		apiCfg.Syncer = svc
	}

	server, err := httpapi.NewServer(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("creating api server: %w", err)
	}

	return httpapi.NewRouter(server), nil
}

// newTokenStore picks where the refresh token lives. A secret or parameter
// keeps rotated tokens across cold starts; the environment value does not.
func newTokenStore(ctx context.Context, cc config.ConstantContact) (constantcontact.TokenStore, error) {
	switch {
	case cc.RefreshTokenSecretARN != "":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return storage.NewSecretsManagerTokenStore(secretsmanager.NewFromConfig(awsCfg), cc.RefreshTokenSecretARN)

	case cc.RefreshTokenParameterName != "":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return storage.NewParameterTokenStore(ssm.NewFromConfig(awsCfg), cc.RefreshTokenParameterName)

	case cc.RefreshToken != "":
		return storage.NewMemoryTokenStore(cc.RefreshToken)

	default:
		return nil, errors.New("no refresh token source configured")
	}
}

// serve runs an HTTP server until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, handler http.Handler, port string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
