// Package httpapi exposes token refresh and list synchronization to the admin UI.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/peteski22/clubsync/internal/constantcontact"
	"github.com/peteski22/clubsync/internal/members"
	"github.com/peteski22/clubsync/internal/sync"
)

// TokenExchanger trades a refresh token for an access token.
type TokenExchanger interface {
	Exchange(ctx context.Context, refreshToken string) (*constantcontact.TokenResponse, error)
}

// MemberLister returns the contacts currently on the list.
type MemberLister interface {
	ListMembers(ctx context.Context) ([]constantcontact.Contact, error)
}

// MemberSyncer reconciles member records with the list.
type MemberSyncer interface {
	Run(ctx context.Context, records []members.Record) (*sync.Result, error)
}

// Config holds the dependencies of a Server.
type Config struct {
	// ConfigErr is the server configuration problem, if any. While set,
	// list-members and sync-members answer 400 without calling out.
	ConfigErr error

	// Exchanger backs the token endpoint; nil when no API key is configured.
	Exchanger TokenExchanger

	// Lister backs list-members.
	Lister MemberLister

	// Logger is the structured logger for request handling.
	Logger *slog.Logger

	// Syncer backs sync-members.
	Syncer MemberSyncer
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	if c.ConfigErr != nil {
		return nil
	}

	var errs []error
	if c.Lister == nil {
		errs = append(errs, errors.New("member lister is required"))
	}
	if c.Syncer == nil {
		errs = append(errs, errors.New("member syncer is required"))
	}
	return errors.Join(errs...)
}

// Server holds the handlers' shared dependencies. It keeps no per-request state.
type Server struct {
	configErr error
	exchanger TokenExchanger
	lister    MemberLister
	logger    *slog.Logger
	syncer    MemberSyncer
}

// NewServer creates a Server.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		configErr: cfg.ConfigErr,
		exchanger: cfg.Exchanger,
		lister:    cfg.Lister,
		logger:    logger,
		syncer:    cfg.Syncer,
	}, nil
}
