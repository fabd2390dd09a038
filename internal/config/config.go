// Package config provides configuration loading from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/peteski22/clubsync/internal/members"
)

const (
	// EnvAPIBaseURL is the base URL for the Constant Contact v3 API.
	EnvAPIBaseURL = "CONSTANT_CONTACT_API_BASE_URL"

	// EnvAPIKey is the Constant Contact application client ID.
	EnvAPIKey = "API_KEY"

	// EnvClientSecret is the application client secret; optional for PKCE-issued tokens.
	EnvClientSecret = "CLIENT_SECRET"

	// EnvCustomFieldJoinedDateID is the custom field receiving the member's joined date.
	EnvCustomFieldJoinedDateID = "CUSTOM_FIELD_JOINED_DATE_ID"

	// EnvCustomFieldMembershipTypeID is the custom field receiving the membership type.
	EnvCustomFieldMembershipTypeID = "CUSTOM_FIELD_MEMBERSHIP_TYPE_ID"

	// EnvCustomFieldStatusID is the custom field receiving the membership status.
	EnvCustomFieldStatusID = "CUSTOM_FIELD_STATUS_ID"

	// EnvHTTPTimeout is the timeout for outbound HTTP requests (Go duration).
	EnvHTTPTimeout = "HTTP_TIMEOUT"

	// EnvListID is the Constant Contact list kept in sync.
	EnvListID = "LIST_ID"

	// EnvLogLevel is the minimum log level (debug, info, warn, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvPort is the port the HTTP server listens on outside Lambda.
	EnvPort = "PORT"

	// EnvRefreshToken is the OAuth refresh token.
	EnvRefreshToken = "REFRESH_TOKEN"

	// EnvRefreshTokenParameterName is the SSM parameter holding the refresh token.
	EnvRefreshTokenParameterName = "REFRESH_TOKEN_PARAMETER_NAME"

	// EnvRefreshTokenSecretARN is the Secrets Manager ARN holding the refresh token.
	EnvRefreshTokenSecretARN = "REFRESH_TOKEN_SECRET_ARN"

	// EnvTokenURL is the OAuth token endpoint URL.
	EnvTokenURL = "CONSTANT_CONTACT_TOKEN_URL"
)

const (
	defaultAPIBaseURL  = "https://api.cc.email/v3"
	defaultHTTPTimeout = 30 * time.Second
	defaultPort        = "8080"
	defaultTokenURL    = "https://authz.constantcontact.com/oauth2/default/v1/token"
)

// ConstantContact holds Constant Contact API configuration.
type ConstantContact struct {
	// APIBaseURL is the base URL for API requests.
	APIBaseURL string

	// APIKey is the application client ID, also sent as x-api-key.
	APIKey string

	// ClientSecret is the application client secret; empty under PKCE.
	ClientSecret string

	// ListID is the contact list kept in sync.
	ListID string

	// RefreshToken is the OAuth refresh token when supplied directly.
	RefreshToken string

	// RefreshTokenParameterName is the SSM parameter storing the refresh token.
	RefreshTokenParameterName string

	// RefreshTokenSecretARN is the Secrets Manager ARN storing the refresh token.
	RefreshTokenSecretARN string

	// TokenURL is the OAuth token endpoint.
	TokenURL string
}

// Server holds HTTP server settings.
type Server struct {
	// HTTPTimeout bounds each outbound request to Constant Contact.
	HTTPTimeout time.Duration

	// LogLevel is the minimum level logged.
	LogLevel slog.Level

	// Port is the listen port outside Lambda.
	Port string
}

// Settings holds all configuration for the application.
type Settings struct {
	// ConstantContact contains Constant Contact API settings.
	ConstantContact ConstantContact

	// CustomFields maps member attributes to Constant Contact custom fields.
	CustomFields members.CustomFieldIDs

	// Server contains HTTP server settings.
	Server Server
}

// Validate reports every missing required value as a *MissingError.
func (s *Settings) Validate() error {
	var missing []string

	if s.ConstantContact.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if s.ConstantContact.RefreshToken == "" &&
		s.ConstantContact.RefreshTokenSecretARN == "" &&
		s.ConstantContact.RefreshTokenParameterName == "" {
		missing = append(missing, EnvRefreshToken)
	}
	if s.ConstantContact.ListID == "" {
		missing = append(missing, EnvListID)
	}

	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}
	return nil
}

// Load reads configuration from environment variables.
// Missing required values are not an error here; call Validate.
func Load() (*Settings, error) {
	cfg := &Settings{
		ConstantContact: ConstantContact{
			APIBaseURL:                envOrDefault(EnvAPIBaseURL, defaultAPIBaseURL),
			APIKey:                    strings.TrimSpace(os.Getenv(EnvAPIKey)),
			ClientSecret:              strings.TrimSpace(os.Getenv(EnvClientSecret)),
			ListID:                    strings.TrimSpace(os.Getenv(EnvListID)),
			RefreshToken:              strings.TrimSpace(os.Getenv(EnvRefreshToken)),
			RefreshTokenParameterName: strings.TrimSpace(os.Getenv(EnvRefreshTokenParameterName)),
			RefreshTokenSecretARN:     strings.TrimSpace(os.Getenv(EnvRefreshTokenSecretARN)),
			TokenURL:                  envOrDefault(EnvTokenURL, defaultTokenURL),
		},
		CustomFields: members.CustomFieldIDs{
			JoinedDate:     strings.TrimSpace(os.Getenv(EnvCustomFieldJoinedDateID)),
			MembershipType: strings.TrimSpace(os.Getenv(EnvCustomFieldMembershipTypeID)),
			Status:         strings.TrimSpace(os.Getenv(EnvCustomFieldStatusID)),
		},
		Server: Server{
			HTTPTimeout: defaultHTTPTimeout,
			Port:        envOrDefault(EnvPort, defaultPort),
		},
	}

	if raw := strings.TrimSpace(os.Getenv(EnvHTTPTimeout)); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration, got %q", EnvHTTPTimeout, raw)
		}
		cfg.Server.HTTPTimeout = timeout
	}

	level, err := ParseLogLevel(os.Getenv(EnvLogLevel))
	if err != nil {
		return nil, err
	}
	cfg.Server.LogLevel = level

	return cfg, nil
}

// ParseLogLevel converts a level name to a slog.Level. Empty means info.
func ParseLogLevel(value string) (slog.Level, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	return level, nil
}

func envOrDefault(key string, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
