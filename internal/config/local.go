package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/peteski22/clubsync/internal/members"
)

const (
	configDirName      = ".clubsync"
	configFileName     = "config.yaml"
	defaultRedirectURI = "http://localhost:8085/callback"
	tokenFileName      = "token"
)

// Member source kinds.
const (
	SourceDynamoDB = "dynamodb"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// LocalConfig holds configuration loaded from a local file.
type LocalConfig struct {
	ConstantContact LocalConstantContact
	CustomFields    members.CustomFieldIDs
	Members         MemberSource
}

// LocalConstantContact holds Constant Contact credentials from the config file.
type LocalConstantContact struct {
	// APIBaseURL overrides the API base URL; empty uses the default.
	APIBaseURL string `yaml:"api_base_url"`

	// APIKey is the application client ID.
	APIKey string `yaml:"api_key"`

	// ClientSecret is optional; without it the CLI uses PKCE.
	ClientSecret string `yaml:"client_secret"`

	// ListID is the contact list kept in sync.
	ListID string `yaml:"list_id"`

	// RedirectURI is the OAuth callback registered for the application.
	RedirectURI string `yaml:"redirect_uri"`

	// TokenURL overrides the OAuth token endpoint; empty uses the default.
	TokenURL string `yaml:"token_url"`
}

// MemberSource selects where the CLI reads member records from.
type MemberSource struct {
	// DatabaseURL is the Postgres connection string (postgres source).
	DatabaseURL string `yaml:"database_url"`

	// Path is the JSON or CSV file (file source).
	Path string `yaml:"path"`

	// Source is one of file, postgres or dynamodb.
	Source string `yaml:"source"`

	// TableName is the DynamoDB table, or the Postgres table when not "members".
	TableName string `yaml:"table_name"`
}

// localConfig represents the local configuration file structure.
type localConfig struct {
	ConstantContact LocalConstantContact   `yaml:"constant_contact"`
	CustomFields    members.CustomFieldIDs `yaml:"custom_fields"`
	Members         MemberSource           `yaml:"members"`
}

// ConfigDir returns the clubsync configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigFilePath returns the path to the local config file.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadLocal loads configuration from the local config file.
func LoadLocal() (*LocalConfig, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return loadLocalFromPath(configPath)
}

// LocalConfigExists checks if a local config file exists.
func LocalConfigExists() bool {
	configPath, err := ConfigFilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(configPath)
	return err == nil
}

// TokenFilePath returns the path to the local token file.
func TokenFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tokenFileName), nil
}

// loadLocalFromPath loads and validates the config file at configPath.
func loadLocalFromPath(configPath string) (*LocalConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run 'clubsync init' to create)", configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var local localConfig
	if err := yaml.Unmarshal(data, &local); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &LocalConfig{
		ConstantContact: local.ConstantContact,
		CustomFields:    local.CustomFields,
		Members:         local.Members,
	}

	if cfg.ConstantContact.APIBaseURL == "" {
		cfg.ConstantContact.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.ConstantContact.TokenURL == "" {
		cfg.ConstantContact.TokenURL = defaultTokenURL
	}
	if cfg.ConstantContact.RedirectURI == "" {
		cfg.ConstantContact.RedirectURI = defaultRedirectURI
	}
	if cfg.Members.Source == "" {
		cfg.Members.Source = SourceFile
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// validate checks that required fields are set.
func (c *LocalConfig) validate() error {
	var errs []error

	if c.ConstantContact.APIKey == "" {
		errs = append(errs, errors.New("constant_contact.api_key is required"))
	}
	if c.ConstantContact.ListID == "" {
		errs = append(errs, errors.New("constant_contact.list_id is required"))
	}

	switch c.Members.Source {
	case SourceFile:
		// The path may also be given on the command line.
	case SourcePostgres:
		if c.Members.DatabaseURL == "" {
			errs = append(errs, errors.New("members.database_url is required for the postgres source"))
		}
	case SourceDynamoDB:
		if c.Members.TableName == "" {
			errs = append(errs, errors.New("members.table_name is required for the dynamodb source"))
		}
	default:
		errs = append(errs, fmt.Errorf("members.source must be one of %s, %s, %s, got %q",
			SourceFile, SourcePostgres, SourceDynamoDB, c.Members.Source))
	}

	return errors.Join(errs...)
}
