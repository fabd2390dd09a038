package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/peteski22/clubsync/internal/config"
)

const configTemplate = `# clubsync configuration

constant_contact:
  # From the Constant Contact developer portal -> My Applications.
  api_key: ""
  # Leave empty to authorize with PKCE.
  client_secret: ""
  # Must match a redirect URI registered for the application.
  redirect_uri: "http://localhost:8085/callback"
  # Optional: override the API and token endpoints.
  # api_base_url: "https://api.cc.email/v3"
  # token_url: "https://authz.constantcontact.com/oauth2/default/v1/token"
  # Required: the contact list kept in sync.
  list_id: ""

custom_fields:
  # Optional: Constant Contact custom field IDs. Empty fields are not sent.
  membership_type: ""
  status: ""
  joined_date: ""

members:
  # Where member records come from: file, postgres or dynamodb.
  source: "file"
  # file: a JSON or CSV export (can also be given with --file).
  path: ""
  # postgres: connection string of the member database.
  database_url: ""
  # dynamodb: table holding one item per member. For postgres, overrides the
  # default "members" table.
  table_name: ""
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout())
		},
	}
}

// runInit creates a sample configuration file.
func runInit(out io.Writer) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	configPath, err := config.ConfigFilePath()
	if err != nil {
		return fmt.Errorf("getting config path: %w", err)
	}

	if config.LocalConfigExists() {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	tokenPath, err := config.TokenFilePath()
	if err != nil {
		return fmt.Errorf("getting token path: %w", err)
	}

	_, _ = fmt.Fprintln(out, "Created config file:", configPath)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Next steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the config file with your credentials and list ID")
	_, _ = fmt.Fprintln(out, "  2. Run 'clubsync auth' to authorize with Constant Contact")
	_, _ = fmt.Fprintln(out, "  3. Run 'clubsync sync --dry-run' to test")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "Token will be stored at: %s\n", tokenPath)

	return nil
}
