package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/peteski22/clubsync/internal/sync"
)

func newSyncCmd() *cobra.Command {
	var (
		dryRun bool
		file   string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push member records to the Constant Contact list",
		Long: `Read members from the configured source and add or update each one on the
Constant Contact list. Members already on the list (matched by email,
ignoring case) are updated, the rest are added.`,
		Example: `  # Preview a sync from a CSV export
  clubsync sync --file members.csv --dry-run

  # Sync from the source in ~/.clubsync/config.yaml
  clubsync sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, client, err := loadClient()
			if err != nil {
				return err
			}

			source, closeSource, err := openMemberSource(ctx, cfg.Members, file)
			defer closeSource()
			if err != nil {
				return fmt.Errorf("opening member source: %w", err)
			}

			records, err := source.Members(ctx)
			if err != nil {
				return fmt.Errorf("reading members: %w", err)
			}

			svc, err := sync.New(sync.Config{
				Client:       client,
				CustomFields: cfg.CustomFields,
				DryRun:       dryRun,
				Logger:       slog.Default(),
			})
			if err != nil {
				return fmt.Errorf("creating sync service: %w", err)
			}

			result, err := svc.Run(ctx, records)
			printSyncResult(cmd.OutOrStdout(), len(records), result)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log changes without writing to Constant Contact")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read members from this JSON or CSV file")

	return cmd
}

// printSyncResult prints the counts and every per-member error.
func printSyncResult(out io.Writer, total int, result *sync.Result) {
	if result == nil {
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	if result.DryRun {
		_, _ = fmt.Fprintln(out, yellow("Dry run: no changes were written."))
	}

	_, _ = fmt.Fprintf(out, "Members: %d  Added: %s  Updated: %s  Errors: %s\n",
		total,
		green(result.Added),
		green(result.Updated),
		red(len(result.Errors)))

	for _, msg := range result.Errors {
		_, _ = fmt.Fprintf(out, "  %s %s\n", red("x"), msg)
	}
}
