package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/peteski22/clubsync/internal/sync"
)

func newRemoveCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "remove <contact-id>...",
		Short: "Remove contacts from the list without deleting them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := loadClient()
			if err != nil {
				return err
			}

			svc, err := sync.New(sync.Config{Client: client, DryRun: dryRun, Logger: slog.Default()})
			if err != nil {
				return fmt.Errorf("creating sync service: %w", err)
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			out := cmd.OutOrStdout()

			var errs []error
			for _, id := range args {
				if err := svc.Remove(cmd.Context(), id); err != nil {
					errs = append(errs, err)
					continue
				}
				if dryRun {
					_, _ = fmt.Fprintf(out, "%s would remove %s from list %s\n", yellow("dry-run"), id, client.ListID())
					continue
				}
				_, _ = fmt.Fprintf(out, "%s removed %s from list %s\n", green("ok"), id, client.ListID())
			}

			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the removal without writing to Constant Contact")

	return cmd
}
