package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/peteski22/clubsync/internal/constantcontact"
)

func newMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List the contacts currently on the configured list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, client, err := loadClient()
			if err != nil {
				return err
			}

			contacts, err := client.ListMembers(cmd.Context())
			if err != nil {
				return err
			}

			displayContactTable(cmd.OutOrStdout(), client.ListID(), contacts)
			return nil
		},
	}
}

// displayContactTable prints contacts as aligned columns.
func displayContactTable(out io.Writer, listID string, contacts []constantcontact.Contact) {
	cyan := color.New(color.FgCyan).SprintFunc()

	if len(contacts) == 0 {
		_, _ = fmt.Fprintf(out, "List %s has no contacts\n", listID)
		return
	}

	_, _ = fmt.Fprintf(out, "List %s has %d contacts:\n\n", listID, len(contacts))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cyan("ID"), cyan("Email"), cyan("Name"), cyan("Phone"))
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 36),
		strings.Repeat("-", 30),
		strings.Repeat("-", 25),
		strings.Repeat("-", 15))

	for i := range contacts {
		c := &contacts[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			c.ContactID,
			truncate(c.Email(), 30),
			truncate(strings.TrimSpace(c.FirstName+" "+c.LastName), 25),
			truncate(firstPhone(c), 15))
	}
}

func firstPhone(c *constantcontact.Contact) string {
	if len(c.PhoneNumbers) == 0 {
		return ""
	}
	return c.PhoneNumbers[0].PhoneNumber
}

// truncate shortens a string to the specified length.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
