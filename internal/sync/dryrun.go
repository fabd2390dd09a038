package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/peteski22/clubsync/internal/constantcontact"
)

// dryRunClient wraps a ContactClient and logs write operations instead of executing them.
type dryRunClient struct {
	client  ContactClient
	logger  *slog.Logger
	counter uint64
}

// newDryRunClient creates a new dryRunClient that wraps the given ContactClient.
func newDryRunClient(client ContactClient, logger *slog.Logger) *dryRunClient {
	return &dryRunClient{
		client: client,
		logger: logger,
	}
}

// ListMembers delegates to the real client.
func (d *dryRunClient) ListMembers(ctx context.Context) ([]constantcontact.Contact, error) {
	return d.client.ListMembers(ctx)
}

// RemoveContactFromList logs what would be removed and returns nil.
func (d *dryRunClient) RemoveContactFromList(_ context.Context, contactID string) error {
	d.logger.Info("[DRY-RUN] would remove contact from list", "contact_id", contactID)
	return nil
}

// UpdateContact logs what would be updated and returns the contact unchanged.
func (d *dryRunClient) UpdateContact(
	_ context.Context,
	contactID string,
	contact *constantcontact.Contact,
) (*constantcontact.Contact, error) {
	d.logger.Info("[DRY-RUN] would update contact",
		"contact_id", contactID,
		"email", contact.Email(),
		"first_name", contact.FirstName,
		"last_name", contact.LastName,
		"custom_fields", len(contact.CustomFields))

	updated := *contact
	updated.ContactID = contactID
	return &updated, nil
}

// UpsertContact logs what would be created and returns a fake ID.
func (d *dryRunClient) UpsertContact(_ context.Context, contact *constantcontact.Contact) (*constantcontact.Contact, error) {
	fakeID := d.nextFakeID("contact")

	d.logger.Info("[DRY-RUN] would upsert contact",
		"fake_id", fakeID,
		"email", contact.Email(),
		"first_name", contact.FirstName,
		"last_name", contact.LastName,
		"custom_fields", len(contact.CustomFields))

	created := *contact
	created.ContactID = fakeID
	return &created, nil
}

// nextFakeID generates a unique fake ID for dry-run operations.
func (d *dryRunClient) nextFakeID(prefix string) string {
	n := atomic.AddUint64(&d.counter, 1)
	return fmt.Sprintf("dry-run-%s-%d", prefix, n)
}
