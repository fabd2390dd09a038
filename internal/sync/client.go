package sync

import (
	"context"

	"github.com/peteski22/clubsync/internal/constantcontact"
)

// ContactClient defines the Constant Contact operations required by the sync service.
type ContactClient interface {
	// ListMembers returns the contacts currently on the synchronized list.
	ListMembers(ctx context.Context) ([]constantcontact.Contact, error)

	// RemoveContactFromList detaches a contact from the synchronized list.
	RemoveContactFromList(ctx context.Context, contactID string) error

	// UpdateContact replaces an existing contact by ID.
	UpdateContact(ctx context.Context, contactID string, contact *constantcontact.Contact) (*constantcontact.Contact, error)

	// UpsertContact creates a contact, or overwrites the one with the same email.
	UpsertContact(ctx context.Context, contact *constantcontact.Contact) (*constantcontact.Contact, error)
}
