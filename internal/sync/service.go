package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/peteski22/clubsync/internal/constantcontact"
	"github.com/peteski22/clubsync/internal/members"
)

// Config holds the required configuration for creating a Service.
type Config struct {
	// Client is the Constant Contact API client.
	Client ContactClient

	// CustomFields maps member attributes to Constant Contact custom fields.
	CustomFields members.CustomFieldIDs

	// DryRun indicates whether to skip writes to Constant Contact.
	DryRun bool

	// Logger is the structured logger for the service.
	Logger *slog.Logger
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.Client == nil {
		errs = append(errs, errors.New("contact client is required"))
	}
	return errors.Join(errs...)
}

// Service reconciles member records with the Constant Contact list.
type Service struct {
	client       ContactClient
	customFields members.CustomFieldIDs
	dryRun       bool
	logger       *slog.Logger
}

// New creates a new sync service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := cfg.Client
	if cfg.DryRun {
		client = newDryRunClient(cfg.Client, logger)
	}

	return &Service{
		client:       client,
		customFields: cfg.CustomFields,
		dryRun:       cfg.DryRun,
		logger:       logger,
	}, nil
}

// Run pushes every record to the list, updating contacts that match by email and
// upserting the rest. Records are processed sequentially in input order and a
// failing record does not stop the others.
//
// When the existing contacts cannot be fetched nothing is written: the result
// carries the single batch error and a non-nil error is returned alongside it.
func (s *Service) Run(ctx context.Context, records []members.Record) (*Result, error) {
	result := &Result{DryRun: s.dryRun, Errors: []string{}}

	s.logger.Info("starting member sync", "members", len(records), "dry_run", s.dryRun)

	existing, err := s.client.ListMembers(ctx)
	if err != nil {
		s.logger.Error("failed to fetch existing contacts", "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to fetch existing contacts: %v", err))
		return result, fmt.Errorf("fetching existing contacts: %w", err)
	}

	index := indexContacts(existing)
	s.logger.Info("fetched existing contacts", "count", len(existing), "unique_emails", len(index))

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			s.logSyncComplete(result)
			return result, fmt.Errorf("sync interrupted: %w", err)
		}

		mr := s.processMember(ctx, index, record)
		result.record(mr)

		if mr.Error != nil {
			s.logger.Error("failed to sync member", "email", record.Email, "error", mr.Error)
			continue
		}
		s.logger.Debug("synced member",
			"email", record.Email,
			"contact_id", mr.ContactID,
			"created", mr.Created,
			"updated", mr.Updated)
	}

	s.logSyncComplete(result)
	return result, nil
}

// Remove detaches a contact from the list. In dry-run mode the removal is only logged.
func (s *Service) Remove(ctx context.Context, contactID string) error {
	if err := s.client.RemoveContactFromList(ctx, contactID); err != nil {
		return fmt.Errorf("removing contact %s: %w", contactID, err)
	}
	s.logger.Info("removed contact from list", "contact_id", contactID, "dry_run", s.dryRun)
	return nil
}

// processMember creates or updates the contact for a single member.
func (s *Service) processMember(ctx context.Context, index map[string]indexedContact, record members.Record) MemberResult {
	mr := MemberResult{Email: record.Email}

	if err := members.ValidateEmail(record.Email); err != nil {
		mr.Error = err
		return mr
	}

	contact := record.ToDomainType(s.customFields)

	if existing, ok := index[contact.Email()]; ok {
		// Consent is owned by the contact; a sync never changes it.
		if existing.PermissionToSend != "" {
			contact.EmailAddress.PermissionToSend = existing.PermissionToSend
		}
		updated, err := s.client.UpdateContact(ctx, existing.ContactID, contact)
		if err != nil {
			mr.Error = err
			return mr
		}
		mr.ContactID = updated.ContactID
		mr.Updated = true
		return mr
	}

	created, err := s.client.UpsertContact(ctx, contact)
	if err != nil {
		mr.Error = err
		return mr
	}
	mr.ContactID = created.ContactID
	mr.Created = true

	return mr
}

// logSyncComplete logs the final sync summary.
func (s *Service) logSyncComplete(result *Result) {
	s.logger.Info("sync completed",
		"added", result.Added,
		"updated", result.Updated,
		"errors", len(result.Errors),
		"dry_run", s.dryRun)
}

// indexedContact is what an update needs to know about an existing contact.
type indexedContact struct {
	ContactID        string
	PermissionToSend string
}

// indexContacts maps normalized email to the existing contact. The first contact
// wins when the provider returns duplicates.
func indexContacts(contacts []constantcontact.Contact) map[string]indexedContact {
	index := make(map[string]indexedContact, len(contacts))
	for i := range contacts {
		email := members.NormalizeEmail(contacts[i].Email())
		if email == "" || contacts[i].ContactID == "" {
			continue
		}
		if _, ok := index[email]; ok {
			continue
		}
		index[email] = indexedContact{
			ContactID:        contacts[i].ContactID,
			PermissionToSend: contacts[i].EmailAddress.PermissionToSend,
		}
	}
	return index
}

// memberErrorMessage formats a per-member failure for the sync result.
func memberErrorMessage(email string, err error) string {
	return fmt.Sprintf("Failed to sync member %s: %v", email, err)
}
