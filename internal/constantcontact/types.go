// Package constantcontact provides a client for the Constant Contact v3 API.
package constantcontact

import "time"

const (
	// PermissionImplicit marks a contact added by the account owner rather than by sign-up.
	PermissionImplicit = "implicit"

	// PermissionExplicit marks a contact that opted in themselves.
	PermissionExplicit = "explicit"

	// SourceAccount is the create/update source for contacts written by the account.
	SourceAccount = "Account"
)

// AccessToken is a bearer token and the instant after which it must not be used.
type AccessToken struct {
	// ExpiresAt already includes the refresh safety margin.
	ExpiresAt time.Time

	// Value is the bearer token.
	Value string
}

// Contact represents a contact in Constant Contact.
type Contact struct {
	// ContactID is the unique contact identifier.
	ContactID string `json:"contact_id,omitempty"`

	// CreateSource identifies who created the contact (Account or Contact).
	CreateSource string `json:"create_source,omitempty"`

	// CustomFields holds account-defined field values.
	CustomFields []CustomField `json:"custom_fields,omitempty"`

	// EmailAddress is the contact's email and its permission state.
	EmailAddress *EmailAddress `json:"email_address,omitempty"`

	// FirstName is the contact's first name.
	FirstName string `json:"first_name,omitempty"`

	// LastName is the contact's last name.
	LastName string `json:"last_name,omitempty"`

	// ListMemberships contains the IDs of the lists the contact belongs to.
	ListMemberships []string `json:"list_memberships,omitempty"`

	// PhoneNumbers contains the contact's phone numbers.
	PhoneNumbers []PhoneNumber `json:"phone_numbers,omitempty"`

	// StreetAddresses contains the contact's postal addresses.
	StreetAddresses []StreetAddress `json:"street_addresses,omitempty"`

	// UpdateSource identifies who last updated the contact (Account or Contact).
	UpdateSource string `json:"update_source,omitempty"`
}

// Email returns the contact's email address, or empty if none is set.
func (c *Contact) Email() string {
	if c == nil || c.EmailAddress == nil {
		return ""
	}
	return c.EmailAddress.Address
}

// CustomField is a value for an account-defined contact field.
type CustomField struct {
	// CustomFieldID is the UUID of the custom field definition.
	CustomFieldID string `json:"custom_field_id"`

	// Value is the field value.
	Value string `json:"value"`
}

// EmailAddress is a contact's email address.
type EmailAddress struct {
	// Address is the email address.
	Address string `json:"address"`

	// PermissionToSend is the contact's permission state (implicit, explicit, unsubscribed...).
	PermissionToSend string `json:"permission_to_send,omitempty"`
}

// PhoneNumber is a contact's phone number.
type PhoneNumber struct {
	// Kind is the phone type (home, work, mobile, other).
	Kind string `json:"kind,omitempty"`

	// PhoneNumber is the number as entered.
	PhoneNumber string `json:"phone_number"`
}

// StreetAddress is a contact's postal address.
type StreetAddress struct {
	// City is the city name.
	City string `json:"city,omitempty"`

	// Country is the country name or code.
	Country string `json:"country,omitempty"`

	// Kind is the address type (home, work, other).
	Kind string `json:"kind"`

	// PostalCode is the postal or ZIP code.
	PostalCode string `json:"postal_code,omitempty"`

	// State is the state or province.
	State string `json:"state,omitempty"`

	// Street is the street address.
	Street string `json:"street,omitempty"`
}

// TokenResponse is the OAuth token endpoint response.
//
//nolint:tagliatelle // External API uses snake_case.
type TokenResponse struct {
	// AccessToken is the OAuth access token.
	AccessToken string `json:"access_token"`

	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`

	// RefreshToken is returned when the authorization server rotates the refresh token.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Scope lists the granted scopes.
	Scope string `json:"scope,omitempty"`

	// TokenType is the type of token (e.g., Bearer).
	TokenType string `json:"token_type"`
}

// contactsResponse represents the contact collection response.
type contactsResponse struct {
	// Contacts contains the contacts on this page.
	Contacts []Contact `json:"contacts"`
}

// removeListMembershipsRequest is the body of the remove list memberships activity.
type removeListMembershipsRequest struct {
	// ListIDs are the lists to remove the contacts from.
	ListIDs []string `json:"list_ids"`

	// Source selects the contacts to remove.
	Source removeListMembershipsSource `json:"source"`
}

// removeListMembershipsSource selects contacts by ID.
type removeListMembershipsSource struct {
	// ContactIDs are the contacts to detach.
	ContactIDs []string `json:"contact_ids"`
}

// signUpFormRequest is the body of the create-or-update endpoint.
type signUpFormRequest struct {
	// CustomFields holds account-defined field values.
	CustomFields []CustomField `json:"custom_fields,omitempty"`

	// EmailAddress is the key the provider upserts on.
	EmailAddress string `json:"email_address"`

	// FirstName is the contact's first name.
	FirstName string `json:"first_name,omitempty"`

	// LastName is the contact's last name.
	LastName string `json:"last_name,omitempty"`

	// ListMemberships is always the configured list.
	ListMemberships []string `json:"list_memberships"`

	// PhoneNumber is a single phone number.
	PhoneNumber string `json:"phone_number,omitempty"`

	// StreetAddress is a single postal address.
	StreetAddress *StreetAddress `json:"street_address,omitempty"`
}

// signUpFormResponse is the response of the create-or-update endpoint.
type signUpFormResponse struct {
	// Action is "created" or "updated".
	Action string `json:"action"`

	// ContactID is the identifier of the created or updated contact.
	ContactID string `json:"contact_id"`
}
