// Package members defines the local member record and its mapping to Constant Contact contacts.
package members

import "context"

// unknownValue is the placeholder the member database stores for missing data.
const unknownValue = "unknown"

// Record is a member row from the local member database.
// Every field is optional except Email; empty and "unknown" values are ignored.
//
//nolint:tagliatelle // Member rows use snake_case.
type Record struct {
	// Address is the street address line.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// City is the city name.
	City string `json:"city,omitempty" yaml:"city,omitempty"`

	// CreatedAt is when the member row was created; used when JoinedDate is missing.
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`

	// Email is the member's email address and the key matched against contacts.
	Email string `json:"email" yaml:"email"`

	// FirstName is the member's first name.
	FirstName string `json:"first_name,omitempty" yaml:"first_name,omitempty"`

	// JoinedDate is when the member joined the club.
	JoinedDate string `json:"joined_date,omitempty" yaml:"joined_date,omitempty"`

	// LastName is the member's last name.
	LastName string `json:"last_name,omitempty" yaml:"last_name,omitempty"`

	// MembershipType is the membership tier.
	MembershipType string `json:"membership_type,omitempty" yaml:"membership_type,omitempty"`

	// Phone is the member's phone number.
	Phone string `json:"phone,omitempty" yaml:"phone,omitempty"`

	// State is the state or province.
	State string `json:"state,omitempty" yaml:"state,omitempty"`

	// Status is the membership status (active, lapsed...).
	Status string `json:"status,omitempty" yaml:"status,omitempty"`

	// ZipCode is the postal code.
	ZipCode string `json:"zip_code,omitempty" yaml:"zip_code,omitempty"`
}

// CustomFieldIDs holds the Constant Contact custom field IDs member attributes map to.
// A field with an empty ID is not sent.
type CustomFieldIDs struct {
	// JoinedDate receives Record.JoinedDate, or Record.CreatedAt when that is missing.
	JoinedDate string `yaml:"joined_date"`

	// MembershipType receives Record.MembershipType.
	MembershipType string `yaml:"membership_type"`

	// Status receives Record.Status.
	Status string `yaml:"status"`
}

// Source provides the local member set.
type Source interface {
	// Members returns every member record.
	Members(ctx context.Context) ([]Record, error)
}
