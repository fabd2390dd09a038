package members

import (
	"strings"
	"time"

	"github.com/peteski22/clubsync/internal/constantcontact"
)

// dateLayouts are the timestamp shapes the member database produces for dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ToDomainType converts a Record to its Constant Contact domain representation.
// The email is normalized; list memberships are left for the client to set.
func (r *Record) ToDomainType(ids CustomFieldIDs) *constantcontact.Contact {
	if r == nil {
		return nil
	}

	contact := &constantcontact.Contact{
		EmailAddress: &constantcontact.EmailAddress{
			Address:          NormalizeEmail(r.Email),
			PermissionToSend: constantcontact.PermissionImplicit,
		},
		FirstName: resolve(r.FirstName),
		LastName:  resolve(r.LastName),
	}

	if phone := resolve(r.Phone); phone != "" {
		contact.PhoneNumbers = []constantcontact.PhoneNumber{{Kind: "home", PhoneNumber: phone}}
	}

	if addr := r.streetAddress(); addr != nil {
		contact.StreetAddresses = []constantcontact.StreetAddress{*addr}
	}

	contact.CustomFields = r.customFields(ids)

	return contact
}

// customFields returns the configured custom field values that resolve to something.
func (r *Record) customFields(ids CustomFieldIDs) []constantcontact.CustomField {
	joined := resolveDate(r.JoinedDate)
	if joined == "" {
		joined = resolveDate(r.CreatedAt)
	}

	candidates := []constantcontact.CustomField{
		{CustomFieldID: ids.MembershipType, Value: resolve(r.MembershipType)},
		{CustomFieldID: ids.Status, Value: resolve(r.Status)},
		{CustomFieldID: ids.JoinedDate, Value: joined},
	}

	var fields []constantcontact.CustomField
	for _, f := range candidates {
		if f.CustomFieldID == "" || f.Value == "" {
			continue
		}
		fields = append(fields, f)
	}

	return fields
}

// streetAddress returns the member's home address, or nil when no part of it is known.
func (r *Record) streetAddress() *constantcontact.StreetAddress {
	addr := constantcontact.StreetAddress{
		City:       resolve(r.City),
		Kind:       "home",
		PostalCode: resolve(r.ZipCode),
		State:      resolve(r.State),
		Street:     resolve(r.Address),
	}
	if addr.City == "" && addr.PostalCode == "" && addr.State == "" && addr.Street == "" {
		return nil
	}
	return &addr
}

// resolve returns the trimmed value, or empty when it is the unknown placeholder.
func resolve(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, unknownValue) {
		return ""
	}
	return value
}

// resolveDate returns the date part of a timestamp, or the resolved value when it is not one.
func resolveDate(value string) string {
	value = resolve(value)
	if value == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return value
}
