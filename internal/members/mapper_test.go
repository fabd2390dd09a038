package members

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/clubsync/internal/constantcontact"
)

func TestRecord_ToDomainType(t *testing.T) {
	t.Parallel()

	allIDs := CustomFieldIDs{
		JoinedDate:     "cf-joined",
		MembershipType: "cf-type",
		Status:         "cf-status",
	}

	tests := map[string]struct {
		ids    CustomFieldIDs
		record *Record
		want   *constantcontact.Contact
	}{
		"nil record": {
			record: nil,
			want:   nil,
		},
		"email only": {
			record: &Record{Email: "  A@X.com "},
			want: &constantcontact.Contact{
				EmailAddress: &constantcontact.EmailAddress{Address: "a@x.com", PermissionToSend: "implicit"},
			},
		},
		"full record": {
			ids: allIDs,
			record: &Record{
				Address:        "1 Main St",
				City:           "Springfield",
				Email:          "ann@example.com",
				FirstName:      "Ann",
				JoinedDate:     "2023-04-01",
				LastName:       "Lee",
				MembershipType: "Sustaining",
				Phone:          "555-0100",
				State:          "IL",
				Status:         "active",
				ZipCode:        "62701",
			},
			want: &constantcontact.Contact{
				CustomFields: []constantcontact.CustomField{
					{CustomFieldID: "cf-type", Value: "Sustaining"},
					{CustomFieldID: "cf-status", Value: "active"},
					{CustomFieldID: "cf-joined", Value: "2023-04-01"},
				},
				EmailAddress: &constantcontact.EmailAddress{Address: "ann@example.com", PermissionToSend: "implicit"},
				FirstName:    "Ann",
				LastName:     "Lee",
				PhoneNumbers: []constantcontact.PhoneNumber{{Kind: "home", PhoneNumber: "555-0100"}},
				StreetAddresses: []constantcontact.StreetAddress{{
					City:       "Springfield",
					Kind:       "home",
					PostalCode: "62701",
					State:      "IL",
					Street:     "1 Main St",
				}},
			},
		},
		"unknown values are dropped": {
			ids: allIDs,
			record: &Record{
				Address:        "unknown",
				City:           "Unknown",
				Email:          "a@x.com",
				FirstName:      "UNKNOWN",
				LastName:       " unknown ",
				MembershipType: "unknown",
				Phone:          "unknown",
				State:          "",
				Status:         "Unknown",
				ZipCode:        "unknown",
			},
			want: &constantcontact.Contact{
				EmailAddress: &constantcontact.EmailAddress{Address: "a@x.com", PermissionToSend: "implicit"},
			},
		},
		"custom fields without IDs are not sent": {
			ids: CustomFieldIDs{Status: "cf-status"},
			record: &Record{
				Email:          "a@x.com",
				JoinedDate:     "2023-04-01",
				MembershipType: "Regular",
				Status:         "active",
			},
			want: &constantcontact.Contact{
				CustomFields: []constantcontact.CustomField{{CustomFieldID: "cf-status", Value: "active"}},
				EmailAddress: &constantcontact.EmailAddress{Address: "a@x.com", PermissionToSend: "implicit"},
			},
		},
		"joined date falls back to created at": {
			ids: allIDs,
			record: &Record{
				CreatedAt:  "2022-11-05T18:22:10Z",
				Email:      "a@x.com",
				JoinedDate: "unknown",
			},
			want: &constantcontact.Contact{
				CustomFields: []constantcontact.CustomField{{CustomFieldID: "cf-joined", Value: "2022-11-05"}},
				EmailAddress: &constantcontact.EmailAddress{Address: "a@x.com", PermissionToSend: "implicit"},
			},
		},
		"partial address": {
			record: &Record{Email: "a@x.com", City: "Springfield", Address: "unknown"},
			want: &constantcontact.Contact{
				EmailAddress:    &constantcontact.EmailAddress{Address: "a@x.com", PermissionToSend: "implicit"},
				StreetAddresses: []constantcontact.StreetAddress{{City: "Springfield", Kind: "home"}},
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := tc.record.ToDomainType(tc.ids)

			require.Equal(t, tc.want, got)
		})
	}
}

func TestResolveDate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		value string
		want  string
	}{
		"empty":                {value: "", want: ""},
		"unknown":              {value: "unknown", want: ""},
		"date only":            {value: "2024-01-15", want: "2024-01-15"},
		"RFC3339":              {value: "2024-01-15T10:30:00Z", want: "2024-01-15"},
		"postgres timestamp":   {value: "2024-01-15 10:30:00.123456+00", want: "2024-01-15"},
		"timestamp no zone":    {value: "2024-01-15 10:30:00", want: "2024-01-15"},
		"free text kept as is": {value: "Spring 2019", want: "Spring 2019"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, resolveDate(tc.value))
		})
	}
}
