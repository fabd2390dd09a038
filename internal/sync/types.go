// Package sync reconciles the local member set with a Constant Contact list.
package sync

// MemberResult contains the outcome of processing a single member.
type MemberResult struct {
	// ContactID is the Constant Contact contact identifier.
	ContactID string

	// Created indicates the member was not on the list and was upserted.
	Created bool

	// Email is the member's email as supplied.
	Email string

	// Error contains any error that occurred during processing.
	Error error

	// Updated indicates an existing contact was updated.
	Updated bool
}

// Result contains the outcome of a sync operation.
type Result struct {
	// Added is the number of members upserted because no contact matched.
	Added int `json:"added"`

	// DryRun indicates this was a dry-run (no writes to Constant Contact).
	DryRun bool `json:"-"`

	// Errors contains one message per member that failed, or the batch failure.
	Errors []string `json:"errors"`

	// Updated is the number of existing contacts updated.
	Updated int `json:"updated"`
}

// record folds a member outcome into the result.
func (r *Result) record(mr MemberResult) {
	switch {
	case mr.Error != nil:
		r.Errors = append(r.Errors, memberErrorMessage(mr.Email, mr.Error))
	case mr.Created:
		r.Added++
	case mr.Updated:
		r.Updated++
	}
}
