package members

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// NormalizeEmail returns the form used to match members against contacts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a single bare address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email %q: %w", email, err)
	}
	if addr.Address != email {
		return fmt.Errorf("invalid email %q: display names are not allowed", email)
	}

	return nil
}
