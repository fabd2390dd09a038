package config

import (
	"fmt"
	"strings"
)

// MissingError reports required configuration values that are not set.
type MissingError struct {
	// Vars are the names of the missing values.
	Vars []string
}

// Error implements the error interface.
func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Vars, ", "))
}
