package constantcontact

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is returned for any non-2xx response from the contact API.
type APIError struct {
	// Body is the raw response body.
	Body string

	// Message is the provider's error message, or the raw body when it was not JSON.
	Message string

	// StatusCode is the HTTP status code.
	StatusCode int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("constant contact API returned status %d: %s", e.StatusCode, e.Message)
}

// TokenRefreshError is returned when the refresh token could not be exchanged.
type TokenRefreshError struct {
	// Body is the raw response body, when a response was received.
	Body string

	// Err is the transport or decoding error, when no usable response was received.
	Err error

	// StatusCode is the upstream status, or 0 when no response was received.
	StatusCode int
}

// Error implements the error interface.
func (e *TokenRefreshError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("token refresh failed: %v", e.Err)
	}
	return fmt.Sprintf("token refresh failed with status %d: %s", e.StatusCode, e.Body)
}

// Unwrap returns the underlying error.
func (e *TokenRefreshError) Unwrap() error {
	return e.Err
}

// providerError is one of the error payload shapes the API returns.
//
//nolint:tagliatelle // External API uses snake_case.
type providerError struct {
	Description string `json:"error_description"`
	Error       string `json:"error"`
	ErrorKey    string `json:"error_key"`
	Message     string `json:"error_message"`
}

// text returns the most descriptive message in the payload.
func (p providerError) text() string {
	switch {
	case p.Message != "":
		return p.Message
	case p.Description != "":
		return p.Description
	case p.Error != "":
		return p.Error
	default:
		return p.ErrorKey
	}
}

// newAPIError builds an APIError, extracting the provider message when the body is JSON.
// The API returns either an array of errors or a single error object.
func newAPIError(statusCode int, body []byte) *APIError {
	raw := strings.TrimSpace(string(body))
	return &APIError{
		Body:       raw,
		Message:    errorMessage(raw),
		StatusCode: statusCode,
	}
}

func errorMessage(raw string) string {
	var many []providerError
	if err := json.Unmarshal([]byte(raw), &many); err == nil {
		msgs := make([]string, 0, len(many))
		for _, p := range many {
			if text := p.text(); text != "" {
				msgs = append(msgs, text)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	var one providerError
	if err := json.Unmarshal([]byte(raw), &one); err == nil {
		if text := one.text(); text != "" {
			return text
		}
	}

	if raw == "" {
		return "empty response body"
	}
	return raw
}
