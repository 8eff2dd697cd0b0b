package clientcli

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
	ErrProfileName     = errors.New("profile name is required")
)

// Errors for configuration validation.
var (
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrConfigRequired   = errors.New("config is required")
)

// Errors for input validation.
var (
	ErrNoIDs     = errors.New("no fragment ids provided")
	ErrEmptyID   = errors.New("fragment id is required")
	ErrEmptyPath = errors.New("path is required")
)

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	// Message is the error envelope's message, or the raw body when the
	// response was not an envelope.
	Message string
}

func (e *APIError) Error() string {
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Message
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the fragment does not exist for this user (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when the credentials are missing or wrong (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrUnsupportedType is returned for an unsupported content type or an
	// unreachable conversion (415).
	ErrUnsupportedType = &APIError{StatusCode: http.StatusUnsupportedMediaType}

	// ErrTooLarge is returned when the body exceeds the server's upload limit (413).
	ErrTooLarge = &APIError{StatusCode: http.StatusRequestEntityTooLarge}
)

// parseServerError builds an APIError from a non-success response.
func parseServerError(statusCode int, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		return &APIError{StatusCode: statusCode, Message: env.Error.Message}
	}
	return &APIError{StatusCode: statusCode, Message: string(body)}
}
