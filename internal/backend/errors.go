package backend

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the backend, carrying the HTTP
// status code and the backend-provided error text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend: api error: status %d: %s", e.StatusCode, e.Message)
}

// Unauthorized reports whether the error represents a credential rejection.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// AuthError is a failed sign-in attempt. It wraps the backend's error
// payload when one was returned.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("backend: authentication failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("backend: authentication rejected: status %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("backend: authentication rejected: status %d", e.StatusCode)
	}
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
