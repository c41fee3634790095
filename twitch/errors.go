package twitch

import (
	"fmt"
	"net/http"
)

// APIError represents an error response from the Helix API.
type APIError struct {
	StatusCode int
	ErrorText  string // e.g. "Unauthorized", from the response body's "error" field
	Message    string
	URL        string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("twitch api error: %d %s: %s at %s", e.StatusCode, e.ErrorText, e.Message, e.URL)
	}
	return fmt.Sprintf("twitch api error: %d %s at %s", e.StatusCode, e.ErrorText, e.URL)
}

// IsNotFound reports whether the error is a 404 response.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsConflict reports whether the error is a 409 response. EventSub returns
// 409 when an identical subscription already exists; callers usually treat
// that as success.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// AuthError represents a failure to obtain or use an app access token.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("twitch auth failed: %v", e.Err)
	}
	return fmt.Sprintf("twitch auth failed: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AuthError) Unwrap() error {
	return e.Err
}
