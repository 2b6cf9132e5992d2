package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrPageLimitExceeded is returned when a pagination run exceeds the
	// configured MaxPages guard, which only happens when the server keeps
	// returning cursors forever.
	ErrPageLimitExceeded = errors.New("page limit exceeded")
)

// HTTPError is returned for any non-2xx API response. It carries the numeric
// status code and the raw response body so callers can classify the failure
// and surface the server's message.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("api error (status %d)", e.StatusCode)
}

// StatusOf extracts the HTTP status code from an error chain.
// Returns 0 when the error is not an HTTPError.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether the error is an HTTP 404 response.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsUnauthorized reports whether the error is an HTTP 401 response.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsForbidden reports whether the error is an HTTP 403 response.
func IsForbidden(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}
