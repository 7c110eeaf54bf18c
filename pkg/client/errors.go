package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidBaseURL is returned when the base URL is not absolute.
	ErrInvalidBaseURL = errors.New("csodata: invalid base URL")
	// ErrNilHTTPClient indicates a nil HTTP client was provided.
	ErrNilHTTPClient = errors.New("csodata: http client cannot be nil")
	// ErrNotFound matches an *APIError for a resource that does not exist.
	ErrNotFound = errors.New("csodata: not found")
	// ErrInvalidJSON reports a response body that is not valid JSON.
	ErrInvalidJSON = errors.New("csodata: response is not valid JSON")
)

// APIError represents a failed request: an HTTP error status, a transport
// failure after the last retry, or an unusable body.
type APIError struct {
	URL    string
	Status int
	Detail string
	Err    error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("csodata: request to %s failed", e.URL)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status=%d)", e.Status)
	}
	switch {
	case e.Detail != "":
		msg += ": " + e.Detail
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

// Is reports ErrNotFound for 404 and 410 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && (e.Status == http.StatusNotFound || e.Status == http.StatusGone)
}

// Temporary reports whether the error may be retried.
func (e *APIError) Temporary() bool {
	if e == nil {
		return false
	}
	return e.Status >= 500 && e.Status < 600
}
