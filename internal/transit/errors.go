package transit

import (
	"errors"
	"fmt"
)

// Sentinel errors for adapter resolution and upstream access.
var (
	// ErrUnsupportedCity indicates the requested city is not in the closed
	// set of supported transit systems. Raised before any network activity.
	ErrUnsupportedCity = errors.New("unsupported transit city")

	// ErrMissingCredential indicates a required provider credential was not
	// configured. Raised at adapter construction, never mid-fetch.
	ErrMissingCredential = errors.New("missing provider credential")

	// ErrUpstreamUnavailable indicates the upstream transit API could not be
	// reached or returned a non-success status.
	ErrUpstreamUnavailable = errors.New("transit provider unavailable")
)

// Error is the single normalized error kind adapters surface to callers.
// Raw transport errors never leak past an adapter boundary.
type Error struct {
	// City tags which transit system produced the error.
	City City

	// StatusCode is the upstream HTTP status, 0 when not applicable.
	StatusCode int

	// Message is a human-readable description.
	Message string

	// Err is the sentinel categorizing the failure.
	Err error

	// Cause is the originating transport error, when one exists.
	Cause error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.City, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.City, e.Message)
}

// Unwrap exposes both the sentinel and the originating cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// UpstreamError wraps an upstream transport failure into the normalized form.
func UpstreamError(city City, statusCode int, message string, cause error) *Error {
	return &Error{
		City:       city,
		StatusCode: statusCode,
		Message:    message,
		Err:        ErrUpstreamUnavailable,
		Cause:      cause,
	}
}
