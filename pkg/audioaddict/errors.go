package audioaddict

import (
	"errors"
	"fmt"
)

// Errors returned by the client. Use errors.Is to match them.
var (
	// ErrInvalidService indicates a service id outside the supported set.
	ErrInvalidService = errors.New("invalid service")

	// ErrInvalidStreamQuality indicates a stream quality outside the supported set.
	ErrInvalidStreamQuality = errors.New("invalid stream quality")

	// ErrChannelNotFound indicates no directory entry carries the requested key.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrNoService indicates a network operation was attempted before a service was configured.
	ErrNoService = errors.New("no service configured")

	// ErrNoSources indicates the stream endpoint returned an empty source list.
	ErrNoSources = errors.New("no stream sources available")
)

// errTrailingData is wrapped in a MalformedResponseError when a body holds
// more than one JSON value.
var errTrailingData = errors.New("unexpected data after JSON value")

// NetworkError reports a transport failure or an unexpected HTTP status.
type NetworkError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a response body that is not valid JSON or
// does not have the expected shape.
type MalformedResponseError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("decoding response from %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
