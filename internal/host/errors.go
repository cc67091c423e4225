package host

import (
	"errors"
	"fmt"
)

// Errors returned by host adapters.
var (
	// ErrNoEditor indicates a function needed an editor capability but none is attached.
	ErrNoEditor = errors.New("no editor attached")

	// ErrNoFetcher indicates a fetch was requested without a network capability.
	ErrNoFetcher = errors.New("no fetcher configured")

	// ErrOffsetOutOfRange indicates a selection offset is outside the buffer.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrNotCharBoundary indicates an offset splits a UTF-8 sequence.
	ErrNotCharBoundary = errors.New("offset is not on a character boundary")

	// ErrResponseTooLarge indicates a response body exceeded the configured limit.
	ErrResponseTooLarge = errors.New("response too large")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("unexpected status %s", e.Status)
}
