package sheetfetch

import (
	"errors"
	"fmt"
)

var (
	// ErrNotModifiedWithoutCache is returned for a 304 answer when no body is cached
	ErrNotModifiedWithoutCache = errors.New("received 304 Not Modified but no cached body available")
	// ErrBodyTooLarge is returned when the export exceeds the configured size
	ErrBodyTooLarge = errors.New("response body exceeds size limit")
)

// FetchError describes a failed fetch of one source. Status is the HTTP status
// code, or zero when the request never got an answer.
type FetchError struct {
	SourceID string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("source %s: status %d: %v", e.SourceID, e.Status, e.Err)
	}
	return fmt.Sprintf("source %s: %v", e.SourceID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
