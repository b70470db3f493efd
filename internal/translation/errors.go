package translation

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned when a backend is created without credentials
	ErrMissingAPIKey = errors.New("API key not found")
	// ErrCircuitOpen is returned while the backend is failing too often to be called
	ErrCircuitOpen = errors.New("translation service unavailable")
	// ErrEmptyResponse is returned when the service answers without content
	ErrEmptyResponse = errors.New("no translation returned")
)

// BackendError reports a translation that failed even after the retry
type BackendError struct {
	Provider string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s translation failed: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// AlignmentError reports a batch result that does not line up with its request
type AlignmentError struct {
	Want    int
	Got     int
	Missing string // Identifier of the first segment without a translation
}

func (e *AlignmentError) Error() string {
	if e.Missing != "" {
		return fmt.Sprintf("translation batch misaligned: no result for %s", e.Missing)
	}
	return fmt.Sprintf("translation batch misaligned: sent %d segments, got %d", e.Want, e.Got)
}
