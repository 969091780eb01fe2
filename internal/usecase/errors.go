package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrMalformedRecord marks a single provider record that lacks data the
	// classifier needs. Callers skip the record and keep going.
	ErrMalformedRecord = errors.New("malformed record")
)

// TransportError is returned once every attempt to fetch Path has failed.
// It is fatal for a crawl.
type TransportError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.Path, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}
