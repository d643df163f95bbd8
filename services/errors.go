package services

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned when a niche has no businesses to
// score. The aggregator turns it into a per-niche skip; it never aborts
// a batch.
var ErrInsufficientData = errors.New("insufficient data: niche has no businesses")

// ValidationError means the top-level collector input is not a
// processable sequence of record-like structures. It is fatal to the
// run; per-record issues are handled by discard or flag instead.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }
