package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable marks an upstream fetch that failed or timed out.
	// Callers in the aggregation path treat it as an empty dataset.
	ErrDataUnavailable = errors.New("data unavailable")
	ErrInvalidCriteria = errors.New("invalid criteria")
	ErrNotFound        = errors.New("not found")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidCriteria }
