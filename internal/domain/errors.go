package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrPersistence = errors.New("persistence error")
	ErrLookup      = errors.New("lookup error")
)

// ValidationError reports every required field that was absent from a submission.
type ValidationError struct {
	MissingFields []string
	Message       string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	if len(e.MissingFields) > 0 {
		return fmt.Sprintf("%s: missing required fields: %s", ErrValidation, strings.Join(e.MissingFields, ", "))
	}
	return ErrValidation.Error()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
