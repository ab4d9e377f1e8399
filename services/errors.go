package services

import (
	"errors"
	"sort"
	"strings"
)

// Error taxonomy. Controllers map these to HTTP status codes; services wrap
// them with context via fmt.Errorf and %w.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrCapacityExceeded  = errors.New("match full")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyReserved   = errors.New("already reserved for another match")
	ErrContention        = errors.New("retry budget exhausted")
	ErrCredentialInvalid = errors.New("invalid credential")

	// ErrVersionConflict is internal to the compare-and-swap cycle and never
	// escapes the service layer.
	ErrVersionConflict = errors.New("version conflict")
)

// ValidationError aggregates every field violation of a request so clients
// see all of them at once instead of first-error-wins.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return "invalid match parameters: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
