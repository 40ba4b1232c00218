package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced to callers. Concrete errors wrap one of these so
// callers can branch with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrParse             = errors.New("parse error")
	ErrPartitionNotFound = errors.New("partition not found")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrStoreWrite        = errors.New("store write failed")
)

// Field names reported by ValidationError.
const (
	FieldDate        = "date"
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldMonths      = "months"
)

// ValidationError lists every field of a candidate record that is missing or invalid.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: invalid %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Has reports whether field is among the offending fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// ParseError reports a stored value that could not be converted.
type ParseError struct {
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Value, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }
