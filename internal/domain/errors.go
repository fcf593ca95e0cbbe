package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrModelNotFound signals a missing equipment model.
	ErrModelNotFound = errors.New("model not found")
	// ErrManufacturerNotFound signals a missing manufacturer.
	ErrManufacturerNotFound = errors.New("manufacturer not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation signals a record that violates the catalog data contract.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration signals invalid scoring or query configuration.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInvalidQuery signals a filter that does not match the field schema.
	ErrInvalidQuery = errors.New("invalid query")
)

// ValidationError wraps ErrValidation with the offending record and field.
type ValidationError struct {
	RecordID string
	Field    string
}

func (e *ValidationError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("%s: missing field %q", ErrValidation.Error(), e.Field)
	}
	return fmt.Sprintf("%s: missing field %q on record %q", ErrValidation.Error(), e.Field, e.RecordID)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a missing-field validation error.
func NewValidation(recordID, field string) error {
	return &ValidationError{RecordID: recordID, Field: field}
}

// ConfigurationError wraps ErrConfiguration with a reason.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return ErrConfiguration.Error() + ": " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfiguration creates a configuration error.
func NewConfiguration(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
