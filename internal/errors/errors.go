package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for the user service
type ErrorType string

const (
	// Storage errors
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeMalformed  ErrorType = "malformed"
	ErrorTypePermission ErrorType = "permission"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// StorageError represents a failure to read or write the persisted user collection
type StorageError struct {
	Type       ErrorType
	Backend    string
	Location   string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewStorageError creates a new storage error for the given operation and location
func NewStorageError(op, location string, err error) *StorageError {
	errorType := ErrorTypeStorage
	if stderrors.Is(err, fs.ErrPermission) {
		errorType = ErrorTypePermission
	}

	return &StorageError{
		Type:       errorType,
		Location:   location,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewMalformedError creates a storage error for persisted data that cannot be
// parsed into the user record shape
func NewMalformedError(location string, err error) *StorageError {
	return &StorageError{
		Type:       ErrorTypeMalformed,
		Location:   location,
		Operation:  "load",
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithBackend records which store backend produced the error
func (e *StorageError) WithBackend(backend string) *StorageError {
	e.Backend = backend
	return e
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.Location, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *StorageError) Unwrap() error {
	return e.Underlying
}

// IsStorageError reports whether err or anything it wraps is a StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return stderrors.As(err, &se)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %q): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
