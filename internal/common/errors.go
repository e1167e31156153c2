package common

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is matched by every configuration and validation failure.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// WrapError wraps an error with additional context information
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf wraps an error with formatted context information
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message
func NewError(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// ValidationError represents validation errors with field-specific information
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ConfigurationError represents configuration-related errors
type ConfigurationError struct {
	Section string
	Field   string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Section != "" && e.Field != "" {
		return fmt.Sprintf("configuration error in section '%s', field '%s': %s", e.Section, e.Field, e.Reason)
	} else if e.Section != "" {
		return fmt.Sprintf("configuration error in section '%s': %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// Unwrap lets callers match configuration errors with errors.Is(err, ErrInvalidConfiguration).
func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(section, field, reason string) *ConfigurationError {
	return &ConfigurationError{
		Section: section,
		Field:   field,
		Reason:  reason,
	}
}

// ErrorCollector gathers independent failures, such as one per bad target URL,
// so a caller can report all of them at once.
type ErrorCollector struct {
	errs []error
}

// Add records err. Nil errors are ignored.
func (ec *ErrorCollector) Add(err error) {
	if err != nil {
		ec.errs = append(ec.errs, err)
	}
}

// Len returns the number of recorded errors.
func (ec *ErrorCollector) Len() int {
	return len(ec.errs)
}

// Err returns nil, the only recorded error, or all of them joined.
// The joined error still matches every recorded error with errors.Is and errors.As.
func (ec *ErrorCollector) Err() error {
	switch len(ec.errs) {
	case 0:
		return nil
	case 1:
		return ec.errs[0]
	default:
		return errors.Join(ec.errs...)
	}
}
