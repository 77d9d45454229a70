// Package apperr defines the error kinds that cross package boundaries.
//
// Configuration and validation errors abort a call chain. Upstream fetch
// errors are reported to callers as unsuccessful results. An empty data
// window is not an error at all.
package apperr

import (
	"errors"
	"fmt"
)

// ConfigurationError reports missing or invalid configuration. Never retried.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// ValidationError reports malformed caller input and names the offending field
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

// UpstreamFetchError wraps a failure of the location recorder
type UpstreamFetchError struct {
	Op  string
	Err error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}

// Configuration builds a ConfigurationError
func Configuration(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a ValidationError
func Validation(field, value, format string, args ...any) error {
	return &ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps err as an UpstreamFetchError unless it already is one
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamFetchError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamFetchError{Op: op, Err: err}
}

// IsConfiguration reports whether err is a ConfigurationError
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err is an UpstreamFetchError
func IsUpstream(err error) bool {
	var ue *UpstreamFetchError
	return errors.As(err, &ue)
}
