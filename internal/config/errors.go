package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is wrapped by every configuration failure
var ErrInvalidConfiguration = errors.New("invalid configuration")

// InvalidConfigurationError names the offending setting
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *InvalidConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

func invalid(field, format string, args ...any) error {
	return &InvalidConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
