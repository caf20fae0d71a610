package spec

import (
	"errors"
	"fmt"

	"github.com/davidmdm/x/xerr"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrConfig          = errors.New("config error")
	ErrUnsupportedKind = errors.New("unsupported kind")
)

// ValidationError reports a missing or invalid field on the incoming request.
type ValidationError struct {
	Field   string
	Message string
}

func (err *ValidationError) Error() string {
	if err.Field == "" {
		return err.Message
	}
	return fmt.Sprintf("%s: %s", err.Field, err.Message)
}

func (*ValidationError) Is(target error) bool { return target == ErrValidation }

// ConfigError reports overrides that are valid on their own but inconsistent together.
type ConfigError struct {
	Field   string
	Message string
}

func (err *ConfigError) Error() string {
	if err.Field == "" {
		return err.Message
	}
	return fmt.Sprintf("%s: %s", err.Field, err.Message)
}

func (*ConfigError) Is(target error) bool { return target == ErrConfig }

type UnsupportedKindError struct {
	Kind string
}

func (err *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported kind %q: must be one of service, job, worker", err.Kind)
}

func (*UnsupportedKindError) Is(target error) bool { return target == ErrUnsupportedKind }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func inconsistent(field, format string, args ...any) error {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Errors aggregates every problem found in a single request.
// It unwraps to its members so errors.Is and errors.As see each of them.
type Errors []error

func (errs Errors) Error() string {
	if err := xerr.MultiErrOrderedFrom("invalid request", errs...); err != nil {
		return err.Error()
	}
	return "invalid request"
}

func (errs Errors) Unwrap() []error { return errs }

func (errs Errors) Err() error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errs
	}
}
