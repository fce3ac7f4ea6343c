// Package apperr defines the error kinds shared by the rater layers.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Wrap them with %w; callers match with errors.Is.
var (
	ErrLoad           = errors.New("load error")
	ErrValidation     = errors.New("validation error")
	ErrFactorNotFound = errors.New("factor not found")
	ErrCalculation    = errors.New("calculation error")
	ErrStorage        = errors.New("storage error")
	ErrExport         = errors.New("export error")
	ErrConfiguration  = errors.New("configuration error")
	ErrNotFound       = errors.New("record not found")
)

// ValidationError aggregates every structural defect found in one pass.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "validation failed: " + e.Issues[0]
	}
	var b strings.Builder
	b.WriteString("validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation returns nil when issues is empty.
func NewValidation(issues []string) error {
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

// FactorNotFoundError identifies the lookup that missed.
type FactorNotFoundError struct {
	FactorType string
	Key        string
	Program    string
	State      string
	Detail     string
}

func (e *FactorNotFoundError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	msg := fmt.Sprintf("factor not found: %s with key '%s'", e.FactorType, e.Key)
	if e.Program != "" {
		msg += fmt.Sprintf(" for program '%s'", e.Program)
	}
	if e.State != "" {
		msg += fmt.Sprintf(" in state '%s'", e.State)
	}
	return msg
}

func (e *FactorNotFoundError) Unwrap() error { return ErrFactorNotFound }

// FactorNotFound builds a FactorNotFoundError with the standard message.
func FactorNotFound(factorType, key, program, state string) error {
	return &FactorNotFoundError{FactorType: factorType, Key: key, Program: program, State: state}
}

// Loadf wraps a formatted message with ErrLoad.
func Loadf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLoad, fmt.Sprintf(format, args...))
}

// Calculationf wraps a formatted message with ErrCalculation.
func Calculationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCalculation, fmt.Sprintf(format, args...))
}

// Configurationf wraps a formatted message with ErrConfiguration.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Storagef wraps a formatted message with ErrStorage.
func Storagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStorage, fmt.Sprintf(format, args...))
}

// Exportf wraps a formatted message with ErrExport.
func Exportf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrExport, fmt.Sprintf(format, args...))
}

// ErrBandNotFound is returned when a value falls outside every band. It is a
// kind of ErrFactorNotFound.
var ErrBandNotFound = fmt.Errorf("band not found: %w", ErrFactorNotFound)

// Kind names the error kind of err for logs and metrics. Unclassified errors
// report "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrFactorNotFound):
		return "factor_not_found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCalculation):
		return "calculation"
	case errors.Is(err, ErrLoad):
		return "load"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrExport):
		return "export"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	}
	return "internal"
}
