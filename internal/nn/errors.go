package nn

import (
	"errors"
	"fmt"
)

// Error kinds reported by option validation and the lookup operators.
// Match them with errors.Is.
var (
	// ErrConstruction reports a required field that fails its positivity check.
	ErrConstruction = errors.New("construction error")

	// ErrConfigConflict reports an option value that is out of range or
	// incompatible with another option.
	ErrConfigConflict = errors.New("configuration conflict")

	// ErrInvalidInput reports a malformed argument passed to a lookup at
	// call time (index out of range, bad offsets, mismatched shapes).
	ErrInvalidInput = errors.New("invalid input")
)

// OptionError names the option and the rule it violates.
type OptionError struct {
	Kind   error  // ErrConstruction or ErrConfigConflict
	Field  string // Option name, e.g. "padding_idx"
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Reason)
}

// Unwrap returns the error kind.
func (e *OptionError) Unwrap() error {
	return e.Kind
}

func constructionError(field, format string, args ...any) error {
	return &OptionError{Kind: ErrConstruction, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func conflictError(field, format string, args ...any) error {
	return &OptionError{Kind: ErrConfigConflict, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func inputError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
