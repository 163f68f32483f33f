// Package errors provides custom error types for the Posture SDK.
// Every structural failure carries enough context (source path, record
// index, rule-set id) for the caller to locate the bad input.
package errors

import (
	"errors"
	"fmt"
)

// =============================================================================
// Base Error Type
// =============================================================================

// Error is the base error type for all SDK errors.
type Error struct {
	// Kind indicates the category of error
	Kind Kind

	// Op is the operation being performed (e.g., "normalizer.ParseFile")
	Op string

	// Message is a human-readable description
	Message string

	// Err is the underlying error
	Err error
}

// Kind represents the kind/category of error.
type Kind uint8

const (
	KindUnknown Kind = iota

	// KindNotFound - a referenced input (raw file, rule-set id) does not
	// exist. Recoverable by the caller.
	KindNotFound

	// KindMalformedInput - input exists but is not parseable as the
	// expected structured format (invalid JSON/YAML syntax).
	KindMalformedInput

	// KindShape - input parses but violates the expected schema/shape
	// (wrong top-level type, missing required field, unknown field).
	KindShape

	// KindLoad - a rule-set loading failure wrapping a lower-level error
	// with added rule-set context.
	KindLoad

	// KindInvalidInput - a caller-supplied argument is invalid.
	KindInvalidInput

	// KindInternal - an unexpected internal failure.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindMalformedInput:
		return "malformed_input"
	case KindShape:
		return "shape"
	case KindLoad:
		return "load"
	case KindInvalidInput:
		return "invalid_input"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		if e.Message != "" {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// =============================================================================
// Constructors
// =============================================================================

// E constructs an Error from the given arguments.
// Arguments can be: Kind, string (Op first, then Message), error.
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Kind:
			e.Kind = a
		case string:
			if e.Op == "" {
				e.Op = a
			} else {
				e.Message = a
			}
		case error:
			e.Err = a
		}
	}
	return e
}

// New creates a new simple error.
func New(message string) error {
	return &Error{Message: message}
}

// Wrap wraps an error with an operation, preserving its kind.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Op: op, Err: err}
	}
	return &Error{Op: op, Err: err}
}

// WrapWithMessage wraps an error with a message, preserving its kind.
func WrapWithMessage(err error, message string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Message: message, Err: err}
	}
	return &Error{Message: message, Err: err}
}

// =============================================================================
// Error Checkers
// =============================================================================

// GetKind returns the Kind of the error, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsNotFound checks if the error is a not-found error.
func IsNotFound(err error) bool {
	return GetKind(err) == KindNotFound
}

// IsMalformedInput checks if the error is a malformed-input error.
func IsMalformedInput(err error) bool {
	return GetKind(err) == KindMalformedInput
}

// IsShape checks if the error is a shape/schema violation.
func IsShape(err error) bool {
	return GetKind(err) == KindShape
}

// IsLoad checks if the error is a rule-set load failure.
func IsLoad(err error) bool {
	return GetKind(err) == KindLoad
}

// IsInvalidInput checks if the error is an invalid-input error.
func IsInvalidInput(err error) bool {
	return GetKind(err) == KindInvalidInput
}
