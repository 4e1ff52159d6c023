package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an evaluation failure
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindMissingParenthesis ErrorKind = "missing_parenthesis"
	KindInvalidFactor      ErrorKind = "invalid_factor"
	KindInvalidNumber      ErrorKind = "invalid_number"
	KindNestingTooDeep     ErrorKind = "nesting_too_deep"
)

// Valid reports whether k is a known failure kind
func (k ErrorKind) Valid() bool {
	switch k {
	case KindMissingParenthesis, KindInvalidFactor, KindInvalidNumber, KindNestingTooDeep:
		return true
	default:
		return false
	}
}

// Sentinel returns the sentinel error for the kind, or nil for KindNone and unknown kinds
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindMissingParenthesis:
		return ErrMissingClosingParenthesis
	case KindInvalidFactor:
		return ErrInvalidFactor
	case KindInvalidNumber:
		return ErrInvalidNumber
	case KindNestingTooDeep:
		return ErrNestingTooDeep
	default:
		return nil
	}
}

// KindOf maps an error returned by the parser to its kind.
// Errors that did not come from the parser map to KindNone.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingClosingParenthesis):
		return KindMissingParenthesis
	case errors.Is(err, ErrInvalidFactor):
		return KindInvalidFactor
	case errors.Is(err, ErrInvalidNumber):
		return KindInvalidNumber
	case errors.Is(err, ErrNestingTooDeep):
		return KindNestingTooDeep
	default:
		return KindNone
	}
}

// Result is the output of parsing a complete expression
type Result struct {
	Value float64

	// Consumed is the number of runes read, including whitespace skipped after the last token
	Consumed int
	// Trailing is the unconsumed remainder of the input. It is informational only;
	// trailing input never fails an evaluation.
	Trailing string
}

// HasTrailing returns true if part of the input was left unconsumed
func (r *Result) HasTrailing() bool {
	return r.Trailing != ""
}

// EvalError describes where and why an evaluation failed
type EvalError struct {
	Kind     ErrorKind
	Message  string
	Position int // rune offset at which the failure was detected
	err      error
}

// NewEvalError wraps a parser sentinel with the position it was raised at
func NewEvalError(err error, position int) *EvalError {
	return &EvalError{
		Kind:     KindOf(err),
		Message:  err.Error(),
		Position: position,
		err:      err,
	}
}

// RestoreEvalError rebuilds an EvalError from its stored fields
func RestoreEvalError(kind ErrorKind, message string, position int) *EvalError {
	err := kind.Sentinel()
	if err == nil {
		err = errors.New(message)
	}
	return &EvalError{Kind: kind, Message: message, Position: position, err: err}
}

// Error implements the error interface
func (e *EvalError) Error() string {
	return e.Message
}

// Unwrap returns the underlying sentinel so errors.Is works across layers
func (e *EvalError) Unwrap() error {
	return e.err
}

// Detail returns the message annotated with its position, for logs
func (e *EvalError) Detail() string {
	return fmt.Sprintf("%s at position %d", e.Message, e.Position)
}
