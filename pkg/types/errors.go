package types

import "errors"

// Evaluation errors. Their messages are returned verbatim to callers of every host.
var (
	ErrMissingClosingParenthesis = errors.New("Missing closing parenthesis")
	ErrInvalidFactor             = errors.New("Invalid factor")
	ErrInvalidNumber             = errors.New("Invalid number")

	// ErrNestingTooDeep is only produced when a nesting limit is configured
	ErrNestingTooDeep = errors.New("Maximum nesting depth exceeded")
)

// Domain errors for record validation
var (
	ErrMissingSource    = errors.New("evaluation source is required")
	ErrInvalidErrorKind = errors.New("invalid error kind")
	ErrNegativeDuration = errors.New("duration cannot be negative")
)
