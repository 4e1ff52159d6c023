// Package calculator models the display of a push-button calculator.
//
// The display is a free-form expression string that starts at "0". Buttons
// append to it, Calculate replaces it with the result, and Clear resets it.
// Results are rendered the way a JavaScript front end renders numbers, so
// 1/0 shows "Infinity" and a failed evaluation shows "Error".
package calculator

import (
	"strings"
	"unicode/utf8"
)

const (
	// InitialDisplay is shown after construction and Clear
	InitialDisplay = "0"
	// ErrorDisplay replaces the display when an evaluation fails
	ErrorDisplay = "Error"
)

// Evaluator evaluates an arithmetic expression
type Evaluator interface {
	Evaluate(expr string) (float64, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface
type EvaluatorFunc func(expr string) (float64, error)

// Evaluate calls f(expr)
func (f EvaluatorFunc) Evaluate(expr string) (float64, error) {
	return f(expr)
}

// Calculator holds the display state. It is not safe for concurrent use.
type Calculator struct {
	display string
	lastErr error
}

// New creates a calculator showing "0"
func New() *Calculator {
	return &Calculator{display: InitialDisplay}
}

// Display returns the current display text
func (c *Calculator) Display() string {
	return c.display
}

// LastError returns the error from the most recent Calculate, if it failed
func (c *Calculator) LastError() error {
	return c.lastErr
}

// Input appends a digit, operator, parenthesis or dot to the display.
// A dot is ignored when the display already contains one anywhere. Any other
// input replaces a lone "0".
func (c *Calculator) Input(s string) {
	if s == "." && strings.Contains(c.display, ".") {
		return
	}
	if c.display == InitialDisplay && s != "." {
		c.display = s
		return
	}
	c.display += s
}

// Clear resets the display to "0"
func (c *Calculator) Clear() {
	c.display = InitialDisplay
	c.lastErr = nil
}

// SetDisplay replaces the display with free-form text. Empty text shows "0".
func (c *Calculator) SetDisplay(s string) {
	if s == "" {
		s = InitialDisplay
	}
	c.display = s
}

// Backspace removes the last character. Removing the only character shows "0".
func (c *Calculator) Backspace() {
	if c.display == "" {
		c.display = InitialDisplay
		return
	}
	_, size := utf8.DecodeLastRuneInString(c.display)
	c.SetDisplay(c.display[:len(c.display)-size])
}

// Calculate sanitizes and evaluates the display, replacing it with the
// formatted result or "Error".
func (c *Calculator) Calculate(ev Evaluator) {
	value, err := ev.Evaluate(Sanitize(c.display))
	if err != nil {
		c.display = ErrorDisplay
		c.lastErr = err
		return
	}
	c.display = FormatNumber(value)
	c.lastErr = nil
}
