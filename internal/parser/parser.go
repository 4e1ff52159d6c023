package parser

import (
	"errors"
	"strconv"

	"github.com/dshills/gocalc-mcp/pkg/types"
)

// Parser evaluates arithmetic expressions by recursive descent.
// A Parser is immutable and safe for concurrent use.
type Parser struct {
	maxDepth int
}

// Option configures a Parser
type Option func(*Parser)

// WithMaxDepth limits how deeply parentheses may nest. n <= 0 means unlimited.
func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		if n < 0 {
			n = 0
		}
		p.maxDepth = n
	}
}

// New creates a new Parser instance
func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = New()

// Evaluate evaluates expr with no nesting limit
func Evaluate(expr string) (float64, error) {
	return defaultParser.Evaluate(expr)
}

// MaxDepth returns the configured nesting limit (0 = unlimited)
func (p *Parser) MaxDepth() int {
	return p.maxDepth
}

// Evaluate evaluates expr and returns its value. On failure the error is one of
// the sentinels in package types, so err.Error() is the exact failure message.
func (p *Parser) Evaluate(expr string) (float64, error) {
	result, err := p.Parse(expr)
	if err != nil {
		var evalErr *types.EvalError
		if errors.As(err, &evalErr) {
			return 0, evalErr.Unwrap()
		}
		return 0, err
	}
	return result.Value, nil
}

// Parse evaluates expr and reports how much of the input was consumed.
// Failures are returned as *types.EvalError.
func (p *Parser) Parse(expr string) (*types.Result, error) {
	s := &state{
		cur:      newCursor(expr),
		maxDepth: p.maxDepth,
	}

	value, err := s.parseExpression()
	if err != nil {
		return nil, types.NewEvalError(err, s.cur.pos)
	}

	return &types.Result{
		Value:    value,
		Consumed: s.cur.pos,
		Trailing: s.cur.remaining(),
	}, nil
}

// state is owned by a single evaluation call
type state struct {
	cur      *cursor
	depth    int
	maxDepth int
}

// parseExpression resolves a left-to-right chain of + and - over terms
func (s *state) parseExpression() (float64, error) {
	s.cur.skipWhitespace()
	value, err := s.parseTerm()
	if err != nil {
		return 0, err
	}

	for {
		s.cur.skipWhitespace()
		r, ok := s.cur.peek()
		if !ok || (r != '+' && r != '-') {
			return value, nil
		}
		s.cur.advance()
		s.cur.skipWhitespace()

		rhs, err := s.parseTerm()
		if err != nil {
			return 0, err
		}
		if r == '+' {
			value += rhs
		} else {
			value -= rhs
		}
	}
}

// parseTerm resolves a left-to-right chain of * and / over factors.
// Division by zero yields ±Inf or NaN.
func (s *state) parseTerm() (float64, error) {
	s.cur.skipWhitespace()
	value, err := s.parseFactor()
	if err != nil {
		return 0, err
	}

	for {
		s.cur.skipWhitespace()
		r, ok := s.cur.peek()
		if !ok || (r != '*' && r != '/') {
			return value, nil
		}
		s.cur.advance()
		s.cur.skipWhitespace()

		rhs, err := s.parseFactor()
		if err != nil {
			return 0, err
		}
		if r == '*' {
			value *= rhs
		} else {
			value /= rhs
		}
	}
}

// parseFactor resolves a parenthesized expression or a number literal
func (s *state) parseFactor() (float64, error) {
	s.cur.skipWhitespace()
	r, ok := s.cur.peek()
	switch {
	case ok && r == '(':
		s.depth++
		if s.maxDepth > 0 && s.depth > s.maxDepth {
			return 0, types.ErrNestingTooDeep
		}
		s.cur.advance()
		s.cur.skipWhitespace()

		value, err := s.parseExpression()
		if err != nil {
			return 0, err
		}

		s.cur.skipWhitespace()
		if r, ok := s.cur.peek(); !ok || r != ')' {
			return 0, types.ErrMissingClosingParenthesis
		}
		s.cur.advance()
		s.depth--
		return value, nil

	case ok && isNumberRune(r):
		return s.scanNumber()

	default:
		return 0, types.ErrInvalidFactor
	}
}

// scanNumber consumes a maximal run of digits and dots. Placement of the dots
// is not checked here; malformed runs are rejected by the float conversion.
func (s *state) scanNumber() (float64, error) {
	s.cur.skipWhitespace()
	start := s.cur.pos
	for {
		r, ok := s.cur.peek()
		if !ok || !isNumberRune(r) {
			break
		}
		s.cur.advance()
	}

	if s.cur.pos == start {
		return 0, types.ErrInvalidNumber
	}

	value, err := strconv.ParseFloat(string(s.cur.src[start:s.cur.pos]), 64)
	if err != nil {
		// Literals beyond float64 range saturate to ±Inf
		if errors.Is(err, strconv.ErrRange) {
			return value, nil
		}
		return 0, types.ErrInvalidNumber
	}
	return value, nil
}
