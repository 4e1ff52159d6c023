package parser

import "unicode"

// cursor is the scan position over one input. It only moves forward.
type cursor struct {
	src []rune
	pos int
}

func newCursor(input string) *cursor {
	return &cursor{src: []rune(input)}
}

// peek returns the next rune without consuming it
func (c *cursor) peek() (rune, bool) {
	if c.pos >= len(c.src) {
		return 0, false
	}
	return c.src[c.pos], true
}

// advance consumes one rune
func (c *cursor) advance() {
	if c.pos < len(c.src) {
		c.pos++
	}
}

// skipWhitespace consumes zero or more whitespace runes
func (c *cursor) skipWhitespace() {
	for c.pos < len(c.src) && unicode.IsSpace(c.src[c.pos]) {
		c.pos++
	}
}

// remaining returns the unconsumed input
func (c *cursor) remaining() string {
	return string(c.src[c.pos:])
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNumberRune(r rune) bool {
	return isDigit(r) || r == '.'
}
