// Package parser evaluates arithmetic expressions by recursive descent.
//
// The grammar has four levels, lowest precedence first:
//
//	expression = term { ("+" | "-") term }
//	term       = factor { ("*" | "/") factor }
//	factor     = "(" expression ")" | number
//	number     = { digit | "." }
//
// Evaluation happens while parsing; no syntax tree is built. Whitespace is
// allowed between any two tokens. Both operator levels are left-associative.
//
// # Basic Usage
//
//	v, err := parser.Evaluate("(2 + 3) * 4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(v) // 20
//
// # Semantics
//
// Division by zero follows IEEE-754 and never fails:
//
//	parser.Evaluate("1 / 0") // +Inf, nil
//	parser.Evaluate("0 / 0") // NaN, nil
//
// Input left over after a complete expression is ignored:
//
//	parser.Evaluate("2 + 2 abc") // 4, nil
//
// Parse reports the unconsumed remainder for callers that want to surface it.
//
// # Errors
//
// Evaluate returns one of the sentinels from package types:
//
//	types.ErrMissingClosingParenthesis // "(1 + 2"
//	types.ErrInvalidFactor             // "", "*5"
//	types.ErrInvalidNumber             // "1.2.3 + 1"
//
// Parse returns the same failures wrapped in *types.EvalError together with the
// rune offset at which they were detected.
//
// # Nesting
//
// Recursion depth grows with parenthesis nesting. Callers evaluating untrusted
// input can bound it:
//
//	p := parser.New(parser.WithMaxDepth(256))
//	_, err := p.Evaluate(input) // types.ErrNestingTooDeep past 256 levels
package parser
