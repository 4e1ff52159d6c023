// Package types provides shared type definitions for the gocalc MCP server.
//
// This package defines the domain types used across the parser, the evaluation
// service, storage and the MCP/HTTP hosts.
//
// # Errors
//
// The parser fails with exactly one of three sentinel errors, whose messages are
// part of the public contract:
//
//	types.ErrMissingClosingParenthesis // "Missing closing parenthesis"
//	types.ErrInvalidFactor             // "Invalid factor"
//	types.ErrInvalidNumber             // "Invalid number"
//
// A fourth, types.ErrNestingTooDeep, is produced only when a nesting limit has
// been configured on the parser.
//
// Layers above the parser carry failures as *EvalError, which records the kind
// and the rune offset of the failure and unwraps to the sentinel:
//
//	if errors.Is(err, types.ErrInvalidNumber) {
//	    // ...
//	}
//
// # Evaluations
//
// Evaluation is the record of one evaluated expression, as stored in history
// and returned by the hosts:
//
//	eval := &types.Evaluation{
//	    Expression: "2 + 3 * 4",
//	    Source:     types.SourceCLI,
//	    Value:      14,
//	}
//
// Division by zero is not an error; values may be infinite or NaN. Use
// FormatValue or JSONValue when rendering them.
package types
