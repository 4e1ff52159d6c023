// Package mcp implements the Model Context Protocol (MCP) server for gocalc.
//
// The MCP server exposes four tools:
//   - evaluate: Evaluate one arithmetic expression
//   - evaluate_batch: Evaluate many expressions in one call
//   - get_history: List previously evaluated expressions
//   - get_status: Report configuration and history statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started via the serve command:
//
//	gocalc serve
//
// It then listens on stdin for MCP protocol messages and writes responses to
// stdout. Logs go to stderr.
//
// # Tool: evaluate
//
//	Request:
//	{
//	  "name": "evaluate",
//	  "arguments": {"expression": "2 + 3 * 4"}
//	}
//
//	Response:
//	{
//	  "expression": "2 + 3 * 4",
//	  "id": 17,
//	  "text": "14",
//	  "value": 14
//	}
//
// Division by zero is not an error. JSON has no infinity or NaN, so such values
// are returned as strings:
//
//	{"expression": "1/0", "text": "+Inf", "value": "+Inf"}
//
// An expression that fails to parse produces a tool result flagged isError,
// carrying one of three messages:
//
//	{
//	  "expression": "(1 + 2",
//	  "error": "Missing closing parenthesis",
//	  "kind": "missing_parenthesis",
//	  "position": 6
//	}
//
// Input after a complete expression is ignored and reported as "trailing".
//
// # Tool: evaluate_batch
//
//	Request:
//	{
//	  "name": "evaluate_batch",
//	  "arguments": {"expressions": ["1 + 1", "2 *", "10 / 4"]}
//	}
//
//	Response:
//	{
//	  "batch_id": "0b6c...",
//	  "succeeded": 2,
//	  "failed": 1,
//	  "results": [...]
//	}
//
// # Tool: get_history
//
// Arguments are optional: limit, offset, batch_id, source, only_errors.
//
// # Error Codes
//
// Protocol-level failures are returned as MCPError:
//   - -32602: Invalid parameters
//   - -32603: Internal error
//   - -32004: Empty batch
//   - -32005: History disabled
package mcp
