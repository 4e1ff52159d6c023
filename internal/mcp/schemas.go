package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/gocalc-mcp/internal/evaluator"
	"github.com/dshills/gocalc-mcp/internal/storage"
)

// evaluateTool returns the tool definition for evaluate
func evaluateTool() mcp.Tool {
	return mcp.Tool{
		Name: "evaluate",
		Description: "Evaluate an arithmetic expression with + - * / and parentheses. " +
			"Numbers are decimal literals without sign or exponent; division by zero yields Infinity or NaN.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"expression": map[string]interface{}{
					"type":        "string",
					"description": "Expression to evaluate, e.g. \"2 + 3 * (4 - 1)\"",
				},
			},
			Required: []string{"expression"},
		},
	}
}

// evaluateBatchTool returns the tool definition for evaluate_batch
func evaluateBatchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "evaluate_batch",
		Description: "Evaluate several expressions at once; results are returned in input order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"expressions": map[string]interface{}{
					"type":        "array",
					"description": "Expressions to evaluate",
					"minItems":    1,
					"maxItems":    evaluator.MaxBatchSize,
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"expressions"},
		},
	}
}

// getHistoryTool returns the tool definition for get_history
func getHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_history",
		Description: "List previously evaluated expressions, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of records to return",
					"default":     storage.DefaultListLimit,
					"minimum":     1,
					"maximum":     storage.MaxListLimit,
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Number of records to skip",
					"default":     0,
					"minimum":     0,
				},
				"batch_id": map[string]interface{}{
					"type":        "string",
					"description": "Only records from this batch",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Only records from this source",
					"enum":        []string{"mcp", "http", "cli", "tui", "batch"},
				},
				"only_errors": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, only failed evaluations",
					"default":     false,
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report server configuration and evaluation history statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
