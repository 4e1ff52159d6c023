package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/gocalc-mcp/internal/evaluator"
	"github.com/dshills/gocalc-mcp/internal/storage"
	"github.com/dshills/gocalc-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyBatch      = -32004 // expressions parameter is empty
	ErrorCodeHistoryDisabled = -32005 // Server runs without history storage
)

// handleEvaluate handles the evaluate tool invocation
func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	// An empty expression is valid input and fails with "Invalid factor"
	expression, ok := args["expression"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "expression parameter is required", map[string]interface{}{
			"param":  "expression",
			"reason": "missing or not a string",
		})
	}

	eval, err := s.service.Evaluate(ctx, evaluator.Request{Expression: expression, Source: types.SourceMCP})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "evaluation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	result := mcp.NewToolResultText(formatJSON(evaluationResponse(eval)))
	result.IsError = !eval.Succeeded()
	return result, nil
}

// handleEvaluateBatch handles the evaluate_batch tool invocation
func (s *Server) handleEvaluateBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	raw, ok := args["expressions"].([]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "expressions parameter is required", map[string]interface{}{
			"param":  "expressions",
			"reason": "missing or not an array",
		})
	}
	if len(raw) == 0 {
		return nil, newMCPError(ErrorCodeEmptyBatch, "expressions cannot be empty", map[string]interface{}{
			"param": "expressions",
		})
	}
	if len(raw) > evaluator.MaxBatchSize {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("at most %d expressions per batch", evaluator.MaxBatchSize), map[string]interface{}{
			"param": "expressions",
			"count": len(raw),
		})
	}

	expressions := make([]string, len(raw))
	for i, item := range raw {
		expr, ok := item.(string)
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, "expressions must be strings", map[string]interface{}{
				"param": "expressions",
				"index": i,
			})
		}
		expressions[i] = expr
	}

	batch, err := s.service.EvaluateBatch(ctx, expressions, types.SourceBatch)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "batch evaluation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, len(batch.Evaluations))
	for i, eval := range batch.Evaluations {
		results[i] = evaluationResponse(eval)
	}

	response := map[string]interface{}{
		"batch_id":    batch.BatchID,
		"succeeded":   batch.Succeeded,
		"failed":      batch.Failed,
		"duration_ms": batch.Duration.Milliseconds(),
		"results":     results,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetHistory handles the get_history tool invocation
func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		// No arguments at all is fine for a listing
		args = map[string]interface{}{}
	}

	limit := getIntDefault(args, "limit", storage.DefaultListLimit)
	if limit < 1 || limit > storage.MaxListLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", storage.MaxListLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	offset := getIntDefault(args, "offset", 0)
	if offset < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "offset cannot be negative", map[string]interface{}{
			"param": "offset",
			"value": offset,
		})
	}

	filter := &storage.ListFilter{
		Limit:      limit,
		Offset:     offset,
		BatchID:    getStringDefault(args, "batch_id", ""),
		Source:     getStringDefault(args, "source", ""),
		OnlyErrors: getBoolDefault(args, "only_errors", false),
	}

	evals, err := s.service.History(ctx, filter)
	if errors.Is(err, evaluator.ErrHistoryDisabled) {
		return nil, newMCPError(ErrorCodeHistoryDisabled, "history is disabled on this server", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list history", map[string]interface{}{
			"error": err.Error(),
		})
	}

	records := make([]map[string]interface{}, len(evals))
	for i, eval := range evals {
		records[i] = evaluationResponse(eval)
	}

	response := map[string]interface{}{
		"count":       len(records),
		"evaluations": records,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, capacity := s.service.CacheStats()

	response := map[string]interface{}{
		"server": map[string]interface{}{
			"name":       ServerName,
			"version":    ServerVersion,
			"build_mode": storage.BuildMode,
			"driver":     storage.DriverName,
		},
		"evaluator": map[string]interface{}{
			"max_depth":      s.service.MaxDepth(),
			"cache_entries":  entries,
			"cache_capacity": capacity,
		},
		"history_enabled": s.service.HistoryEnabled(),
	}

	if s.service.HistoryEnabled() {
		stats, err := s.service.Stats(ctx)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to get history statistics", map[string]interface{}{
				"error": err.Error(),
			})
		}
		history := map[string]interface{}{
			"total":          stats.Total,
			"succeeded":      stats.Succeeded,
			"failed":         stats.Failed,
			"errors_by_kind": stats.ErrorsByKind,
			"database_mb":    fmt.Sprintf("%.2f", stats.DatabaseSizeMB),
		}
		if !stats.LastEvaluatedAt.IsZero() {
			history["last_evaluated_at"] = stats.LastEvaluatedAt.Format(time.RFC3339)
		}
		response["history"] = history
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// evaluationResponse renders an evaluation for tool output.
// Non-finite values are rendered as strings since JSON cannot carry them.
func evaluationResponse(eval *types.Evaluation) map[string]interface{} {
	out := map[string]interface{}{
		"expression": eval.Expression,
	}
	if eval.ID > 0 {
		out["id"] = eval.ID
	}
	if eval.Err != nil {
		out["error"] = eval.Err.Message
		out["kind"] = string(eval.Err.Kind)
		out["position"] = eval.Err.Position
		return out
	}
	out["value"] = types.JSONValue(eval.Value)
	out["text"] = types.FormatValue(eval.Value)
	if eval.Trailing != "" {
		out["trailing"] = eval.Trailing
	}
	if eval.CacheHit {
		out["cache_hit"] = true
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
