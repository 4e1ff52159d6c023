package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/dshills/gocalc-mcp/internal/evaluator"
	"github.com/dshills/gocalc-mcp/internal/storage"
	"github.com/dshills/gocalc-mcp/pkg/types"
)

type evaluateRequest struct {
	Expression *string `json:"expression"`
}

type batchRequest struct {
	Expressions []string `json:"expressions"`
}

type evaluationResponse struct {
	ID         int64       `json:"id,omitempty"`
	BatchID    string      `json:"batch_id,omitempty"`
	Expression string      `json:"expression"`
	Source     string      `json:"source,omitempty"`
	Value      interface{} `json:"value,omitempty"`
	Text       string      `json:"text,omitempty"`
	Trailing   string      `json:"trailing,omitempty"`
	Error      string      `json:"error,omitempty"`
	Kind       string      `json:"kind,omitempty"`
	Position   *int        `json:"position,omitempty"`
	CacheHit   bool        `json:"cache_hit,omitempty"`
	DurationUs int64       `json:"duration_us"`
	CreatedAt  string      `json:"created_at,omitempty"`
}

type batchResponse struct {
	BatchID    string                `json:"batch_id"`
	Succeeded  int                   `json:"succeeded"`
	Failed     int                   `json:"failed"`
	DurationMs int64                 `json:"duration_ms"`
	Results    []*evaluationResponse `json:"results"`
}

type historyResponse struct {
	Count       int                   `json:"count"`
	Evaluations []*evaluationResponse `json:"evaluations"`
}

type statsResponse struct {
	Total           int            `json:"total"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	ErrorsByKind    map[string]int `json:"errors_by_kind"`
	LastEvaluatedAt string         `json:"last_evaluated_at,omitempty"`
	DatabaseSizeMB  float64        `json:"database_size_mb"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleHealth returns health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"time":            time.Now().Format(time.RFC3339),
		"history_enabled": s.service.HistoryEnabled(),
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req evaluateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Expression == nil {
		writeError(w, http.StatusBadRequest, "expression is required")
		return
	}

	eval, err := s.service.Evaluate(r.Context(), evaluator.Request{Expression: *req.Expression, Source: types.SourceHTTP})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !eval.Succeeded() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, toResponse(eval))
}

func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req batchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch, err := s.service.EvaluateBatch(r.Context(), req.Expressions, types.SourceBatch)
	switch {
	case errors.Is(err, evaluator.ErrEmptyBatch), errors.Is(err, evaluator.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := &batchResponse{
		BatchID:    batch.BatchID,
		Succeeded:  batch.Succeeded,
		Failed:     batch.Failed,
		DurationMs: batch.Duration.Milliseconds(),
		Results:    make([]*evaluationResponse, len(batch.Evaluations)),
	}
	for i, eval := range batch.Evaluations {
		resp.Results[i] = toResponse(eval)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	evals, err := s.service.History(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := &historyResponse{
		Count:       len(evals),
		Evaluations: make([]*evaluationResponse, len(evals)),
	}
	for i, eval := range evals {
		resp.Evaluations[i] = toResponse(eval)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	eval, err := s.service.Lookup(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(eval))
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	deleted, err := s.service.ClearHistory(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := &statsResponse{
		Total:          stats.Total,
		Succeeded:      stats.Succeeded,
		Failed:         stats.Failed,
		ErrorsByKind:   stats.ErrorsByKind,
		DatabaseSizeMB: stats.DatabaseSizeMB,
	}
	if !stats.LastEvaluatedAt.IsZero() {
		resp.LastEvaluatedAt = stats.LastEvaluatedAt.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Helper functions

func parseListFilter(r *http.Request) (*storage.ListFilter, error) {
	q := r.URL.Query()
	filter := &storage.ListFilter{
		BatchID: q.Get("batch_id"),
		Source:  q.Get("source"),
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > storage.MaxListLimit {
			return nil, fmt.Errorf("limit must be between 1 and %d", storage.MaxListLimit)
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return nil, errors.New("offset must be a non-negative integer")
		}
		filter.Offset = offset
	}
	if v := q.Get("errors"); v != "" {
		onlyErrors, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("errors must be a boolean")
		}
		filter.OnlyErrors = onlyErrors
	}
	return filter, nil
}

func toResponse(eval *types.Evaluation) *evaluationResponse {
	resp := &evaluationResponse{
		ID:         eval.ID,
		BatchID:    eval.BatchID,
		Expression: eval.Expression,
		Source:     eval.Source,
		Trailing:   eval.Trailing,
		CacheHit:   eval.CacheHit,
		DurationUs: eval.Duration.Microseconds(),
	}
	if !eval.CreatedAt.IsZero() {
		resp.CreatedAt = eval.CreatedAt.Format(time.RFC3339Nano)
	}
	if eval.Err != nil {
		position := eval.Err.Position
		resp.Error = eval.Err.Message
		resp.Kind = string(eval.Err.Kind)
		resp.Position = &position
		return resp
	}
	resp.Value = types.JSONValue(eval.Value)
	resp.Text = types.FormatValue(eval.Value)
	return resp
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", MaxBodyBytes)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, evaluator.ErrHistoryDisabled):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "evaluation not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
