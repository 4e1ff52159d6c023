// Package httpapi serves the evaluation service over HTTP/JSON.
//
// Routes:
//
//	GET    /health
//	POST   /v1/evaluate          {"expression": "2 + 3"}
//	POST   /v1/evaluate/batch    {"expressions": ["1", "2 * 3"]}
//	GET    /v1/history           ?limit=&offset=&batch_id=&source=&errors=true
//	GET    /v1/history/:id
//	DELETE /v1/history
//	GET    /v1/stats
//	GET    /v1/stream            WebSocket, one {"expression": ...} per message
//
// Parse failures are answered with 422 and a body carrying the exact failure
// message, its kind and the rune position.
package httpapi

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/dshills/gocalc-mcp/internal/evaluator"
)

// MaxBodyBytes limits request bodies
const MaxBodyBytes = 1 << 20

// Server provides the HTTP interface for the evaluator
type Server struct {
	service *evaluator.Service
	addr    string
	logger  *slog.Logger
	server  *http.Server
	router  *httprouter.Router

	// done is closed when Shutdown starts so hijacked stream connections close too
	done     chan struct{}
	doneOnce sync.Once
}

// NewServer creates a new HTTP server. logger may be nil.
func NewServer(service *evaluator.Service, addr string, logger *slog.Logger) *Server {
	s := &Server{
		service: service,
		addr:    addr,
		logger:  logger,
		router:  httprouter.New(),
		done:    make(chan struct{}),
	}

	s.setupRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.server.RegisterOnShutdown(func() {
		s.doneOnce.Do(func() { close(s.done) })
	})
	return s
}

// Handler returns the root handler, including request logging
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.router)
}

// Start listens on the configured address and blocks until Shutdown
func (s *Server) Start() error {
	if s.logger != nil {
		s.logger.Info("http server starting", slog.String("addr", s.addr))
	}
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	s.router.POST("/v1/evaluate", s.handleEvaluate)
	s.router.POST("/v1/evaluate/batch", s.handleEvaluateBatch)

	s.router.GET("/v1/history", s.handleListHistory)
	s.router.GET("/v1/history/:id", s.handleGetHistory)
	s.router.DELETE("/v1/history", s.handleClearHistory)

	s.router.GET("/v1/stats", s.handleStats)
	s.router.GET("/v1/stream", s.handleStream)

	s.router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets WebSocket upgrades pass through the recorder
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	if s.logger == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
		)
	})
}
