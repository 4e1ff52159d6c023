package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/dshills/gocalc-mcp/internal/evaluator"
	"github.com/dshills/gocalc-mcp/pkg/types"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleStream evaluates one {"expression": ...} message at a time over a
// WebSocket and answers each with the same body POST /v1/evaluate returns.
// Malformed messages get an error reply and the connection stays open.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	defer close(stop)
	go s.keepAlive(conn, stop)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && s.logger != nil {
				s.logger.Debug("stream closed", slog.String("error", err.Error()))
			}
			return
		}

		reply := s.evaluateMessage(r, message)

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (s *Server) evaluateMessage(r *http.Request, message []byte) interface{} {
	var req evaluateRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return errorResponse{Error: "invalid JSON message: " + err.Error()}
	}
	if req.Expression == nil {
		return errorResponse{Error: "expression is required"}
	}

	eval, err := s.service.Evaluate(r.Context(), evaluator.Request{
		Expression: *req.Expression,
		Source:     types.SourceHTTP,
	})
	if err != nil {
		return errorResponse{Error: err.Error()}
	}
	return toResponse(eval)
}

// keepAlive pings the peer until stop is closed or the server shuts down.
// On shutdown it sends a close frame, which ends the read loop.
func (s *Server) keepAlive(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
