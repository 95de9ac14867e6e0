package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/formscan/internal/pipeline"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketStructureRequest is one document sent over a WebSocket. Tokens may be inline
// token JSON or a string holding JSON or hOCR. Image is base64 in JSON.
type WebSocketStructureRequest struct {
	Type      string          `json:"type"` // "structure"
	Tokens    json.RawMessage `json:"tokens,omitempty"`
	Image     []byte          `json:"image,omitempty"`
	Source    string          `json:"source,omitempty"`
	Threshold float64         `json:"threshold,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketStructureResponse reports progress or the final document.
type WebSocketStructureResponse struct {
	Type      string           `json:"type"`
	Status    string           `json:"status"` // "processing", "completed", "error"
	Progress  float64          `json:"progress,omitempty"`
	Result    *pipeline.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorType string           `json:"error_type,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
}

// structureWebSocketHandler handles WebSocket connections for streaming structuring requests.
func (s *Server) structureWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(r.Context(), conn)
}

const wsReadTimeout = 60 * time.Second

// wsReadLimit bounds one message: a base64 image of the upload limit plus the envelope.
func (s *Server) wsReadLimit() int64 {
	return s.uploadLimit()*4/3 + 64*1024
}

// handleWebSocketConnection processes messages until the client goes away.
func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(s.wsReadLimit())
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

// handleWebSocketMessage processes a single request message.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn WebSocketConnWriter, data []byte) {
	var req WebSocketStructureRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if req.Type != "" && req.Type != "structure" {
		s.sendWebSocketError(conn, "invalid_request", "Unsupported request type: "+req.Type)
		return
	}

	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)
	s.sendWebSocketResponse(conn, WebSocketStructureResponse{
		Type:      "structure_response",
		Status:    "processing",
		RequestID: requestID,
	})

	toks, err := decodeRequestTokens(req.Tokens)
	if err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Invalid tokens: %v", err))
		return
	}
	img, err := decodeRequestImage(req.Image)
	if err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to decode image: %v", err))
		return
	}
	if len(req.Tokens) == 0 && img == nil {
		s.sendWebSocketError(conn, "invalid_request", "No tokens or image provided")
		return
	}

	threshold := ""
	if req.Threshold > 0 {
		threshold = strconv.FormatFloat(req.Threshold, 'f', -1, 64)
	}
	proc, release, err := s.processorFor(threshold)
	if err != nil {
		s.sendWebSocketError(conn, "invalid_request", err.Error())
		return
	}
	defer release()

	s.sendWebSocketResponse(conn, WebSocketStructureResponse{
		Type:      "structure_response",
		Status:    "processing",
		Progress:  0.5,
		RequestID: requestID,
	})

	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	source := req.Source
	if source == "" {
		source = "websocket"
	}
	start := time.Now()
	res, err := proc.Process(ctx, pipeline.Input{Source: source, Tokens: toks, Image: img})
	duration := time.Since(start)
	if err != nil {
		structureRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("Structuring failed: %v", err))
		return
	}

	structureRequestsTotal.WithLabelValues("websocket", "success").Inc()
	structureProcessingDuration.WithLabelValues("websocket").Observe(duration.Seconds())
	fieldsExtracted.WithLabelValues("websocket").Observe(float64(res.Form.FieldCount()))

	s.sendWebSocketResponse(conn, WebSocketStructureResponse{
		Type:      "structure_response",
		Status:    "completed",
		Progress:  1.0,
		Result:    res,
		RequestID: requestID,
	})
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketStructureResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketStructureResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}
