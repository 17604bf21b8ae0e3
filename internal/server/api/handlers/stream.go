package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joekir/ssdeepviz/internal/logger"
	"github.com/joekir/ssdeepviz/internal/server/engine"
	"github.com/joekir/ssdeepviz/internal/server/metrics"
	"github.com/joekir/ssdeepviz/internal/wire"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamHandler serves the websocket engine transport. Each connection owns
// at most one hash session, which is discarded when the connection closes.
type StreamHandler struct {
	engines *engine.Manager
}

func NewStreamHandler(engines *engine.Manager) *StreamHandler {
	return &StreamHandler{engines: engines}
}

// HandleStream handles GET /v1/hashes/stream
func (s *StreamHandler) HandleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("[stream] upgrade error: %v", err)
		return
	}
	defer conn.Close()

	metrics.StreamConnections.Inc()
	defer metrics.StreamConnections.Dec()

	ctx := context.WithoutCancel(c.Request.Context())
	var sessionID string
	defer func() {
		if sessionID != "" {
			_ = s.engines.Delete(ctx, sessionID)
		}
	}()

	for {
		var req wire.StreamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("[stream] read error: %v", err)
			}
			return
		}

		var resp wire.StreamResponse
		switch req.Type {
		case wire.FrameInit:
			resp, sessionID = s.init(ctx, sessionID, req)
		case wire.FrameStep:
			resp = s.step(ctx, sessionID, req)
		default:
			resp = wire.StreamResponse{Type: wire.FrameError, Error: "unknown frame type " + req.Type}
		}

		if err := conn.WriteJSON(resp); err != nil {
			logger.Debugf("[stream] write error: %v", err)
			return
		}
	}
}

func (s *StreamHandler) init(ctx context.Context, current string, req wire.StreamRequest) (wire.StreamResponse, string) {
	if req.DataLength <= 0 {
		return wire.StreamResponse{Type: wire.FrameError, Error: "Invalid 'data_length'"}, current
	}
	if current != "" {
		_ = s.engines.Delete(ctx, current)
	}

	id, st, err := s.engines.Create(ctx, req.DataLength, req.Byte)
	if err != nil {
		logger.Errorf("[stream] create session: %v", err)
		return wire.StreamResponse{Type: wire.FrameError, Error: "failed to create session"}, ""
	}
	metrics.SessionsCreated.Inc()
	if req.Byte != nil {
		metrics.ObserveStep(st.IsTrigger1, st.IsTrigger2)
	}
	return wire.StreamResponse{Type: wire.FrameState, State: &st}, id
}

func (s *StreamHandler) step(ctx context.Context, sessionID string, req wire.StreamRequest) wire.StreamResponse {
	if sessionID == "" {
		return wire.StreamResponse{Type: wire.FrameError, Error: "no session detected"}
	}
	if req.Byte == nil {
		return wire.StreamResponse{Type: wire.FrameEmpty}
	}

	st, err := stepEngine(ctx, s.engines, sessionID, req.Index, *req.Byte)
	if err != nil {
		logger.Errorf("[stream] session %s: %v", sessionID, err)
		return wire.StreamResponse{Type: wire.FrameError, Error: err.Error()}
	}
	metrics.ObserveStep(st.IsTrigger1, st.IsTrigger2)
	return wire.StreamResponse{Type: wire.FrameState, State: &st}
}
