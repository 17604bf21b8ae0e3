package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joekir/ssdeepviz/internal/session"
	"github.com/joekir/ssdeepviz/internal/wire"
)

// WSEngine talks to the engine server over the websocket stream endpoint.
// Each engine session owns one connection.
type WSEngine struct {
	URL     string
	Dialer  *websocket.Dialer
	Timeout time.Duration
}

var _ session.Engine = (*WSEngine)(nil)

// NewWSEngine creates a websocket engine client. baseURL may use the http or
// ws scheme family.
func NewWSEngine(baseURL string, timeout time.Duration) (*WSEngine, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path += "/v1/hashes/stream"

	return &WSEngine{
		URL:     u.String(),
		Dialer:  &websocket.Dialer{HandshakeTimeout: timeout},
		Timeout: timeout,
	}, nil
}

// Initialize implements session.Engine.
func (e *WSEngine) Initialize(ctx context.Context, length int, first byte) (session.EngineSession, wire.EngineState, error) {
	conn, _, err := e.Dialer.DialContext(ctx, e.URL, nil)
	if err != nil {
		return nil, wire.EngineState{}, fmt.Errorf("failed to dial %s: %w", e.URL, err)
	}

	s := &wsSession{conn: conn, timeout: e.Timeout}
	st, err := s.roundTrip(ctx, wire.StreamRequest{Type: wire.FrameInit, DataLength: length, Byte: &first})
	if err != nil {
		_ = conn.Close()
		return nil, wire.EngineState{}, err
	}
	if st == nil {
		_ = conn.Close()
		return nil, wire.EngineState{}, fmt.Errorf("server returned no initial state")
	}
	return s, *st, nil
}

type wsSession struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

// Advance implements session.EngineSession.
func (s *wsSession) Advance(ctx context.Context, index int, b byte) (*wire.EngineState, error) {
	return s.roundTrip(ctx, wire.StreamRequest{Type: wire.FrameStep, Byte: &b, Index: &index})
}

// Close implements session.EngineSession. It does not wait for a round trip
// in progress; closing the connection fails its read instead.
func (s *wsSession) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *wsSession) roundTrip(ctx context.Context, req wire.StreamRequest) (*wire.EngineState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok && s.timeout > 0 {
		deadline = time.Now().Add(s.timeout)
	}
	_ = s.conn.SetWriteDeadline(deadline)
	_ = s.conn.SetReadDeadline(deadline)
	// A canceled ctx expires the deadlines so a blocked read returns. The
	// connection is unusable afterwards, like after any timeout.
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := s.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("failed to send %s frame: %w", req.Type, err)
	}
	var resp wire.StreamResponse
	if err := s.conn.ReadJSON(&resp); err != nil {
		return nil, fmt.Errorf("failed to read %s reply: %w", req.Type, err)
	}

	switch resp.Type {
	case wire.FrameState:
		if resp.State == nil {
			return nil, fmt.Errorf("state frame without state")
		}
		return resp.State, nil
	case wire.FrameEmpty:
		return nil, nil
	case wire.FrameError:
		return nil, fmt.Errorf("server error: %s", resp.Error)
	default:
		return nil, fmt.Errorf("unexpected frame type %q", resp.Type)
	}
}
