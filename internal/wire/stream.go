package wire

// Frame types used on the GET /v1/hashes/stream websocket.
const (
	FrameInit  = "init"
	FrameStep  = "step"
	FrameState = "state"
	FrameEmpty = "empty"
	FrameError = "error"
)

// StreamRequest is a client -> server websocket frame.
type StreamRequest struct {
	Type       string `json:"type"`
	DataLength int    `json:"data_length,omitempty"`
	Byte       *byte  `json:"byte,omitempty"`
	// Index has the meaning of StepRequest.Index on step frames.
	Index      *int   `json:"index,omitempty"`
}

// StreamResponse is a server -> client websocket frame. Exactly one of State
// or Error is set, depending on Type; FrameEmpty carries neither.
type StreamResponse struct {
	Type  string       `json:"type"`
	State *EngineState `json:"state,omitempty"`
	Error string       `json:"error,omitempty"`
}
