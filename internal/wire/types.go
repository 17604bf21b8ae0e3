// Package wire defines the JSON payloads exchanged between the engine server
// and its clients.
package wire

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RollingHash is the observable rolling checksum state.
type RollingHash struct {
	X      uint32   `json:"x"`
	Y      uint32   `json:"y"`
	Z      uint32   `json:"z"`
	C      uint32   `json:"c"`
	Size   uint32   `json:"size"`
	Window []uint32 `json:"window"`
}

// EngineState is the engine snapshot as sent on the wire.
//
// Index is the position of the most recently consumed byte, or -1 when the
// engine has not consumed anything yet.
type EngineState struct {
	BlockSize   uint32      `json:"block_size"`
	Index       int         `json:"index"`
	InputLength int         `json:"input_length"`
	IsTrigger1  bool        `json:"is_trigger1"`
	IsTrigger2  bool        `json:"is_trigger2"`
	RollingHash RollingHash `json:"rolling_hash"`
	Sig1        string      `json:"sig1"`
	Sig2        string      `json:"sig2"`
}

// HealthResponse is the GET /healthz response body.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}
