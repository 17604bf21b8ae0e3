package wire

// NewHashRequest is the POST /NewHash and POST /v1/hashes request body.
type NewHashRequest struct {
	// DataLength is the number of bytes the client intends to stream.
	DataLength int `json:"data_length"`
	// Byte, when present, is consumed immediately so that the returned state
	// already reflects the first input byte (index 0).
	Byte *byte `json:"byte,omitempty"`
}

// NewHashResponse is the POST /NewHash response body: the engine state plus
// the session token to present on subsequent steps.
type NewHashResponse struct {
	EngineState
	Token string `json:"token"`
}

// StepRequest is the POST /StepHash and POST /v1/hashes/step request body.
type StepRequest struct {
	// Byte is the next raw input byte. Without it there is nothing to step
	// and the server replies 204.
	Byte  *byte `json:"byte"`
	// Index, when set, is the stream position Byte belongs to. A request for
	// the position the engine already consumed is answered with the current
	// state instead of stepping again, which makes retries safe.
	Index *int  `json:"index,omitempty"`
}

// NewStepRequest builds a step request for b at index.
func NewStepRequest(index int, b byte) StepRequest {
	return StepRequest{Byte: &b, Index: &index}
}

// CompareRequest is the POST /v1/compare request body.
type CompareRequest struct {
	A string `json:"a" binding:"required"`
	B string `json:"b" binding:"required"`
}

// CompareResponse is the POST /v1/compare response body.
type CompareResponse struct {
	// Distance is the edit distance between the signatures; lower is closer.
	Distance int `json:"distance"`
}
