// Package interp derives display values from a session state.
//
// Everything here is a pure function of its input; nothing talks to the
// engine.
package interp

import (
	"strconv"

	"github.com/joekir/ssdeepviz/internal/session"
)

// BitWidth is the number of entries in a BitView.
const BitWidth = 32

// BitView holds the bits of a value, least significant first.
type BitView [BitWidth]uint8

// BitsOf expands v into its 32 bits, bit 0 first.
func BitsOf(v uint32) BitView {
	var out BitView
	for i := range out {
		out[i] = uint8((v >> i) & 1)
	}
	return out
}

// Byte returns the low 8 entries. Use it when v is known to be a byte.
func (b BitView) Byte() [8]uint8 {
	var out [8]uint8
	copy(out[:], b[:8])
	return out
}

// String renders the view most significant bit first.
func (b BitView) String() string {
	buf := make([]byte, BitWidth)
	for i, bit := range b {
		buf[BitWidth-1-i] = '0' + bit
	}
	return string(buf)
}

// Highlight is the emphasis applied to one stream position.
type Highlight int

const (
	None Highlight = iota
	Primary
	Secondary
	Current
)

func (h Highlight) String() string {
	switch h {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	case Current:
		return "current"
	default:
		return "none"
	}
}

// HighlightFor classifies index. A position hit at both granularities is
// Secondary, a single hit is Primary, and only an unhit cursor is Current.
func HighlightFor(index int, state session.State) Highlight {
	switch {
	case state.IsSecondaryHit(index):
		return Secondary
	case state.IsPrimaryHit(index):
		return Primary
	case index == state.Cursor:
		return Current
	default:
		return None
	}
}

// Frame is everything a renderer needs for one redraw.
type Frame struct {
	Text   string
	Bytes  []byte
	Cursor int

	// Bits is the 8-wide view of the byte under the cursor.
	Bits [8]uint8

	Window    []uint32
	X, Y, Z   string
	Signature string

	Highlights []Highlight

	Phase   session.Phase
	Busy    bool
	Started bool
	Err     error
}

// NewFrame builds the render frame for state. Before the engine has produced
// a snapshot only Text, Bytes and Phase are populated.
func NewFrame(state session.State) Frame {
	f := Frame{
		Text:   state.Text,
		Bytes:  append([]byte(nil), state.Stream...),
		Cursor: state.Cursor,
		Phase:  state.Phase,
		Busy:   state.InFlight != session.RequestNone,
		Err:    state.LastErr,
	}
	f.Highlights = make([]Highlight, len(f.Bytes))
	if state.Snapshot.IsZero() {
		return f
	}

	f.Started = true
	for i := range f.Highlights {
		f.Highlights[i] = HighlightFor(i, state)
	}
	if state.Cursor >= 0 && state.Cursor < len(f.Bytes) {
		f.Bits = BitsOf(uint32(f.Bytes[state.Cursor])).Byte()
	}

	regs := state.Snapshot.Registers()
	f.Window = state.Snapshot.Window()
	f.X = strconv.FormatUint(uint64(regs.X), 10)
	f.Y = strconv.FormatUint(uint64(regs.Y), 10)
	f.Z = strconv.FormatUint(uint64(regs.Z), 10)
	f.Signature = state.Snapshot.Signature()
	return f
}
