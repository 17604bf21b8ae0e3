package session

import (
	"fmt"
	"regexp"

	"github.com/joekir/ssdeepviz/internal/wire"
)

var signatureChars = regexp.MustCompile(`^[0-9A-Za-z+/]*$`)

// Registers are the three rolling checksum accumulators.
type Registers struct {
	X uint32
	Y uint32
	Z uint32
}

// Snapshot is an immutable, validated view of the engine after it consumed
// the byte at Cursor.
type Snapshot struct {
	cursor      int
	inputLength int
	window      []uint32
	registers   Registers
	blockSize   uint32
	sig1        string
	sig2        string
	triggered1  bool
	triggered2  bool
}

// NewSnapshot validates an engine state received from the wire.
func NewSnapshot(st wire.EngineState) (Snapshot, error) {
	switch {
	case st.Index < 0:
		return Snapshot{}, fmt.Errorf("%w: index %d before first byte", ErrInvalidSnapshot, st.Index)
	case st.BlockSize == 0:
		return Snapshot{}, fmt.Errorf("%w: zero block size", ErrInvalidSnapshot)
	case len(st.RollingHash.Window) == 0:
		return Snapshot{}, fmt.Errorf("%w: missing window", ErrInvalidSnapshot)
	case st.InputLength > 0 && st.Index >= st.InputLength:
		return Snapshot{}, fmt.Errorf("%w: index %d beyond input length %d", ErrInvalidSnapshot, st.Index, st.InputLength)
	case !signatureChars.MatchString(st.Sig1) || !signatureChars.MatchString(st.Sig2):
		return Snapshot{}, fmt.Errorf("%w: signature outside alphabet", ErrInvalidSnapshot)
	}

	return Snapshot{
		cursor:      st.Index,
		inputLength: st.InputLength,
		window:      append([]uint32(nil), st.RollingHash.Window...),
		registers: Registers{
			X: st.RollingHash.X,
			Y: st.RollingHash.Y,
			Z: st.RollingHash.Z,
		},
		blockSize:  st.BlockSize,
		sig1:       st.Sig1,
		sig2:       st.Sig2,
		triggered1: st.IsTrigger1,
		triggered2: st.IsTrigger2,
	}, nil
}

// IsZero reports whether s is the zero Snapshot (no engine state yet).
func (s Snapshot) IsZero() bool { return s.blockSize == 0 }

// Cursor is the index of the most recently consumed byte.
func (s Snapshot) Cursor() int { return s.cursor }

// InputLength is the stream length the engine was sized for.
func (s Snapshot) InputLength() int { return s.inputLength }

// Window returns a copy of the sliding window contents in engine order.
func (s Snapshot) Window() []uint32 { return append([]uint32(nil), s.window...) }

// Registers returns the rolling checksum accumulators.
func (s Snapshot) Registers() Registers { return s.registers }

// BlockSize is the current trigger granularity.
func (s Snapshot) BlockSize() uint32 { return s.blockSize }

// Sig1 is the signature fragment emitted at BlockSize.
func (s Snapshot) Sig1() string { return s.sig1 }

// Sig2 is the signature fragment emitted at 2*BlockSize.
func (s Snapshot) Sig2() string { return s.sig2 }

// Triggered1 reports whether the byte at Cursor closed a piece at BlockSize.
func (s Snapshot) Triggered1() bool { return s.triggered1 }

// Triggered2 reports whether the byte at Cursor closed a piece at 2*BlockSize.
func (s Snapshot) Triggered2() bool { return s.triggered2 }

// Signature returns the "<blockSize>:<sig1>:<sig2>" composite.
func (s Snapshot) Signature() string {
	return fmt.Sprintf("%d:%s:%s", s.blockSize, s.sig1, s.sig2)
}
