package interp

import (
	"testing"

	"github.com/joekir/ssdeepviz/internal/session"
	"github.com/joekir/ssdeepviz/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestBitsOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, BitView{}, BitsOf(0))

	one := BitsOf(1)
	require.Equal(t, uint8(1), one[0])
	for _, bit := range one[1:] {
		require.Zero(t, bit)
	}

	full := BitsOf(255)
	for i, bit := range full {
		if i < 8 {
			require.Equal(t, uint8(1), bit, "bit %d", i)
		} else {
			require.Zero(t, bit, "bit %d", i)
		}
	}
	require.Equal(t, [8]uint8{1, 1, 1, 1, 1, 1, 1, 1}, full.Byte())

	// 'A' = 0b01000001
	require.Equal(t, [8]uint8{1, 0, 0, 0, 0, 0, 1, 0}, BitsOf('A').Byte())
	require.Equal(t, "00000000000000000000000001000001", BitsOf('A').String())

	high := BitsOf(1 << 31)
	require.Equal(t, uint8(1), high[31])
	require.Equal(t, [8]uint8{}, high.Byte())
}

func TestHighlightForPriority(t *testing.T) {
	t.Parallel()

	state := session.State{
		Cursor:        5,
		PrimaryHits:   []int{1, 3, 5},
		SecondaryHits: []int{3},
	}

	require.Equal(t, Secondary, HighlightFor(3, state))
	require.Equal(t, Primary, HighlightFor(1, state))
	require.Equal(t, Primary, HighlightFor(5, state))
	require.Equal(t, None, HighlightFor(4, state))

	state.Cursor = 4
	require.Equal(t, Current, HighlightFor(4, state))
	require.Equal(t, Secondary, HighlightFor(3, state))
}

func TestNewFrame(t *testing.T) {
	t.Parallel()

	snap, err := session.NewSnapshot(wire.EngineState{
		BlockSize:   3,
		Index:       1,
		InputLength: 2,
		RollingHash: wire.RollingHash{
			X: 131, Y: 852, Z: 2146, C: 2, Size: 7,
			Window: []uint32{65, 66, 0, 0, 0, 0, 0},
		},
	})
	require.NoError(t, err)

	state := session.State{
		Gen:      1,
		Phase:    session.PhaseExhausted,
		Text:     "AB",
		Stream:   session.ByteStream("AB"),
		Snapshot: snap,
		Cursor:   1,
	}
	f := NewFrame(state)

	require.True(t, f.Started)
	require.False(t, f.Busy)
	require.Equal(t, "AB", f.Text)
	require.Equal(t, []byte("AB"), f.Bytes)
	require.Equal(t, [8]uint8{0, 1, 0, 0, 0, 0, 1, 0}, f.Bits)
	require.Equal(t, []uint32{65, 66, 0, 0, 0, 0, 0}, f.Window)
	require.Equal(t, "131", f.X)
	require.Equal(t, "852", f.Y)
	require.Equal(t, "2146", f.Z)
	require.Equal(t, "3::", f.Signature)
	require.Equal(t, []Highlight{None, Current}, f.Highlights)
}

func TestNewFrameBeforeStart(t *testing.T) {
	t.Parallel()

	f := NewFrame(session.State{
		Phase:    session.PhaseUninitialized,
		Text:     "hi",
		Stream:   session.ByteStream("hi"),
		InFlight: session.RequestStart,
	})

	require.False(t, f.Started)
	require.True(t, f.Busy)
	require.Equal(t, []Highlight{None, None}, f.Highlights)
	require.Empty(t, f.Signature)
	require.Nil(t, f.Window)
}
