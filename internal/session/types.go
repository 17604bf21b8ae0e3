package session

import (
	"context"
	"slices"

	"github.com/joekir/ssdeepviz/internal/actor"
	"github.com/joekir/ssdeepviz/internal/wire"
)

// Engine starts remote engine sessions.
type Engine interface {
	// Initialize sizes a new engine for length bytes and feeds it first.
	// The returned state reflects the engine after consuming first.
	Initialize(ctx context.Context, length int, first byte) (EngineSession, wire.EngineState, error)
}

// EngineSession is one remote engine instance.
type EngineSession interface {
	// Advance feeds b as the byte at index. A nil state with a nil error
	// means the engine had nothing to report. Implementations may use index
	// to make a retried call idempotent.
	Advance(ctx context.Context, index int, b byte) (*wire.EngineState, error)
	// Close releases the session. It is called once the session is superseded
	// or the driver shuts down.
	Close() error
}

// Phase is the session lifecycle position.
type Phase string

const (
	// PhaseUninitialized means no session has been established.
	PhaseUninitialized Phase = "Uninitialized"
	// PhaseReady means more bytes can be consumed.
	PhaseReady Phase = "Ready"
	// PhaseExhausted means the cursor sits on the last byte.
	PhaseExhausted Phase = "Exhausted"
)

// Request identifies the remote call currently outstanding.
type Request string

const (
	RequestNone    Request = ""
	RequestStart   Request = "start"
	RequestAdvance Request = "advance"
)

// ByteStream is the input, one value per character position.
type ByteStream []byte

// ToByteStream maps every character of text to one byte. Characters above
// 0xFF keep only their low 8 bits.
func ToByteStream(text string) ByteStream {
	out := make(ByteStream, 0, len(text))
	for _, r := range text {
		out = append(out, byte(r))
	}
	return out
}

// State is the loop-owned session state.
type State struct {
	// Gen identifies the active session. Every Start increments it and
	// completion events carrying an older Gen are discarded.
	Gen int64

	Phase Phase

	// Text is the user input and Stream its byte form.
	Text   string
	Stream ByteStream

	// Snapshot is the latest engine state; Cursor mirrors Snapshot.Cursor().
	Snapshot Snapshot
	Cursor   int

	// PrimaryHits and SecondaryHits are the sorted stream indices whose
	// snapshot reported a trigger at the first and second granularity.
	PrimaryHits   []int
	SecondaryHits []int

	// InFlight is the outstanding remote call, if any.
	InFlight Request

	// LastErr is the most recent failure. Successful calls clear it.
	LastErr error

	// Discarded counts completion events dropped as stale.
	Discarded int

	pendingReply chan Result
}

// Len returns the stream length N.
func (s State) Len() int { return len(s.Stream) }

// CanAdvance reports whether an Advance would issue a remote call.
func (s State) CanAdvance() bool {
	return s.Phase == PhaseReady && s.InFlight == RequestNone && s.Cursor < len(s.Stream)-1
}

// IsPrimaryHit reports whether index is in PrimaryHits.
func (s State) IsPrimaryHit(index int) bool {
	_, ok := slices.BinarySearch(s.PrimaryHits, index)
	return ok
}

// IsSecondaryHit reports whether index is in SecondaryHits.
func (s State) IsSecondaryHit(index int) bool {
	_, ok := slices.BinarySearch(s.SecondaryHits, index)
	return ok
}

// Result completes a Start or Advance call.
type Result struct {
	State State
	Err   error
}

// Commands

type cmdStart struct {
	actor.InputBase
	Text  string
	Reply chan Result
}

type cmdAdvance struct {
	actor.InputBase
	Reply chan Result
}

// Events emitted by the runtime.

type evStarted struct {
	actor.InputBase
	Gen      int64
	Snapshot Snapshot
}

type evStartFailed struct {
	actor.InputBase
	Gen int64
	Err error
}

type evAdvanced struct {
	actor.InputBase
	Gen      int64
	Index    int
	Snapshot Snapshot
}

type evAdvanceFailed struct {
	actor.InputBase
	Gen   int64
	Index int
	Err   error
}

// Effects

// effInitialize asks the runtime to open a new engine session.
type effInitialize struct {
	actor.EffectBase
	Gen    int64
	Length int
	First  byte
}

// effAdvance asks the runtime to feed the byte at Index.
type effAdvance struct {
	actor.EffectBase
	Gen   int64
	Index int
	Byte  byte
}

// effCloseSession asks the runtime to drop the engine session opened for Gen.
type effCloseSession struct {
	actor.EffectBase
	Gen int64
}

// effCompleteReply delivers a Result to a waiting caller.
type effCompleteReply struct {
	actor.EffectBase
	Reply  chan Result
	Result Result
}
