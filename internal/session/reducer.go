package session

import (
	"fmt"
	"slices"
	"strings"

	"github.com/joekir/ssdeepviz/internal/actor"
)

// Reduce is the session reducer. It is pure: remote calls and reply
// delivery are returned as effects.
func Reduce(state State, input actor.Input) (State, []actor.Effect) {
	switch in := input.(type) {
	case cmdStart:
		return reduceStart(state, in)
	case cmdAdvance:
		return reduceAdvance(state, in)
	case evStarted:
		return reduceStarted(state, in)
	case evStartFailed:
		return reduceStartFailed(state, in)
	case evAdvanced:
		return reduceAdvanced(state, in)
	case evAdvanceFailed:
		return reduceAdvanceFailed(state, in)
	default:
		return state, nil
	}
}

func reply(ch chan Result, state State, err error) actor.Effect {
	return effCompleteReply{Reply: ch, Result: Result{State: state, Err: err}}
}

func reduceStart(state State, cmd cmdStart) (State, []actor.Effect) {
	stream := ToByteStream(cmd.Text)
	if len(stream) == 0 {
		return state, []actor.Effect{reply(cmd.Reply, state, ErrEmptyStream)}
	}

	var effects []actor.Effect
	next := State{
		Gen:          state.Gen + 1,
		Phase:        PhaseUninitialized,
		Text:         cmd.Text,
		Stream:       stream,
		InFlight:     RequestStart,
		Discarded:    state.Discarded,
		pendingReply: cmd.Reply,
	}
	if state.pendingReply != nil {
		effects = append(effects, reply(state.pendingReply, next, ErrSuperseded))
	}
	effects = append(effects, effInitialize{
		Gen:    next.Gen,
		Length: len(stream),
		First:  stream[0],
	})
	return next, effects
}

func reduceStarted(state State, ev evStarted) (State, []actor.Effect) {
	if ev.Gen != state.Gen || state.InFlight != RequestStart {
		state.Discarded++
		return state, nil
	}

	snap := ev.Snapshot
	switch {
	case snap.Cursor() != 0:
		return failStart(state, fmt.Errorf("%w: initial cursor %d, want 0", ErrInvalidSnapshot, snap.Cursor()))
	case snap.InputLength() != 0 && snap.InputLength() != len(state.Stream):
		return failStart(state, fmt.Errorf("%w: engine sized for %d bytes, stream has %d",
			ErrInvalidSnapshot, snap.InputLength(), len(state.Stream)))
	}

	next := state
	next.Snapshot = snap
	next.Cursor = snap.Cursor()
	next.PrimaryHits, next.SecondaryHits = nil, nil
	next = recordTriggers(next)
	next.Phase = phaseFor(next)
	next.InFlight = RequestNone
	next.LastErr = nil
	next.pendingReply = nil
	return next, []actor.Effect{reply(state.pendingReply, next, nil)}
}

func reduceStartFailed(state State, ev evStartFailed) (State, []actor.Effect) {
	if ev.Gen != state.Gen || state.InFlight != RequestStart {
		state.Discarded++
		return state, nil
	}
	return failStart(state, ev.Err)
}

func failStart(state State, cause error) (State, []actor.Effect) {
	next := State{
		Gen:       state.Gen,
		Phase:     PhaseUninitialized,
		LastErr:   fmt.Errorf("%w: %w", ErrEngineUnavailable, cause),
		Discarded: state.Discarded,
	}
	return next, []actor.Effect{
		reply(state.pendingReply, next, next.LastErr),
		effCloseSession{Gen: state.Gen},
	}
}

func reduceAdvance(state State, cmd cmdAdvance) (State, []actor.Effect) {
	switch {
	case state.InFlight != RequestNone:
		return state, []actor.Effect{reply(cmd.Reply, state, ErrBusy)}
	case state.Phase == PhaseUninitialized:
		return state, []actor.Effect{reply(cmd.Reply, state, ErrNotStarted)}
	case state.Cursor >= len(state.Stream)-1:
		return state, []actor.Effect{reply(cmd.Reply, state, ErrEndOfStream)}
	}

	index := state.Cursor + 1
	state.InFlight = RequestAdvance
	state.pendingReply = cmd.Reply
	return state, []actor.Effect{effAdvance{
		Gen:   state.Gen,
		Index: index,
		Byte:  state.Stream[index],
	}}
}

func reduceAdvanced(state State, ev evAdvanced) (State, []actor.Effect) {
	if isStaleAdvance(state, ev.Gen, ev.Index) {
		state.Discarded++
		return state, nil
	}
	if err := checkContinuity(state, ev.Index, ev.Snapshot); err != nil {
		return failAdvance(state, err)
	}

	next := state
	next.Snapshot = ev.Snapshot
	next.Cursor = ev.Index
	next = recordTriggers(next)
	next.Phase = phaseFor(next)
	next.InFlight = RequestNone
	next.LastErr = nil
	next.pendingReply = nil
	return next, []actor.Effect{reply(state.pendingReply, next, nil)}
}

func reduceAdvanceFailed(state State, ev evAdvanceFailed) (State, []actor.Effect) {
	if isStaleAdvance(state, ev.Gen, ev.Index) {
		state.Discarded++
		return state, nil
	}
	return failAdvance(state, ev.Err)
}

// failAdvance clears the in-flight marker and records the error; cursor,
// snapshot and hits are left untouched.
func failAdvance(state State, cause error) (State, []actor.Effect) {
	next := state
	next.InFlight = RequestNone
	next.LastErr = fmt.Errorf("%w: %w", ErrAdvanceRejected, cause)
	next.pendingReply = nil
	return next, []actor.Effect{reply(state.pendingReply, next, next.LastErr)}
}

func isStaleAdvance(state State, gen int64, index int) bool {
	return gen != state.Gen || state.InFlight != RequestAdvance || index != state.Cursor+1
}

// checkContinuity verifies that snap can follow the current snapshot: it must
// sit on the requested index and extend both signature fragments.
func checkContinuity(state State, index int, snap Snapshot) error {
	prev := state.Snapshot
	switch {
	case snap.Cursor() != index:
		return fmt.Errorf("%w: engine at index %d, want %d", ErrInvalidSnapshot, snap.Cursor(), index)
	case !strings.HasPrefix(snap.Sig1(), prev.Sig1()):
		return fmt.Errorf("%w: sig1 %q does not extend %q", ErrInvalidSnapshot, snap.Sig1(), prev.Sig1())
	case !strings.HasPrefix(snap.Sig2(), prev.Sig2()):
		return fmt.Errorf("%w: sig2 %q does not extend %q", ErrInvalidSnapshot, snap.Sig2(), prev.Sig2())
	}
	return nil
}

// recordTriggers appends the cursor to the hit lists the snapshot reports.
// Clip forces a fresh backing array so earlier State copies never observe
// the append.
func recordTriggers(state State) State {
	if state.Snapshot.Triggered1() {
		state.PrimaryHits = append(slices.Clip(state.PrimaryHits), state.Cursor)
	}
	if state.Snapshot.Triggered2() {
		state.SecondaryHits = append(slices.Clip(state.SecondaryHits), state.Cursor)
	}
	return state
}

func phaseFor(state State) Phase {
	if state.Cursor >= len(state.Stream)-1 {
		return PhaseExhausted
	}
	return PhaseReady
}
