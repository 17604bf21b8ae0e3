// Package session drives one remote hashing engine across a byte stream.
//
// A Driver owns a single actor loop. Start and Advance enqueue commands and
// wait for the loop to reply; remote calls run on the Runtime and report back
// as generation-tagged events, so a completion belonging to a superseded
// session can never modify the current one.
package session

import (
	"context"

	"github.com/joekir/ssdeepviz/internal/actor"
	"github.com/joekir/ssdeepviz/internal/logger"
)

// Driver is the caller-facing session handle. It is safe for concurrent use.
type Driver struct {
	actor   *actor.Actor[State]
	runtime *Runtime
}

// NewDriver starts a driver loop bound to engine.
func NewDriver(engine Engine) *Driver {
	rt := NewRuntime(engine)
	a := actor.New(State{Phase: PhaseUninitialized}, Reduce, rt, actor.WithHooks(actor.Hooks[State]{
		OnTransition: logTransition,
		OnPanic: func(recovered any) {
			logger.Errorf("session: loop panic: %v", recovered)
		},
	}))
	a.Start()
	return &Driver{actor: a, runtime: rt}
}

// Start begins a new session over text, superseding any current one. It
// returns once the engine consumed the first byte or failed to.
func (d *Driver) Start(ctx context.Context, text string) (State, error) {
	return d.call(ctx, func(reply chan Result) actor.Input {
		return cmdStart{Text: text, Reply: reply}
	})
}

// Advance feeds the byte after the cursor. It fails with ErrBusy while another
// call is in flight and with ErrEndOfStream once the last byte is consumed.
func (d *Driver) Advance(ctx context.Context) (State, error) {
	return d.call(ctx, func(reply chan Result) actor.Input {
		return cmdAdvance{Reply: reply}
	})
}

// State returns the latest session state.
func (d *Driver) State() State {
	return d.actor.State()
}

// Close stops the loop, releases the engine session and waits for every
// remote call still running to return.
func (d *Driver) Close() error {
	d.actor.Stop()
	<-d.actor.Done()
	d.runtime.Wait()
	return nil
}

func (d *Driver) call(ctx context.Context, build func(chan Result) actor.Input) (State, error) {
	reply := make(chan Result, 1)
	if err := d.actor.Send(ctx, build(reply)); err != nil {
		return d.actor.State(), err
	}
	select {
	case res := <-reply:
		return res.State, res.Err
	case <-ctx.Done():
		return d.actor.State(), ctx.Err()
	case <-d.actor.Done():
		return d.actor.State(), actor.ErrStopped
	}
}

func logTransition(prev, next State, input actor.Input) {
	if next.Discarded > prev.Discarded {
		logger.Debugf("session: discarded stale %T (gen=%d)", input, next.Gen)
		return
	}
	if prev.Phase != next.Phase || prev.Gen != next.Gen {
		logger.Debugf("session: %s -> %s gen=%d cursor=%d", prev.Phase, next.Phase, next.Gen, next.Cursor)
	}
	if next.LastErr != nil && next.LastErr != prev.LastErr {
		logger.Infof("session: %v", next.LastErr)
	}
}
