// Package actortest provides test doubles for the actor framework.
package actortest

import (
	"context"
	"sync"

	"github.com/joekir/ssdeepviz/internal/actor"
)

// FakeRuntime records effects and optionally answers them through EmitFn on a
// goroutine of its own, one per HandleEffects batch.
type FakeRuntime struct {
	mu sync.Mutex

	effects []actor.Effect

	// EmitFn, when non-nil, is invoked for each effect of a batch in order.
	EmitFn func(ctx context.Context, eff actor.Effect, emit func(actor.Input))
}

var _ actor.Runtime = (*FakeRuntime)(nil)

// HandleEffects implements actor.Runtime.
func (r *FakeRuntime) HandleEffects(ctx context.Context, effects []actor.Effect, emit func(actor.Input)) {
	r.mu.Lock()
	r.effects = append(r.effects, effects...)
	emitFn := r.EmitFn
	r.mu.Unlock()

	if emitFn == nil {
		return
	}
	go func() {
		for _, eff := range effects {
			emitFn(ctx, eff, emit)
		}
	}()
}

// Stop implements actor.Runtime.
func (r *FakeRuntime) Stop() {}

// Effects returns a copy of the recorded effects.
func (r *FakeRuntime) Effects() []actor.Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]actor.Effect, len(r.effects))
	copy(out, r.effects)
	return out
}

// Reset clears recorded effects.
func (r *FakeRuntime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = nil
}
