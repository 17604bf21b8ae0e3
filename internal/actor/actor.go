// Package actor runs a pure reducer on a single goroutine and hands the
// effects it returns to a Runtime.
//
// The loop goroutine is the only writer of the state value. Runtimes report
// the outcome of an effect by emitting a new input, which is reduced in
// mailbox order like any command.
package actor

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned when the actor no longer accepts input.
var ErrStopped = errors.New("actor stopped")

// Input is an item delivered to an actor mailbox: a command from a caller or
// an event reported by the runtime.
type Input interface {
	isActorInput()
}

// Effect is a side-effect requested by the reducer. Effects are data; the
// Runtime decides how to execute them.
type Effect interface {
	isActorEffect()
}

// ReducerFunc is a pure state transition function. It must not perform I/O,
// start goroutines or read clocks.
type ReducerFunc[S any] func(state S, input Input) (next S, effects []Effect)

// Runtime executes effects and emits follow-up inputs.
type Runtime interface {
	// HandleEffects runs on the loop goroutine and must return quickly.
	// emit blocks until the mailbox accepts the input or the actor stops, so
	// it may only be called from goroutines the runtime started itself.
	HandleEffects(ctx context.Context, effects []Effect, emit func(Input))

	// Stop releases background work. It may be called more than once.
	Stop()
}

// Hooks observe the loop. All hooks run on the loop goroutine.
type Hooks[S any] struct {
	// OnTransition is called after the reducer ran and the state was stored.
	OnTransition func(prev S, next S, input Input)
	// OnPanic is called when the loop panics. If nil, the panic propagates.
	OnPanic func(recovered any)
}

// Actor runs the event loop that owns a state of type S.
type Actor[S any] struct {
	reduce  ReducerFunc[S]
	runtime Runtime
	hooks   Hooks[S]

	mu     sync.Mutex
	state  S
	inbox  chan Input
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Option configures an Actor.
type Option[S any] func(*Actor[S])

// WithHooks attaches observation hooks.
func WithHooks[S any](hooks Hooks[S]) Option[S] {
	return func(a *Actor[S]) { a.hooks = hooks }
}

// WithMailboxSize sets the mailbox buffer size. Non-positive values are
// ignored.
func WithMailboxSize[S any](n int) Option[S] {
	return func(a *Actor[S]) {
		if n > 0 {
			a.inbox = make(chan Input, n)
		}
	}
}

// New creates an actor with an initial state, reducer and runtime. The loop
// does not run until Start is called.
func New[S any](initial S, reducer ReducerFunc[S], runtime Runtime, opts ...Option[S]) *Actor[S] {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Actor[S]{
		reduce:  reducer,
		runtime: runtime,
		state:   initial,
		inbox:   make(chan Input, 64),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start launches the loop. Calling it again has no effect.
func (a *Actor[S]) Start() {
	a.once.Do(func() { go a.loop() })
}

// Stop cancels the loop and stops the runtime. Safe to call more than once.
func (a *Actor[S]) Stop() {
	a.cancel()
	if a.runtime != nil {
		a.runtime.Stop()
	}
}

// Done is closed when the loop exits.
func (a *Actor[S]) Done() <-chan struct{} { return a.done }

// Enqueue delivers an input without waiting. It returns false when the actor
// is stopped or the mailbox is full.
func (a *Actor[S]) Enqueue(input Input) bool {
	if input == nil || a.ctx.Err() != nil {
		return false
	}
	select {
	case a.inbox <- input:
		return true
	default:
		return false
	}
}

// Send delivers an input, waiting for mailbox space. It fails with ErrStopped
// once the actor stops and with ctx.Err() when ctx ends first.
func (a *Actor[S]) Send(ctx context.Context, input Input) error {
	if input == nil {
		return errors.New("actor: nil input")
	}
	if a.ctx.Err() != nil {
		return ErrStopped
	}
	select {
	case a.inbox <- input:
		return nil
	case <-a.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the most recently stored state.
func (a *Actor[S]) State() S {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Actor[S]) loop() {
	defer close(a.done)
	defer func() {
		if r := recover(); r != nil {
			if a.hooks.OnPanic != nil {
				a.hooks.OnPanic(r)
				return
			}
			panic(r)
		}
	}()

	// A runtime completion must reach the reducer; dropping it would leave
	// the state waiting forever. Only a stopped actor discards it.
	emit := func(in Input) {
		_ = a.Send(a.ctx, in)
	}

	for {
		select {
		case <-a.ctx.Done():
			return
		case in := <-a.inbox:
			if in != nil {
				a.handle(in, emit)
			}
		}
	}
}

func (a *Actor[S]) handle(in Input, emit func(Input)) {
	a.mu.Lock()
	prev := a.state
	a.mu.Unlock()

	next, effects := a.reduce(prev, in)

	a.mu.Lock()
	a.state = next
	a.mu.Unlock()

	if a.hooks.OnTransition != nil {
		a.hooks.OnTransition(prev, next, in)
	}
	if a.runtime != nil && len(effects) > 0 {
		a.runtime.HandleEffects(a.ctx, effects, emit)
	}
}
