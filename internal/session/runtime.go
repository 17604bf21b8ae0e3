package session

import (
	"context"
	"sync"

	"github.com/joekir/ssdeepviz/internal/actor"
	"github.com/joekir/ssdeepviz/internal/logger"
)

// Runtime interprets session effects against an Engine.
//
// It never touches session state. Every remote call runs on its own goroutine
// and reports completion by emitting an event tagged with the generation that
// requested it.
type Runtime struct {
	engine Engine

	mu   sync.Mutex
	gen  int64
	conn EngineSession
	wg   sync.WaitGroup
}

// NewRuntime returns a Runtime that opens sessions on engine.
func NewRuntime(engine Engine) *Runtime {
	return &Runtime{engine: engine}
}

// HandleEffects implements actor.Runtime.
func (r *Runtime) HandleEffects(ctx context.Context, effects []actor.Effect, emit func(actor.Input)) {
	for _, eff := range effects {
		switch e := eff.(type) {
		case effCompleteReply:
			// Replies are buffered with capacity one; never block the loop.
			select {
			case e.Reply <- e.Result:
			default:
			}
		case effInitialize:
			r.initialize(ctx, e, emit)
		case effAdvance:
			r.advance(ctx, e, emit)
		case effCloseSession:
			r.closeGen(e.Gen)
		}
	}
}

// Stop implements actor.Runtime.
func (r *Runtime) Stop() {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.gen = -1
	r.mu.Unlock()

	if conn != nil {
		closeSession(conn)
	}
}

// Wait blocks until every in-flight remote call has returned.
func (r *Runtime) Wait() { r.wg.Wait() }

func (r *Runtime) initialize(ctx context.Context, eff effInitialize, emit func(actor.Input)) {
	r.mu.Lock()
	old := r.conn
	r.conn = nil
	r.gen = eff.Gen
	r.mu.Unlock()

	if old != nil {
		closeSession(old)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		conn, st, err := r.engine.Initialize(ctx, eff.Length, eff.First)
		if err != nil {
			logger.Warnf("session: initialize gen=%d length=%d failed: %v", eff.Gen, eff.Length, err)
			emit(evStartFailed{Gen: eff.Gen, Err: err})
			return
		}

		snap, err := NewSnapshot(st)
		if err != nil {
			closeSession(conn)
			emit(evStartFailed{Gen: eff.Gen, Err: err})
			return
		}

		r.mu.Lock()
		current := r.gen == eff.Gen
		if current {
			r.conn = conn
		}
		r.mu.Unlock()
		if !current {
			// A newer Start won the race; this session is already orphaned.
			closeSession(conn)
		}
		logger.Debugf("session: initialized gen=%d length=%d block_size=%d", eff.Gen, eff.Length, snap.BlockSize())
		emit(evStarted{Gen: eff.Gen, Snapshot: snap})
	}()
}

func (r *Runtime) advance(ctx context.Context, eff effAdvance, emit func(actor.Input)) {
	r.mu.Lock()
	conn := r.conn
	current := r.gen == eff.Gen
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if !current || conn == nil {
			emit(evAdvanceFailed{Gen: eff.Gen, Index: eff.Index, Err: ErrEngineUnavailable})
			return
		}

		st, err := conn.Advance(ctx, eff.Index, eff.Byte)
		if err == nil && st == nil {
			err = ErrEmptySnapshot
		}
		if err != nil {
			logger.Warnf("session: advance gen=%d index=%d byte=%d failed: %v", eff.Gen, eff.Index, eff.Byte, err)
			emit(evAdvanceFailed{Gen: eff.Gen, Index: eff.Index, Err: err})
			return
		}

		snap, err := NewSnapshot(*st)
		if err != nil {
			emit(evAdvanceFailed{Gen: eff.Gen, Index: eff.Index, Err: err})
			return
		}
		logger.Tracef("session: advanced gen=%d index=%d x=%d y=%d z=%d sig=%s",
			eff.Gen, eff.Index, snap.Registers().X, snap.Registers().Y, snap.Registers().Z, snap.Signature())
		emit(evAdvanced{Gen: eff.Gen, Index: eff.Index, Snapshot: snap})
	}()
}

// closeGen closes the engine session if it still belongs to gen.
func (r *Runtime) closeGen(gen int64) {
	r.mu.Lock()
	conn := r.conn
	if r.gen != gen {
		conn = nil
	}
	if conn != nil {
		r.conn = nil
	}
	r.mu.Unlock()

	if conn != nil {
		closeSession(conn)
	}
}

func closeSession(conn EngineSession) {
	if err := conn.Close(); err != nil {
		logger.Debugf("session: close engine session: %v", err)
	}
}
