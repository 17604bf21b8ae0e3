// Package engine hosts server-side hashing sessions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/joekir/ssdeepviz/internal/ctph"
	"github.com/joekir/ssdeepviz/internal/logger"
	"github.com/joekir/ssdeepviz/internal/wire"
)

// ErrIndexMismatch is returned by StepAt when the requested position is
// neither the next byte nor the one the engine consumed last.
var ErrIndexMismatch = errors.New("step index does not match session position")

// Manager owns hashing sessions and serializes operations per session id.
//
// Live engines are cached in memory; every mutation is written through to
// the store so an evicted session can be reloaded.
type Manager struct {
	store Store

	mu    sync.Mutex
	cache *lru.Cache[string, *sessionRuntime]
}

// NewManager creates a Manager holding at most cacheSize live engines.
func NewManager(store Store, cacheSize int) (*Manager, error) {
	cache, err := lru.New[string, *sessionRuntime](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Manager{store: store, cache: cache}, nil
}

type sessionRuntime struct {
	mu sync.Mutex
	id string
	fh *ctph.FuzzyHash
}

// Create starts a session for length bytes. When first is non-nil the engine
// consumes it before the state is returned.
func (m *Manager) Create(ctx context.Context, length int, first *byte) (string, wire.EngineState, error) {
	fh, err := ctph.NewFuzzyHash(length)
	if err != nil {
		return "", wire.EngineState{}, err
	}
	if first != nil {
		fh.Step(*first)
	}

	rt := &sessionRuntime{id: uuid.NewString(), fh: fh}
	if err := m.persist(ctx, rt); err != nil {
		return "", wire.EngineState{}, err
	}

	m.mu.Lock()
	m.cache.Add(rt.id, rt)
	m.mu.Unlock()

	logger.Debugf("[engine] session %s created length=%d block_size=%d", rt.id, length, fh.BlockSize)
	return rt.id, wire.FromEngine(fh), nil
}

// Step feeds b to the session's engine and returns the new state.
func (m *Manager) Step(ctx context.Context, id string, b byte) (wire.EngineState, error) {
	return m.step(ctx, id, -1, b)
}

// StepAt feeds b as the byte at index. Repeating the request for the index
// the engine consumed last returns the current state without stepping, so a
// client may retry a step whose reply it never saw.
func (m *Manager) StepAt(ctx context.Context, id string, index int, b byte) (wire.EngineState, error) {
	if index < 0 {
		return wire.EngineState{}, fmt.Errorf("%w: index %d", ErrIndexMismatch, index)
	}
	return m.step(ctx, id, index, b)
}

func (m *Manager) step(ctx context.Context, id string, index int, b byte) (wire.EngineState, error) {
	rt, err := m.get(ctx, id)
	if err != nil {
		return wire.EngineState{}, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if index >= 0 {
		switch cur := rt.fh.Index; {
		case index == cur:
			logger.Debugf("[engine] session %s replayed step index=%d", id, index)
			return wire.FromEngine(rt.fh), nil
		case index != cur+1:
			return wire.EngineState{}, fmt.Errorf("%w: requested %d, session at %d", ErrIndexMismatch, index, cur)
		}
	}

	next := rt.fh.Clone()
	next.Step(b)
	if err := m.persist(ctx, &sessionRuntime{id: id, fh: next}); err != nil {
		return wire.EngineState{}, err
	}
	rt.fh = next

	logger.Tracef("[engine] session %s step index=%d byte=%d sig=%s", id, next.Index, b, next.Signature())
	return wire.FromEngine(next), nil
}

// Current returns the session's state without changing it.
func (m *Manager) Current(ctx context.Context, id string) (wire.EngineState, error) {
	rt, err := m.get(ctx, id)
	if err != nil {
		return wire.EngineState{}, err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return wire.FromEngine(rt.fh), nil
}

// Delete discards a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	m.cache.Remove(id)
	m.mu.Unlock()
	return m.store.Delete(ctx, id)
}

// Prune drops sessions idle for longer than maxAge.
func (m *Manager) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := m.store.Prune(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		// Cached entries may be stale now; let them reload from the store.
		m.mu.Lock()
		m.cache.Purge()
		m.mu.Unlock()
		logger.Infof("[engine] pruned %d idle sessions", n)
	}
	return n, nil
}

// Count returns the number of stored sessions.
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.store.Count(ctx)
}

func (m *Manager) get(ctx context.Context, id string) (*sessionRuntime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rt, ok := m.cache.Get(id); ok {
		return rt, nil
	}

	blob, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	fh := new(ctph.FuzzyHash)
	if err := fh.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	rt := &sessionRuntime{id: id, fh: fh}
	m.cache.Add(id, rt)
	return rt, nil
}

func (m *Manager) persist(ctx context.Context, rt *sessionRuntime) error {
	blob, err := rt.fh.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode session %s: %w", rt.id, err)
	}
	return m.store.Save(ctx, rt.id, blob)
}
