package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/joekir/ssdeepviz/internal/ctph"
	"github.com/joekir/ssdeepviz/internal/session"
	"github.com/joekir/ssdeepviz/internal/wire"
)

// LocalEngine runs the hashing engine in process. Like the server it answers
// a repeated index with the current state.
type LocalEngine struct{}

var _ session.Engine = LocalEngine{}

// Initialize implements session.Engine.
func (LocalEngine) Initialize(_ context.Context, length int, first byte) (session.EngineSession, wire.EngineState, error) {
	fh, err := ctph.NewFuzzyHash(length)
	if err != nil {
		return nil, wire.EngineState{}, err
	}
	fh.Step(first)
	return &localSession{fh: fh}, wire.FromEngine(fh), nil
}

type localSession struct {
	mu sync.Mutex
	fh *ctph.FuzzyHash
}

// Advance implements session.EngineSession.
func (s *localSession) Advance(_ context.Context, index int, b byte) (*wire.EngineState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch cur := s.fh.Index; {
	case index == cur:
	case index == cur+1:
		s.fh.Step(b)
	default:
		return nil, fmt.Errorf("index %d does not follow engine position %d", index, cur)
	}
	st := wire.FromEngine(s.fh)
	return &st, nil
}

// Close implements session.EngineSession.
func (s *localSession) Close() error { return nil }
