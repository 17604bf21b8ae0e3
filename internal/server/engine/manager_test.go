package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joekir/ssdeepviz/internal/ctph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	saves   int
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: make(map[string][]byte)}
}

func (s *fakeStore) Save(_ context.Context, id string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.blobs[id] = append([]byte(nil), state...)
	return nil
}

func (s *fakeStore) Load(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return blob, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.blobs, id)
	return nil
}

func (s *fakeStore) Prune(_ context.Context, _ time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.blobs))
	s.blobs = make(map[string][]byte)
	return n, nil
}

func (s *fakeStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs), nil
}

func ptr(b byte) *byte { return &b }

func TestManagerCreateAndStep(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(newFakeStore(), 8)
	require.NoError(t, err)

	id, st, err := mgr.Create(ctx, 2, ptr('A'))
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, 0, st.Index)
	require.Equal(t, uint32(3), st.BlockSize)
	require.Equal(t, 2, st.InputLength)

	st, err = mgr.Step(ctx, id, 'B')
	require.NoError(t, err)
	require.Equal(t, 1, st.Index)
	require.Equal(t, uint32(131), st.RollingHash.X)
	require.Equal(t, uint32(852), st.RollingHash.Y)
	require.Equal(t, uint32(2146), st.RollingHash.Z)

	cur, err := mgr.Current(ctx, id)
	require.NoError(t, err)
	require.Equal(t, st, cur)
}

func TestManagerCreateWithoutFirstByte(t *testing.T) {
	mgr, err := NewManager(newFakeStore(), 8)
	require.NoError(t, err)

	_, st, err := mgr.Create(context.Background(), 10, nil)
	require.NoError(t, err)
	require.Equal(t, -1, st.Index)
	require.Len(t, st.RollingHash.Window, int(ctph.WindowSize))
}

func TestManagerRejectsInvalidLength(t *testing.T) {
	mgr, err := NewManager(newFakeStore(), 8)
	require.NoError(t, err)

	_, _, err = mgr.Create(context.Background(), 0, nil)
	require.ErrorIs(t, err, ctph.ErrInvalidLength)
}

func TestManagerStepsZeroByte(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(newFakeStore(), 8)
	require.NoError(t, err)

	id, _, err := mgr.Create(ctx, 3, ptr(0))
	require.NoError(t, err)

	st, err := mgr.Step(ctx, id, 0)
	require.NoError(t, err)
	require.Equal(t, 1, st.Index)
	require.EqualValues(t, 2, st.RollingHash.C)

	st, err = mgr.Step(ctx, id, 'x')
	require.NoError(t, err)
	require.Equal(t, 2, st.Index)
	require.EqualValues(t, 'x', st.RollingHash.X)
}

func TestManagerStepAtReplaysLastIndex(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(newFakeStore(), 8)
	require.NoError(t, err)

	id, _, err := mgr.Create(ctx, 4, ptr('a'))
	require.NoError(t, err)

	stepped, err := mgr.StepAt(ctx, id, 1, 'b')
	require.NoError(t, err)
	require.Equal(t, 1, stepped.Index)

	// The reply was lost; the same request must not advance the engine again.
	replayed, err := mgr.StepAt(ctx, id, 1, 'b')
	require.NoError(t, err)
	require.Equal(t, stepped, replayed)

	_, err = mgr.StepAt(ctx, id, 3, 'd')
	require.ErrorIs(t, err, ErrIndexMismatch)
	_, err = mgr.StepAt(ctx, id, 0, 'a')
	require.ErrorIs(t, err, ErrIndexMismatch)
	_, err = mgr.StepAt(ctx, id, -1, 'a')
	require.ErrorIs(t, err, ErrIndexMismatch)

	next, err := mgr.StepAt(ctx, id, 2, 'c')
	require.NoError(t, err)
	require.Equal(t, 2, next.Index)
}

func TestManagerReloadsEvictedSession(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(newFakeStore(), 1)
	require.NoError(t, err)

	first, _, err := mgr.Create(ctx, 11, ptr('h'))
	require.NoError(t, err)
	_, _, err = mgr.Create(ctx, 3, ptr('z'))
	require.NoError(t, err)

	var sig string
	for _, b := range []byte("ello world") {
		got, err := mgr.Step(ctx, first, b)
		require.NoError(t, err)
		sig = got.Sig1 + ":" + got.Sig2
	}
	require.Equal(t, "iKFSMP:rJP", sig)
}

func TestManagerFailedSaveKeepsState(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	mgr, err := NewManager(store, 8)
	require.NoError(t, err)

	id, before, err := mgr.Create(ctx, 4, ptr('a'))
	require.NoError(t, err)

	store.mu.Lock()
	store.saveErr = errors.New("disk full")
	store.mu.Unlock()

	_, err = mgr.Step(ctx, id, 'b')
	require.Error(t, err)

	after, err := mgr.Current(ctx, id)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestManagerSerializesPerSession(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(newFakeStore(), 8)
	require.NoError(t, err)

	const n = 50
	id, _, err := mgr.Create(ctx, n+1, ptr('a'))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := mgr.Step(ctx, id, 'a')
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st, err := mgr.Current(ctx, id)
	require.NoError(t, err)
	require.Equal(t, n, st.Index)
	require.Equal(t, uint32(n+1), st.RollingHash.C)
}

func TestManagerDeleteAndPrune(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(newFakeStore(), 8)
	require.NoError(t, err)

	id, _, err := mgr.Create(ctx, 4, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Delete(ctx, id))
	_, err = mgr.Current(ctx, id)
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.ErrorIs(t, mgr.Delete(ctx, id), ErrSessionNotFound)

	id, _, err = mgr.Create(ctx, 4, nil)
	require.NoError(t, err)
	n, err := mgr.Prune(ctx, time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = mgr.Step(ctx, id, 'q')
	require.ErrorIs(t, err, ErrSessionNotFound)

	count, err := mgr.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}
