package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/joekir/ssdeepviz/internal/server/database"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &SQLStore{DB: db.DB}
}

func TestSQLStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t)

	_, err := store.Load(ctx, "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "s1", []byte("one")))
	require.NoError(t, store.Save(ctx, "s1", []byte("two")))

	blob, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, []byte("two"), blob)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, store.Delete(ctx, "s1"))
	require.ErrorIs(t, store.Delete(ctx, "s1"), ErrSessionNotFound)
}

func TestSQLStorePrune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.Save(ctx, "s1", []byte("x")))

	n, err := store.Prune(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = store.Prune(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestManagerOnSQLStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openStore(t)

	mgr, err := NewManager(store, 4)
	require.NoError(t, err)
	first := byte('A')
	id, _, err := mgr.Create(ctx, 2, &first)
	require.NoError(t, err)

	// A fresh manager on the same store resumes the session.
	mgr2, err := NewManager(store, 4)
	require.NoError(t, err)
	st, err := mgr2.Step(ctx, id, 'B')
	require.NoError(t, err)
	require.Equal(t, 1, st.Index)
	require.Equal(t, "", st.Sig1)
	require.Equal(t, uint32(2146), st.RollingHash.Z)
}
