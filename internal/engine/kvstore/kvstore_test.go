package kvstore_test

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/apostoln/kvs/internal/engine"
	"github.com/apostoln/kvs/internal/engine/kvstore"
)

func openEngine(t *testing.T) *kvstore.Engine {
	t.Helper()
	e, err := kvstore.Open(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestGetSetRoundTrip(t *testing.T) {
	e := openEngine(t)

	_, ok, err := e.Get("a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, e.Set("a", "1"))

	value, ok, err := e.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", value)
}

func TestRemoveMissingKeyFails(t *testing.T) {
	e := openEngine(t)

	err := e.Remove("missing")
	require.ErrorIs(t, err, engine.ErrKeyNotFound)
}

func TestRemoveThenGetIsAbsent(t *testing.T) {
	e := openEngine(t)
	require.NoError(t, e.Set("key60", "value"))
	require.NoError(t, e.Set("key59", "value"))

	require.NoError(t, e.Remove("key60"))

	_, ok, err := e.Get("key60")
	require.NoError(t, err)
	require.False(t, ok)

	value, ok, err := e.Get("key59")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value", value)

	require.ErrorIs(t, e.Remove("key60"), engine.ErrKeyNotFound)
}

func TestOverwritesTriggerCompaction(t *testing.T) {
	e := openEngine(t)

	for i := 0; i < 2000; i++ {
		require.NoError(t, e.Set("a", fmt.Sprintf("%d", i)))
	}

	value, ok, err := e.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1999", value)
}

func TestClonedHandleSharesState(t *testing.T) {
	e := openEngine(t)
	require.NoError(t, e.Set("a", "1"))

	clone, err := e.Clone()
	require.NoError(t, err)

	value, ok, err := clone.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", value)

	require.NoError(t, clone.Close())
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	e, err := kvstore.Open(dir, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, e.Set("a", "1"))
	require.NoError(t, e.Close())

	reopened, err := kvstore.Open(dir, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", value)
}
