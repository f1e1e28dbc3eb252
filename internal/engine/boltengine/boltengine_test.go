package boltengine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apostoln/kvs/internal/engine"
	"github.com/apostoln/kvs/internal/engine/boltengine"
)

func TestGetSetRemove(t *testing.T) {
	e, err := boltengine.Open(t.TempDir())
	require.NoError(t, err)
	defer e.Close()

	_, ok, err := e.Get("a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, e.Set("a", "1"))

	value, ok, err := e.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", value)

	require.NoError(t, e.Remove("a"))
	_, ok, err = e.Get("a")
	require.NoError(t, err)
	require.False(t, ok)

	require.ErrorIs(t, e.Remove("a"), engine.ErrKeyNotFound)
}

func TestCloneSharesUnderlyingDB(t *testing.T) {
	e, err := boltengine.Open(t.TempDir())
	require.NoError(t, err)

	clone, err := e.Clone()
	require.NoError(t, err)

	require.NoError(t, e.Set("a", "1"))
	value, ok, err := clone.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", value)

	require.NoError(t, clone.Close())
	require.NoError(t, e.Close())
}
