package storelog_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/apostoln/kvs/internal/index"
	"github.com/apostoln/kvs/internal/protocol"
	"github.com/apostoln/kvs/internal/storelog"
)

func openLog(t *testing.T) *storelog.Log {
	t.Helper()
	l, err := storelog.Open(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestAppendAndRead(t *testing.T) {
	l := openLog(t)

	loc, err := l.Append(protocol.SetRecord("a", "1"))
	require.NoError(t, err)

	rec, err := l.Read(loc)
	require.NoError(t, err)
	require.Equal(t, protocol.SetRecord("a", "1"), rec)
}

func TestRotateEmptyIsNoop(t *testing.T) {
	l := openLog(t)

	rotated, serial, err := l.Rotate()
	require.NoError(t, err)
	require.False(t, rotated)
	require.Zero(t, serial)
}

func TestRotateMovesActiveToPassive(t *testing.T) {
	l := openLog(t)

	loc, err := l.Append(protocol.SetRecord("a", "1"))
	require.NoError(t, err)
	require.True(t, loc.File.Active)

	rotated, serial, err := l.Rotate()
	require.NoError(t, err)
	require.True(t, rotated)
	require.Equal(t, uint64(1), serial)

	idx := index.New()
	idx.Insert("a", loc)
	storelog.RetargetActive(idx, serial)

	retargeted, _ := idx.Get("a")
	require.False(t, retargeted.File.Active)
	require.Equal(t, serial, retargeted.File.Serial)

	rec, err := l.Read(retargeted)
	require.NoError(t, err)
	require.Equal(t, "1", rec.Value)
}

func TestReindexOrdersActiveLast(t *testing.T) {
	l := openLog(t)

	l.Append(protocol.SetRecord("a", "1"))
	l.Rotate()
	l.Append(protocol.SetRecord("a", "2"))

	idx := index.New()
	require.NoError(t, l.Reindex(idx))

	loc, ok := idx.Get("a")
	require.True(t, ok)
	rec, err := l.Read(loc)
	require.NoError(t, err)
	require.Equal(t, "2", rec.Value)
}

func TestReindexHonorsRemove(t *testing.T) {
	l := openLog(t)

	l.Append(protocol.SetRecord("a", "1"))
	l.Append(protocol.RemoveRecord("a"))

	idx := index.New()
	require.NoError(t, l.Reindex(idx))

	_, ok := idx.Get("a")
	require.False(t, ok)
}

func TestCompactChunksAndReplacesPassives(t *testing.T) {
	l := openLog(t)

	var records []protocol.Record
	for i := 0; i < 250; i++ {
		records = append(records, protocol.SetRecord("k", "v"))
	}

	require.NoError(t, l.Compact(records))
	require.Equal(t, uint64(3), l.LastSerial())

	idx := index.New()
	require.NoError(t, l.Reindex(idx))
	loc, ok := idx.Get("k")
	require.True(t, ok)
	rec, err := l.Read(loc)
	require.NoError(t, err)
	require.Equal(t, "v", rec.Value)
}
