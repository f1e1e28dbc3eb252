package location_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apostoln/kvs/internal/location"
)

func TestNewActiveFile(t *testing.T) {
	loc, err := location.New(42, "/store/log.active")
	require.NoError(t, err)
	assert.Equal(t, location.ActiveFile, loc.File)
	assert.Equal(t, uint64(42), loc.Offset)
}

func TestNewPassiveFile(t *testing.T) {
	loc, err := location.New(7, "/store/3.passive")
	require.NoError(t, err)
	assert.Equal(t, location.PassiveFile(3), loc.File)
	assert.Equal(t, uint64(7), loc.Offset)
}

func TestNewInvalidName(t *testing.T) {
	_, err := location.New(0, "/store/not-a-number.passive")
	assert.ErrorIs(t, err, location.ErrInvalidDatafileName)
}

func TestSerialFromName(t *testing.T) {
	n, err := location.SerialFromName("12.passive")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), n)
}
