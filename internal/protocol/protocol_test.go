package protocol_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apostoln/kvs/internal/protocol"
)

func TestRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := protocol.SetRequest("a", "1")

	require.NoError(t, protocol.EncodeRequest(&buf, req))

	decoded, err := protocol.DecodeRequest(json.NewDecoder(&buf))
	require.NoError(t, err)
	require.Equal(t, req, decoded)
}

func TestResponseOkValue(t *testing.T) {
	var buf bytes.Buffer
	value := "1"
	resp := protocol.OkResponse(&value)

	require.NoError(t, protocol.EncodeResponse(&buf, resp))

	decoded, err := protocol.DecodeResponse(json.NewDecoder(&buf))
	require.NoError(t, err)
	require.False(t, decoded.IsErr())
	require.Equal(t, "1", *decoded.Value)
}

func TestResponseErrKeyNotFound(t *testing.T) {
	var buf bytes.Buffer
	resp := protocol.ErrResponse(protocol.ErrKeyNotFoundMessage)

	require.NoError(t, protocol.EncodeResponse(&buf, resp))

	decoded, err := protocol.DecodeResponse(json.NewDecoder(&buf))
	require.NoError(t, err)
	require.True(t, decoded.IsErr())
	require.Equal(t, protocol.ErrKeyNotFoundMessage, *decoded.Err)
}

func TestRecordsAreSelfDelimitingWhenConcatenated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, protocol.EncodeRecord(&buf, protocol.SetRecord("a", "1")))
	require.NoError(t, protocol.EncodeRecord(&buf, protocol.RemoveRecord("a")))

	dec := json.NewDecoder(&buf)

	first, err := protocol.DecodeRecord(dec)
	require.NoError(t, err)
	require.Equal(t, protocol.KindSet, first.Kind)

	second, err := protocol.DecodeRecord(dec)
	require.NoError(t, err)
	require.Equal(t, protocol.KindRemove, second.Kind)
}
