package server_test

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/apostoln/kvs/internal/engine/kvstore"
	"github.com/apostoln/kvs/internal/pool"
	"github.com/apostoln/kvs/internal/protocol"
	"github.com/apostoln/kvs/internal/server"
)

func waitForAddr(t *testing.T, srv *server.Server) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a := srv.Addr(); a != nil {
			return a.String()
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("server never bound a listener")
	return ""
}

func TestServerHandlesSetGetRemove(t *testing.T) {
	eng, err := kvstore.Open(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	p := pool.NewQueuePool(2, zerolog.Nop())
	srv := server.New("127.0.0.1:0", p, eng, zerolog.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	addr := waitForAddr(t, srv)

	resp := roundTrip(t, addr, protocol.GetRequest("a"))
	require.False(t, resp.IsErr())
	require.Nil(t, resp.Value)

	resp = roundTrip(t, addr, protocol.SetRequest("a", "1"))
	require.False(t, resp.IsErr())

	resp = roundTrip(t, addr, protocol.GetRequest("a"))
	require.False(t, resp.IsErr())
	require.Equal(t, "1", *resp.Value)

	resp = roundTrip(t, addr, protocol.RmRequest("a"))
	require.False(t, resp.IsErr())

	resp = roundTrip(t, addr, protocol.RmRequest("a"))
	require.True(t, resp.IsErr())
	require.Equal(t, protocol.ErrKeyNotFoundMessage, *resp.Err)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func roundTrip(t *testing.T, addr string, req protocol.Request) protocol.Response {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, protocol.EncodeRequest(conn, req))
	resp, err := protocol.DecodeResponse(json.NewDecoder(conn))
	require.NoError(t, err)
	return resp
}
