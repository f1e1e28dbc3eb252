// Package server is the TCP front end: it accepts connections, decodes one
// protocol.Request per connection, dispatches it against an engine.Engine,
// encodes one protocol.Response, and closes. Work is handed off to a
// pool.ThreadPool rather than handled inline on the accept goroutine.
package server

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/apostoln/kvs/internal/config"
	"github.com/apostoln/kvs/internal/engine"
	"github.com/apostoln/kvs/internal/metrics"
	"github.com/apostoln/kvs/internal/pool"
	"github.com/apostoln/kvs/internal/protocol"
	"github.com/apostoln/kvs/internal/waitgroup"
)

// acceptPollInterval bounds how long Accept blocks before the loop
// rechecks the interrupt flag. Go's net.Listener has no native
// non-blocking accept; a short deadline on the listener is the idiomatic
// stand-in for the reference's set_nonblocking + "would block, continue"
// poll.
const acceptPollInterval = 200 * time.Millisecond

// Server owns the listener and the dispatch loop.
type Server struct {
	addr    string
	pool    pool.ThreadPool
	engine  engine.Engine
	logger  zerolog.Logger
	metrics *metrics.Metrics

	interrupt  atomic.Bool
	inFlight   *waitgroup.WaitGroup
	boundAddr  atomic.Value // net.Addr, set once Run has bound the listener
}

// Addr returns the address the listener is bound to, or nil before Run has
// bound it. Useful in tests that bind an ephemeral port (":0").
func (s *Server) Addr() net.Addr {
	a, _ := s.boundAddr.Load().(net.Addr)
	return a
}

// New constructs a Server. The engine handle passed in is owned by the
// Server from this point on: every accepted connection gets its own Clone,
// and Run closes the original handle once the accept loop has stopped and
// in-flight connections have drained. If Run fails to bind, it returns
// without closing the handle.
func New(addr string, p pool.ThreadPool, eng engine.Engine, logger zerolog.Logger, m *metrics.Metrics) *Server {
	return &Server{
		addr:     addr,
		pool:     p,
		engine:   eng,
		logger:   logger,
		metrics:  m,
		inFlight: waitgroup.New(),
	}
}

// Run binds the listener, installs a SIGINT/SIGTERM handler, and loops
// accepting connections until interrupted or ctx is cancelled. It blocks
// until the accept loop exits and every dispatched connection has
// finished.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "bind %s", s.addr)
	}
	defer listener.Close()

	tcpListener, ok := listener.(*net.TCPListener)
	if !ok {
		return errors.New("listener is not a *net.TCPListener")
	}
	s.boundAddr.Store(tcpListener.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Debug().Str("signal", sig.String()).Msg("interrupt received")
			s.interrupt.Store(true)
		case <-ctx.Done():
			s.interrupt.Store(true)
		}
	}()

	s.logger.Info().Str("addr", s.addr).Msg("server started")

	for {
		if s.interrupt.Load() {
			s.logger.Debug().Msg("stop server")
			break
		}

		tcpListener.SetDeadline(time.Now().Add(acceptPollInterval))
		conn, err := tcpListener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			s.logger.Warn().Err(err).Msg("accept error")
			continue
		}

		handle, err := s.engine.Clone()
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to clone engine handle for connection")
			conn.Close()
			continue
		}

		s.inFlight.Add(1)
		s.metrics.WorkerStarted()
		s.pool.Spawn(func() {
			defer s.inFlight.Done()
			defer s.metrics.WorkerFinished()
			s.handleConn(conn, handle)
		})
	}

	s.inFlight.Wait()
	return s.engine.Close()
}

func (s *Server) handleConn(conn net.Conn, handle engine.Engine) {
	defer conn.Close()
	defer handle.Close()

	id := uuid.New().String()
	log := s.logger.With().Str("conn", id).Logger()

	req, err := protocol.DecodeRequest(json.NewDecoder(conn))
	if err != nil {
		log.Warn().Err(err).Msg("failed to decode request")
		return
	}

	log.Debug().Str("kind", string(req.Kind)).Str("key", req.Key).Msg("dispatching request")
	s.metrics.ObserveRequest(string(req.Kind))

	resp := s.dispatch(handle, req, log)

	if err := protocol.EncodeResponse(conn, resp); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) dispatch(handle engine.Engine, req protocol.Request, log zerolog.Logger) protocol.Response {
	switch req.Kind {
	case protocol.RequestGet:
		value, ok, err := handle.Get(req.Key)
		if err != nil {
			return protocol.ErrResponse(err.Error())
		}
		if !ok {
			return protocol.OkResponse(nil)
		}
		return protocol.OkResponse(&value)

	case protocol.RequestSet:
		if len(req.Value) > config.MaxValueSizeWarn {
			log.Warn().Int("bytes", len(req.Value)).Msg("value exceeds soft size guideline")
		}
		if err := handle.Set(req.Key, req.Value); err != nil {
			return protocol.ErrResponse(err.Error())
		}
		return protocol.OkResponse(nil)

	case protocol.RequestRm:
		if err := handle.Remove(req.Key); err != nil {
			if errors.Is(err, engine.ErrKeyNotFound) {
				return protocol.ErrResponse(protocol.ErrKeyNotFoundMessage)
			}
			return protocol.ErrResponse(err.Error())
		}
		return protocol.OkResponse(nil)

	default:
		log.Warn().Str("kind", string(req.Kind)).Msg("unknown request kind")
		return protocol.ErrResponse("unknown request kind")
	}
}
