// Package kvstore is the log-structured Engine: an append-only log plus an
// in-memory index. Compaction runs synchronously inside Set/Remove once the
// obsolete-record counter exceeds config.RecordsLimit, and once more when
// the last handle is closed.
package kvstore

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/apostoln/kvs/internal/config"
	"github.com/apostoln/kvs/internal/engine"
	"github.com/apostoln/kvs/internal/index"
	"github.com/apostoln/kvs/internal/metrics"
	"github.com/apostoln/kvs/internal/protocol"
	"github.com/apostoln/kvs/internal/storelog"
)

// shared is the state every clone of an open store holds a reference to.
// Exactly one exists per store directory; Engine handles are thin wrappers
// around a pointer to it plus a reference count.
type shared struct {
	mu        sync.Mutex
	log       *storelog.Log
	index     *index.Index
	obsolete  int
	backupDir string
	refs      int
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// Engine is a handle onto an open store directory. Handles are cheap to
// Clone and must each be Closed exactly once; the underlying store is torn
// down (with a final compaction) only when the last handle closes.
type Engine struct {
	s *shared
}

var _ engine.Engine = (*Engine)(nil)

// Open opens or creates the log-structured store rooted at dir, replaying
// every datafile to rebuild the index.
func Open(dir string, logger zerolog.Logger) (*Engine, error) {
	log, err := storelog.Open(dir, logger)
	if err != nil {
		return nil, err
	}

	idx := index.New()
	if err := log.Reindex(idx); err != nil {
		log.Close()
		return nil, err
	}

	s := &shared{
		log:    log,
		index:  idx,
		refs:   1,
		logger: logger,
	}
	return &Engine{s: s}, nil
}

// SetBackupsDir enables pre-compaction backups of passive files into dir.
func (e *Engine) SetBackupsDir(dir string) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.backupDir = dir
}

// SetMetrics wires in the collectors compaction reports to. A nil value
// (the default) is safe: Metrics methods are no-ops on a nil receiver.
func (e *Engine) SetMetrics(m *metrics.Metrics) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.metrics = m
}

// Get returns the current value for key, reading through the index to the
// log.
func (e *Engine) Get(key string) (string, bool, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	loc, ok := e.s.index.Get(key)
	if !ok {
		return "", false, nil
	}
	rec, err := e.s.log.Read(loc)
	if err != nil {
		return "", false, err
	}
	if rec.Kind != protocol.KindSet {
		return "", false, errors.Wrapf(storelog.ErrUnexpectedCommand, "key %q", key)
	}
	return rec.Value, true, nil
}

// Set appends a Set record, updates the index, and triggers compaction once
// the obsolete-record counter crosses config.RecordsLimit.
func (e *Engine) Set(key, value string) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	loc, err := e.s.log.Append(protocol.SetRecord(key, value))
	if err != nil {
		return err
	}
	_, overwrote := e.s.index.Insert(key, loc)
	if overwrote {
		e.s.obsolete++
		e.s.metrics.SetObsoleteRecords(e.s.obsolete)
	}

	if e.s.obsolete > config.RecordsLimit {
		if err := e.s.compactLocked(); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes key. Checks presence before appending anything, so a
// remove of a missing key never grows the log.
func (e *Engine) Remove(key string) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	if _, ok := e.s.index.Get(key); !ok {
		return engine.ErrKeyNotFound
	}

	if _, err := e.s.log.Append(protocol.RemoveRecord(key)); err != nil {
		return err
	}
	e.s.index.Remove(key)
	e.s.obsolete++
	e.s.metrics.SetObsoleteRecords(e.s.obsolete)

	if e.s.obsolete > config.RecordsLimit {
		if err := e.s.compactLocked(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns another handle sharing this store's state. The returned
// handle must be Closed independently.
func (e *Engine) Clone() (engine.Engine, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.refs++
	return &Engine{s: e.s}, nil
}

// Close releases this handle. When it is the last outstanding handle, a
// final compaction is attempted before the log is closed.
func (e *Engine) Close() error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	e.s.refs--
	if e.s.refs > 0 {
		return nil
	}

	if err := e.s.compactLocked(); err != nil {
		e.s.logger.Warn().Err(err).Msg("final compaction failed on close")
	}
	return e.s.log.Close()
}

// compactLocked runs the compaction algorithm. Caller must hold s.mu.
func (s *shared) compactLocked() error {
	start := time.Now()

	rotated, newSerial, err := s.log.Rotate()
	if err != nil {
		return err
	}
	if rotated {
		storelog.RetargetActive(s.index, newSerial)
	}

	survivors := make([]protocol.Record, 0, s.index.Len())
	for _, e := range s.index.Iter() {
		rec, err := s.log.Read(e.Loc)
		if err != nil {
			return err
		}
		if rec.Kind != protocol.KindSet {
			return errors.Wrapf(storelog.ErrUnexpectedCommand, "key %q", e.Key)
		}
		survivors = append(survivors, rec)
	}

	if s.backupDir != "" {
		if err := backupPassives(s.log.DirPath(), s.backupDir, s.log.LastSerial()); err != nil {
			return err
		}
	}

	if err := s.log.Compact(survivors); err != nil {
		return err
	}
	if err := s.log.Reindex(s.index); err != nil {
		return err
	}

	s.obsolete = 0
	elapsed := time.Since(start)
	s.metrics.ObserveCompaction(elapsed.Seconds())
	s.metrics.SetObsoleteRecords(0)
	s.logger.Debug().
		Dur("elapsed", elapsed).
		Int("survivors", len(survivors)).
		Msg("compaction complete")
	return nil
}
