// Package boltengine implements the Engine capability set over a single
// go.etcd.io/bbolt database: an interchangeable B-tree backend offered
// behind the same interface as the log-structured kvstore engine. bbolt
// manages its own on-disk reclamation, so this backend has no compaction
// step and no obsolete-record counter of its own.
package boltengine

import (
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/apostoln/kvs/internal/config"
	"github.com/apostoln/kvs/internal/engine"
)

var bucketName = []byte("kvs")

// ErrBolt wraps any bbolt transaction failure.
var ErrBolt = errors.New("bolt storage error")

type shared struct {
	mu   sync.Mutex
	db   *bbolt.DB
	refs int
}

// Engine is a handle onto an open bbolt-backed store. Clone/Close behave
// exactly as kvstore.Engine's do, even though bbolt needs no final
// compaction: the last handle closing simply closes the database file.
type Engine struct {
	s *shared
}

var _ engine.Engine = (*Engine)(nil)

// Open opens or creates the bbolt database file "data.bolt" within dir.
func Open(dir string) (*Engine, error) {
	db, err := bbolt.Open(filepath.Join(dir, "data.bolt"), 0o644, nil)
	if err != nil {
		return nil, errors.Wrap(ErrBolt, err.Error())
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(ErrBolt, err.Error())
	}

	return &Engine{s: &shared{db: db, refs: 1}}, nil
}

// Get returns the current value for key.
func (e *Engine) Get(key string) (string, bool, error) {
	var value string
	var ok bool
	err := e.s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			value = string(v)
			ok = true
		}
		return nil
	})
	if err != nil {
		return "", false, errors.Wrap(ErrBolt, err.Error())
	}
	return value, ok, nil
}

// Set inserts or overwrites key's value.
func (e *Engine) Set(key, value string) error {
	err := e.s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return errors.Wrap(ErrBolt, err.Error())
	}
	return nil
}

// Remove deletes key, returning engine.ErrKeyNotFound if it was absent.
func (e *Engine) Remove(key string) error {
	err := e.s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(key)) == nil {
			return engine.ErrKeyNotFound
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		if errors.Is(err, engine.ErrKeyNotFound) {
			return engine.ErrKeyNotFound
		}
		return errors.Wrap(ErrBolt, err.Error())
	}
	return nil
}

// Clone returns another handle sharing the same *bbolt.DB. bbolt's
// transactions are themselves safe for concurrent use, so clones need no
// additional synchronization beyond the shared reference count.
func (e *Engine) Clone() (engine.Engine, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.refs++
	return &Engine{s: e.s}, nil
}

// Close releases this handle, closing the database once it is the last
// one outstanding.
func (e *Engine) Close() error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	e.s.refs--
	if e.s.refs > 0 {
		return nil
	}
	if err := e.s.db.Close(); err != nil {
		return errors.Wrap(ErrBolt, err.Error())
	}
	return nil
}

// ObsoleteRecords always reports 0: bbolt reclaims free pages itself and
// never accumulates the log-structured backend's notion of obsolete
// records.
func (e *Engine) ObsoleteRecords() int { return 0 }

// MarkerEngine is the config.Engine value this backend registers itself
// under in a store directory's marker file.
const MarkerEngine = config.EngineBolt
