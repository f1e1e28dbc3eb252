// Package engine defines the capability every storage backend must provide
// and the errors common to all of them. Concrete backends live in the
// kvstore and boltengine subpackages.
package engine

import "github.com/pkg/errors"

// ErrKeyNotFound is returned by Remove (never by Get, which reports absence
// by returning ok=false) when the key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// Engine is the capability set a store directory must expose regardless of
// backend: get/set/remove, a cheap handle clone for sharing across
// connections, and a close that releases per-handle resources.
//
// Engine implementations are safe for concurrent use by multiple
// goroutines. Clone exists because Go has no destructor to hook "drop of
// the last handle": callers that fan a store out across worker goroutines
// must Clone a handle per goroutine and Close each one exactly once: the
// backend is only free to do final housekeeping once every clone has been
// closed.
type Engine interface {
	// Get returns the current value for key, or ok=false if absent.
	Get(key string) (value string, ok bool, err error)

	// Set inserts or overwrites key's value.
	Set(key, value string) error

	// Remove deletes key. Returns ErrKeyNotFound if the key is absent.
	Remove(key string) error

	// Clone returns a new handle to the same underlying store. The
	// returned handle must be Closed independently of the original.
	Clone() (Engine, error)

	// Close releases this handle. Once every clone of a store has been
	// closed, the backend may perform final housekeeping (e.g. a last
	// compaction).
	Close() error
}
