// Package index implements the in-memory key -> Location map that gives the
// engine O(1) lookups without scanning the log. It is reconstructable from
// the datafiles alone; it exists purely as an accelerator.
package index

import (
	"sync"

	"github.com/apostoln/kvs/internal/location"
)

// Index is a concurrent map from key to Location. Get/Insert/Remove are
// linearizable per-key and safe under arbitrary parallelism; Iter is only
// weakly consistent, which is all the compaction scan requires.
type Index struct {
	mu sync.Mutex
	m  map[string]location.Location
}

// New returns an empty Index.
func New() *Index {
	return &Index{m: make(map[string]location.Location)}
}

// Get returns the current Location for key, if any.
func (idx *Index) Get(key string) (location.Location, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	loc, ok := idx.m[key]
	return loc, ok
}

// Insert sets key's Location, returning the previous value if there was
// one.
func (idx *Index) Insert(key string, loc location.Location) (location.Location, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	prev, ok := idx.m[key]
	idx.m[key] = loc
	return prev, ok
}

// Remove deletes key, returning its prior Location if present.
func (idx *Index) Remove(key string) (location.Location, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	prev, ok := idx.m[key]
	if ok {
		delete(idx.m, key)
	}
	return prev, ok
}

// Entry is one key/Location pair returned by Iter.
type Entry struct {
	Key string
	Loc location.Location
}

// Iter returns a snapshot of every key/Location pair present at the moment
// it is called. The snapshot need not be a consistent global view: it is
// only required to visit every key present throughout the scan, which a
// single lock acquisition trivially satisfies since Go maps have no
// "torn" intermediate state visible to other goroutines.
func (idx *Index) Iter() []Entry {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	entries := make([]Entry, 0, len(idx.m))
	for k, v := range idx.m {
		entries = append(entries, Entry{Key: k, Loc: v})
	}
	return entries
}

// Reset clears the index and replaces its contents atomically with m.
func (idx *Index) Reset(m map[string]location.Location) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.m = m
}

// Len returns the number of keys currently indexed.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.m)
}
