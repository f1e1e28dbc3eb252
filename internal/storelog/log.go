// Package storelog is the append-only log abstraction underneath the KV
// engine: the append path, the random-access read path, rotation ("dump"),
// compaction, and reindexing, all layered over the datafile registry.
package storelog

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/apostoln/kvs/internal/datafile"
	"github.com/apostoln/kvs/internal/index"
	"github.com/apostoln/kvs/internal/location"
	"github.com/apostoln/kvs/internal/protocol"
)

// Log is the persistent sequence of records on disk for one store
// directory. There is exactly one active, writable datafile and some
// number of immutable, serially-numbered passive datafiles.
//
// The write lock (mu) guards the active file handle and the current append
// offset. It is held across the offset-read, the write and the flush of an
// append so that no two appends overlap or observe one another's partial
// offsets, and is reused by Rotate and Compact since both mutate the same
// state.
type Log struct {
	mu         sync.Mutex
	dirPath    string
	active     *os.File
	offset     uint64
	lastSerial atomic.Uint64

	logger zerolog.Logger
}

// Open opens (creating if necessary) the log rooted at dirPath.
func Open(dirPath string, logger zerolog.Logger) (*Log, error) {
	last, err := datafile.LastSerial(dirPath)
	if err != nil {
		return nil, errors.Wrap(ErrStorageFile, err.Error())
	}

	active, err := os.OpenFile(datafile.ActivePath(dirPath), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrap(ErrStorageFile, err.Error())
	}
	info, err := active.Stat()
	if err != nil {
		active.Close()
		return nil, errors.Wrap(ErrStorageFile, err.Error())
	}

	l := &Log{
		dirPath: dirPath,
		active:  active,
		offset:  uint64(info.Size()),
		logger:  logger,
	}
	l.lastSerial.Store(last)
	return l, nil
}

// DirPath returns the store directory this Log is rooted at.
func (l *Log) DirPath() string { return l.dirPath }

// LastSerial returns the greatest passive serial number currently known.
func (l *Log) LastSerial() uint64 { return l.lastSerial.Load() }

// Append serializes record to the end of the active file and returns its
// Location. Atomic with respect to other appends: the offset-read, the
// write and the flush all happen while mu is held.
func (l *Log) Append(record protocol.Record) (location.Location, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return location.Location{}, errors.Wrap(protocol.ErrSerde, err.Error())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pos := l.offset
	n, err := l.active.WriteAt(data, int64(pos))
	if err != nil {
		return location.Location{}, errors.Wrap(ErrStorageFile, err.Error())
	}
	l.offset += uint64(n)

	l.logger.Debug().Uint64("offset", pos).Str("kind", string(record.Kind)).Msg("appended record")
	return location.Location{File: location.ActiveFile, Offset: pos}, nil
}

// Close releases the active file handle. It does not affect passive files,
// which are opened on demand.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.active.Close(); err != nil {
		return errors.Wrap(ErrStorageFile, err.Error())
	}
	return nil
}

// Rotate moves the active file to a new passive file and opens a fresh
// empty active file. A no-op (no serial bump) when the active file is
// empty. Every Location that referred to the active file is invalidated by
// rotation; callers must retarget affected index entries to the returned
// serial number before any subsequent read, which is exactly what
// kvstore.Engine's compact path does.
func (l *Log) Rotate() (rotated bool, newSerial uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.offset == 0 {
		l.logger.Debug().Msg("rotate: active file empty, no-op")
		return false, 0, nil
	}

	if err := l.active.Close(); err != nil {
		return false, 0, errors.Wrap(ErrStorageFile, err.Error())
	}

	newSerial = l.lastSerial.Add(1)
	passivePath := datafile.PassivePath(l.dirPath, newSerial)
	if err := os.Rename(datafile.ActivePath(l.dirPath), passivePath); err != nil {
		return false, 0, errors.Wrap(ErrStorageFile, err.Error())
	}

	active, err := os.OpenFile(datafile.ActivePath(l.dirPath), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return false, 0, errors.Wrap(ErrStorageFile, err.Error())
	}
	l.active = active
	l.offset = 0

	l.logger.Debug().Uint64("serial", newSerial).Msg("rotated active file to passive")
	return true, newSerial, nil
}

// RetargetActive rewrites every index entry currently pointing at the
// active file to point at newSerial instead. This is the O(k) alternative
// to a full Reindex that Rotate's contract requires after a successful
// rotation.
func RetargetActive(idx *index.Index, newSerial uint64) {
	for _, e := range idx.Iter() {
		if e.Loc.File.Active {
			idx.Insert(e.Key, location.Location{File: location.PassiveFile(newSerial), Offset: e.Loc.Offset})
		}
	}
}
