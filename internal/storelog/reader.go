package storelog

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/apostoln/kvs/internal/datafile"
	"github.com/apostoln/kvs/internal/location"
	"github.com/apostoln/kvs/internal/protocol"
)

// pathFor resolves loc.File to a path within dir.
func pathFor(dir string, f location.File) string {
	if f.Active {
		return datafile.ActivePath(dir)
	}
	return datafile.PassivePath(dir, f.Serial)
}

// Read opens (never pools or shares) a fresh reader for the file identified
// by loc, seeks to its offset and decodes exactly one record. Readers never
// share a seek cursor with each other or with the appender: every call gets
// its own file descriptor.
func (l *Log) Read(loc location.Location) (protocol.Record, error) {
	path := pathFor(l.dirPath, loc.File)
	f, err := os.Open(path)
	if err != nil {
		return protocol.Record{}, errors.Wrap(ErrStorageFile, err.Error())
	}
	defer f.Close()

	if _, err := f.Seek(int64(loc.Offset), 0); err != nil {
		return protocol.Record{}, errors.Wrap(ErrStorageFile, err.Error())
	}

	dec := json.NewDecoder(f)
	var rec protocol.Record
	if err := dec.Decode(&rec); err != nil {
		return protocol.Record{}, errors.Wrap(protocol.ErrSerde, err.Error())
	}
	return rec, nil
}
