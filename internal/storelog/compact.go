package storelog

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/apostoln/kvs/internal/config"
	"github.com/apostoln/kvs/internal/datafile"
	"github.com/apostoln/kvs/internal/index"
	"github.com/apostoln/kvs/internal/location"
	"github.com/apostoln/kvs/internal/protocol"
)

// Compact replaces every passive file in the log directory with a fresh
// chunked sequence holding exactly records, at most config.RecordsInCompacted
// per file, numbered from 1. The active file is untouched: anything
// appended to it during compaction is preserved.
//
// Safety against concurrent readers: each new passive file is written to a
// temporary name, fsynced, then renamed into its final numbered path. Since
// rename is atomic on the same filesystem, a reader that resolved a
// Location at serial k before compaction started either sees the new
// content at k (if a chunk was renamed onto that name) or fails with
// ErrStorageFile opening a file that no longer exists (if k exceeded the
// new file count) — both outcomes are admissible per the concurrency
// contract; neither is a transient "file missing" race on a name that is
// still supposed to exist.
func (l *Log) Compact(records []protocol.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	chunks := chunk(records, config.RecordsInCompacted)

	for i, recs := range chunks {
		serial := uint64(i + 1)
		if err := writePassiveChunk(l.dirPath, serial, recs); err != nil {
			return err
		}
	}

	newCount := uint64(len(chunks))
	if err := removeStaleSerials(l.dirPath, newCount); err != nil {
		return err
	}

	l.lastSerial.Store(newCount)
	l.logger.Debug().Uint64("passives", newCount).Int("records", len(records)).Msg("compacted log")
	return nil
}

func chunk(records []protocol.Record, size int) [][]protocol.Record {
	if len(records) == 0 {
		return nil
	}
	var chunks [][]protocol.Record
	for len(records) > 0 {
		n := size
		if n > len(records) {
			n = len(records)
		}
		chunks = append(chunks, records[:n])
		records = records[n:]
	}
	return chunks
}

func writePassiveChunk(dir string, serial uint64, records []protocol.Record) error {
	finalPath := datafile.PassivePath(dir, serial)
	tmpPath := finalPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(ErrStorageFile, err.Error())
	}

	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			f.Close()
			os.Remove(tmpPath)
			return errors.Wrap(protocol.ErrSerde, err.Error())
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return errors.Wrap(ErrStorageFile, err.Error())
		}
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return errors.Wrap(ErrStorageFile, err.Error())
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(ErrStorageFile, err.Error())
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return errors.Wrap(ErrStorageFile, err.Error())
	}
	return nil
}

func removeStaleSerials(dir string, newCount uint64) error {
	serials, err := datafile.ScanSerials(dir)
	if err != nil {
		return errors.Wrap(ErrStorageFile, err.Error())
	}
	for _, serial := range serials {
		if serial > newCount {
			if err := os.Remove(datafile.PassivePath(dir, serial)); err != nil && !os.IsNotExist(err) {
				return errors.Wrap(ErrStorageFile, err.Error())
			}
		}
	}
	return nil
}

// Reindex rebuilds idx from every passive file in ascending serial order,
// then the active file. Later writes win over earlier ones: a Set assigns
// the key, a Remove deletes it, and since the active file is scanned last
// its records are authoritative over any passive file.
func (l *Log) Reindex(idx *index.Index) error {
	l.mu.Lock()
	serials, err := datafile.ScanSerials(l.dirPath)
	l.mu.Unlock()
	if err != nil {
		return errors.Wrap(ErrStorageFile, err.Error())
	}

	fresh := make(map[string]location.Location)

	for _, serial := range serials {
		if err := reindexFile(fresh, datafile.PassivePath(l.dirPath, serial), location.PassiveFile(serial)); err != nil {
			return err
		}
	}
	if err := reindexFile(fresh, datafile.ActivePath(l.dirPath), location.ActiveFile); err != nil {
		return err
	}

	idx.Reset(fresh)
	return nil
}

func reindexFile(into map[string]location.Location, path string, file location.File) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(ErrStorageFile, err.Error())
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	for {
		pos := uint64(dec.InputOffset())
		var rec protocol.Record
		if err := dec.Decode(&rec); err != nil {
			if err.Error() == "EOF" {
				break
			}
			return errors.Wrap(protocol.ErrSerde, err.Error())
		}

		switch rec.Kind {
		case protocol.KindSet:
			into[rec.Key] = location.Location{File: file, Offset: pos}
		case protocol.KindRemove:
			delete(into, rec.Key)
		}
	}
	return nil
}
