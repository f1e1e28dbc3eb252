// Package location identifies where one record lives on disk: which datafile
// and what byte offset within it.
package location

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/apostoln/kvs/internal/config"
)

// ErrInvalidDatafileName is returned when a serial number is required from a
// path but the file stem is not a positive integer.
var ErrInvalidDatafileName = errors.New("invalid name of datafile")

// File identifies a datafile: either the sentinel active file or a passive
// file's serial number.
type File struct {
	// Active is true when this File refers to the store's single active,
	// writable datafile.
	Active bool

	// Serial is the passive file's serial number. Meaningless when Active
	// is true.
	Serial uint64
}

// ActiveFile is the File value identifying the active datafile.
var ActiveFile = File{Active: true}

// PassiveFile returns the File value identifying passive datafile n.
func PassiveFile(n uint64) File {
	return File{Serial: n}
}

// Location is a (file, byte-offset) pair sufficient to read exactly one
// record. It is only valid while the referenced file still exists at the
// same identity; rotation and compaction retarget or invalidate it.
type Location struct {
	File   File
	Offset uint64
}

// New builds a Location from an append/read offset and the path of the file
// that offset belongs to, classifying the path as active or passive.
func New(offset uint64, path string) (Location, error) {
	name := filepath.Base(path)
	if name == config.ActiveFileName {
		return Location{File: ActiveFile, Offset: offset}, nil
	}

	serial, err := SerialFromName(name)
	if err != nil {
		return Location{}, err
	}
	return Location{File: PassiveFile(serial), Offset: offset}, nil
}

// SerialFromName parses the serial number out of a passive file's base name
// (e.g. "42.passive" -> 42). Non-numeric stems fail with
// ErrInvalidDatafileName.
func SerialFromName(name string) (uint64, error) {
	stem := strings.TrimSuffix(name, "."+config.PassiveExt)
	if stem == name {
		// no passive extension: still try to parse the stem, callers that
		// already know they're looking at a passive file pass bare stems.
		stem = name
	}
	n, err := strconv.ParseUint(stem, 10, 64)
	if err != nil || n == 0 {
		return 0, errors.Wrapf(ErrInvalidDatafileName, "stem %q", stem)
	}
	return n, nil
}
