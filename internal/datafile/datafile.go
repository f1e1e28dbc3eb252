// Package datafile owns the naming and directory scanning of a store's
// on-disk files: the single active file and the monotonically numbered
// sequence of passive files.
package datafile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/apostoln/kvs/internal/config"
	"github.com/apostoln/kvs/internal/location"
)

// ActivePath returns the path of the active datafile within dir.
func ActivePath(dir string) string {
	return filepath.Join(dir, config.ActiveFileName)
}

// PassivePath returns the path of passive datafile n within dir.
func PassivePath(dir string, n uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.%s", n, config.PassiveExt))
}

// ScanSerials lists the serial numbers of every passive file present in dir,
// in ascending order. Entries whose stem does not parse as a positive
// integer are ignored, per spec: only the active file's own fixed name is a
// recognized non-numeric entry.
func ScanSerials(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var serials []uint64
	for _, e := range entries {
		if e.IsDir() || e.Name() == config.ActiveFileName {
			continue
		}
		n, err := location.SerialFromName(e.Name())
		if err != nil {
			continue
		}
		serials = append(serials, n)
	}

	sort.Slice(serials, func(i, j int) bool { return serials[i] < serials[j] })
	return serials, nil
}

// LastSerial returns the greatest serial number present in dir, or 0 if
// there are no passive files yet.
func LastSerial(dir string) (uint64, error) {
	serials, err := ScanSerials(dir)
	if err != nil {
		return 0, err
	}
	if len(serials) == 0 {
		return 0, nil
	}
	return serials[len(serials)-1], nil
}
