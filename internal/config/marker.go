package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrEngineMismatch is returned when a store directory's marker file names
// a different engine than the one being opened against it.
var ErrEngineMismatch = errors.New("store directory was created with a different engine")

// CheckOrWriteMarker enforces the engine-marker gate: if dir already has a
// marker file, it must name want or this returns ErrEngineMismatch without
// touching the directory. Otherwise the marker file is created naming
// want.
func CheckOrWriteMarker(dir string, want Engine) error {
	path := filepath.Join(dir, MarkerFileName)

	data, err := os.ReadFile(path)
	if err == nil {
		got := Engine(strings.TrimSpace(string(data)))
		if got != want {
			return errors.Wrapf(ErrEngineMismatch, "directory uses %q, requested %q", got, want)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrap(err, "read engine marker")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create store directory")
	}
	if err := os.WriteFile(path, []byte(want), 0o644); err != nil {
		return errors.Wrap(err, "write engine marker")
	}
	return nil
}
