package kvstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/apostoln/kvs/internal/config"
	"github.com/apostoln/kvs/internal/storelog"
)

// backupPassives copies passive files numbered 1..lastSerial (inclusive)
// from srcDir into a fresh directory under backupsDir, before compaction
// rewrites them. It runs after rotation, so the newest passive (the former
// active file) is part of the copy.
func backupPassives(srcDir, backupsDir string, lastSerial uint64) error {
	dest := filepath.Join(backupsDir, fmt.Sprintf("pre_compact_backup_%d", time.Now().UnixMicro()))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrap(storelog.ErrStorageFile, err.Error())
	}

	for serial := uint64(1); serial <= lastSerial; serial++ {
		name := fmt.Sprintf("%d.%s", serial, config.PassiveExt)
		if err := copyFile(filepath.Join(srcDir, name), filepath.Join(dest, name)); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(storelog.ErrStorageFile, err.Error())
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(storelog.ErrStorageFile, err.Error())
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrap(storelog.ErrStorageFile, err.Error())
	}
	return out.Sync()
}
