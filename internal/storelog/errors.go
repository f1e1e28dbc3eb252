package storelog

import "github.com/pkg/errors"

// ErrStorageFile wraps any I/O failure against the store directory or its
// datafiles.
var ErrStorageFile = errors.New("storage file error")

// ErrUnexpectedCommand is returned when a Location resolves to a record of
// the wrong shape, signalling index/log divergence.
var ErrUnexpectedCommand = errors.New("unexpected command")
