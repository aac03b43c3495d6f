package core

import (
	"context"
	"errors"
	"io"
)

var ErrFileNotFound = errors.New("file not found")

// FileStore is any backend uploaded files can be kept in (see services/storage).
// Names are slash separated paths relative to the store root.
type FileStore interface {
	// Save writes r under name and returns the name actually used: an existing file is never overwritten,
	// a "_N" suffix is added before the extension instead.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	// Open returns ErrFileNotFound when name does not exist.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}
