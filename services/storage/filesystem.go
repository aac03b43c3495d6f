package storagesvc

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

type FilesystemStore struct {
	root string
}

var _ core.FileStore = (*FilesystemStore)(nil)

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage root")
	}
	return &FilesystemStore{root: root}, nil
}

func (s *FilesystemStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func (s *FilesystemStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(s.path(name)), 0o755); err != nil {
		return "", errors.Wrap(err, "creating directory")
	}

	for n := 0; n < maxRenames; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := candidateName(name, n)
		f, err := os.OpenFile(s.path(candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", errors.Wrap(err, "creating file")
		}

		_, err = io.Copy(f, r)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(s.path(candidate))
			return "", errors.Wrap(err, "writing file")
		}
		return candidate, nil
	}
	return "", errNameExhausted
}

func (s *FilesystemStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, core.ErrFileNotFound
	}
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrFileNotFound
		}
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func (s *FilesystemStore) Delete(_ context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting file")
	}
	return nil
}

func (s *FilesystemStore) Exists(_ context.Context, name string) (bool, error) {
	name, err := cleanName(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(s.path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "checking file")
}
