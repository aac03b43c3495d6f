// Package storagesvc keeps uploaded files on the local filesystem or in an S3 bucket.
package storagesvc

import (
	"context"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

// maxRenames bounds the "_N" suffixes tried before giving up on a name.
const maxRenames = 1000

var errNameExhausted = errors.New("no free file name")

// NewStore returns the store of the configured backend.
func NewStore(ctx context.Context, conf *core.Config) (core.FileStore, error) {
	switch conf.Storage.Backend {
	case core.StorageFilesystem, "":
		return NewFilesystemStore(conf.Storage.Root)
	case core.StorageS3:
		return NewS3Store(ctx, conf.Storage.Bucket, conf.Storage.Region)
	default:
		return nil, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}

// cleanName validates a slash separated name relative to the store root.
func cleanName(name string) (string, error) {
	name = path.Clean("/" + strings.ReplaceAll(name, `\`, "/"))[1:]
	if name == "" || name == "." {
		return "", errors.New("empty file name")
	}
	return name, nil
}

// candidateName returns name for n == 0, otherwise name with "_n" inserted before the extension:
// AdditionForTasks/report.pdf -> AdditionForTasks/report_1.pdf
func candidateName(name string, n int) string {
	if n == 0 {
		return name
	}
	dir, base := path.Split(name)
	ext := path.Ext(base)
	if ext == base { // dot file
		ext = ""
	}
	return dir + strings.TrimSuffix(base, ext) + "_" + strconv.Itoa(n) + ext
}
