package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
)

// LocalStore writes blobs to a directory of the local filesystem.
// References are file paths. Files are lost with ephemeral disks.
type LocalStore struct {
	dir string
}

var _ core.BlobStore = (*LocalStore)(nil)

func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "resolving blob dir")
	}
	if err = os.MkdirAll(abs, 0o750); err != nil {
		return nil, errors.Wrap(err, "creating blob dir")
	}
	return &LocalStore{dir: abs}, nil
}

func (s *LocalStore) Put(_ context.Context, filename, _ string, r io.Reader) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%d-%s", time.Now().UnixMilli(), safeName(filename)))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", errors.Wrap(err, "creating blob")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", errors.Wrap(err, "writing blob")
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing blob")
	}
	return path, nil
}

// Get opens a blob previously returned by Put. References outside the store's directory are refused.
func (s *LocalStore) Get(_ context.Context, ref string) (io.ReadCloser, error) {
	path := filepath.Clean(ref)
	if !strings.HasPrefix(path, s.dir+string(filepath.Separator)) {
		return nil, errors.Errorf("blob %q is outside of %s", ref, s.dir)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening blob")
	}
	return f, nil
}

// safeName keeps the base name of an uploaded file, without path separators or spaces.
func safeName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == os.PathSeparator || r < ' ':
			return -1
		case r == ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "proof"
	}
	return name
}
