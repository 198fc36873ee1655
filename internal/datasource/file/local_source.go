// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured filesystem path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for sequential reading. A context that is
// already done short-circuits before the filesystem is touched. Filesystem
// errors are wrapped with the path and still match errors.Is(err, os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Object is an open local file with its size captured at open time.
type Object struct {
	*os.File
	size int64
}

// Size returns the file length in bytes.
func (o *Object) Size() int64 { return o.size }

// OpenObject opens the file for random access.
func (l *Local) OpenObject(ctx context.Context) (*Object, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", l.path, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: is a directory", l.path)
	}
	return &Object{File: f, size: st.Size()}, nil
}
