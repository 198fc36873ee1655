// Package datasource resolves input URIs to byte sources.
//
// A Source streams bytes. Parquet needs random access, so OpenObject turns
// any Source into an Object. Sources with native random access hand out
// their own handle and the rest are spooled into a temporary file that is
// removed on Close.
//
// Supported URI forms:
//
//	/data/trips.parquet, file:///data/trips.parquet   local filesystem
//	s3://bucket/key                                  Amazon S3
//	http://host/path, https://host/path              HTTP GET
//	hdfs://namenode:8020/data/trips.parquet          HDFS
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/datasource/file"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/datasource/hdfs"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/datasource/httpds"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/datasource/s3"
)

// Source opens a stream of bytes.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Object is a random-access, sized handle on an input.
type Object interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// Options carries per-scheme settings.
type Options struct {
	S3Region string
	HDFSUser string
	HTTP     httpds.Config
}

// Function variables used as test seams.
var (
	newS3Source   = func(bucket, key, region string) (Source, error) { return s3.NewSource(bucket, key, region) }
	newHDFSSource = func(addr, path, user string) Source { return hdfs.NewSource(addr, path, user) }
)

// New returns the Source addressed by uri.
func New(uri string, opts Options) (Source, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("datasource: empty uri")
	}
	if !strings.Contains(uri, "://") {
		return file.NewLocal(uri), nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("datasource: parse %q: %w", uri, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return file.NewLocal(u.Path), nil
	case "s3", "s3a":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("datasource: s3 uri %q needs bucket and key", uri)
		}
		return newS3Source(u.Host, key, opts.S3Region)
	case "http", "https":
		return httpds.NewSource(httpds.NewClient(opts.HTTP), uri), nil
	case "hdfs":
		if u.Host == "" || u.Path == "" {
			return nil, fmt.Errorf("datasource: hdfs uri %q needs namenode and path", uri)
		}
		return newHDFSSource(u.Host, u.Path, opts.HDFSUser), nil
	default:
		return nil, fmt.Errorf("datasource: unsupported scheme %q in %q", u.Scheme, uri)
	}
}

// OpenObject returns a random-access handle on src. Local and HDFS files
// are read in place; everything else is spooled to disk first.
func OpenObject(ctx context.Context, src Source) (Object, error) {
	switch s := src.(type) {
	case *file.Local:
		o, err := s.OpenObject(ctx)
		if err != nil {
			return nil, err
		}
		return o, nil
	case *hdfs.Source:
		o, err := s.OpenObject(ctx)
		if err != nil {
			return nil, err
		}
		return o, nil
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return spool(ctx, rc)
}

// spooledObject is a temp file copy of a stream, deleted on Close.
type spooledObject struct {
	*os.File
	size int64
}

func (s *spooledObject) Size() int64 { return s.size }

func (s *spooledObject) Close() error {
	name := s.File.Name()
	err := s.File.Close()
	if rerr := os.Remove(name); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

func spool(ctx context.Context, r io.Reader) (Object, error) {
	f, err := os.CreateTemp("", "taxietl-spool-*")
	if err != nil {
		return nil, fmt.Errorf("datasource: create spool file: %w", err)
	}
	n, err := io.Copy(f, ctxReader{ctx: ctx, r: r})
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("datasource: spool: %w", err)
	}
	return &spooledObject{File: f, size: n}, nil
}

// ctxReader aborts a long copy once ctx is canceled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
