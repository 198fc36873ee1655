// Package hdfs reads files from an HDFS cluster.
package hdfs

import (
	"context"
	"fmt"
	"io"

	"github.com/colinmarc/hdfs/v2"
)

// Source is a single HDFS file. The namenode connection is made lazily on
// Open and released when the returned reader is closed.
type Source struct {
	addr string
	path string
	user string
}

// NewSource returns a Source for path on the namenode at addr.
func NewSource(addr, path, user string) *Source {
	return &Source{addr: addr, path: path, user: user}
}

// Name returns the hdfs:// URI of the file.
func (s *Source) Name() string { return "hdfs://" + s.addr + s.path }

// dial is swapped in tests.
var dial = func(addr, user string) (*hdfs.Client, error) {
	return hdfs.NewClient(hdfs.ClientOptions{Addresses: []string{addr}, User: user})
}

// Object is an open HDFS file. Closing it also closes the client.
type Object struct {
	*hdfs.FileReader
	client *hdfs.Client
}

// Size returns the file length in bytes.
func (o *Object) Size() int64 { return o.FileReader.Stat().Size() }

// Close releases the file and its namenode connection.
func (o *Object) Close() error {
	err := o.FileReader.Close()
	if cerr := o.client.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Open opens the file for sequential reading.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	o, err := s.OpenObject(ctx)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// OpenObject opens the file for random access.
func (s *Source) OpenObject(ctx context.Context) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := dial(s.addr, s.user)
	if err != nil {
		return nil, fmt.Errorf("hdfs: connect %s: %w", s.addr, err)
	}
	f, err := c.Open(s.path)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("open %s: %w", s.Name(), err)
	}
	if f.Stat().IsDir() {
		_ = f.Close()
		_ = c.Close()
		return nil, fmt.Errorf("open %s: is a directory", s.Name())
	}
	return &Object{FileReader: f, client: c}, nil
}
