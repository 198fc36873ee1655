package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLocalOpen covers success, missing file, and pre-canceled context.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	type tc struct {
		name            string
		prepare         func(t *testing.T) string // returns path to open
		makeCtx         func(t *testing.T) context.Context
		wantErrIs       error  // checked via errors.Is
		wantErrContains string // substring expected in error message
		wantContent     string // if non-empty, verifies read content on success
	}

	cases := []tc{
		{
			name: "success_reads_content",
			prepare: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				p := filepath.Join(dir, "data.txt")
				const payload = "hello\nworld"
				if err := os.WriteFile(p, []byte(payload), 0o644); err != nil {
					t.Fatalf("write test file: %v", err)
				}
				return p
			},
			makeCtx:     func(t *testing.T) context.Context { return context.Background() },
			wantContent: "hello\nworld",
		},
		{
			name: "missing_file_errors_with_wrapping",
			prepare: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(t.TempDir(), "missing.txt")
			},
			makeCtx:         func(t *testing.T) context.Context { return context.Background() },
			wantErrIs:       os.ErrNotExist,
			wantErrContains: "open ",
		},
		{
			name: "pre_canceled_context_short_circuits",
			prepare: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				p := filepath.Join(dir, "data.txt")
				if err := os.WriteFile(p, []byte("ignored"), 0o644); err != nil {
					t.Fatalf("write test file: %v", err)
				}
				return p
			},
			makeCtx: func(t *testing.T) context.Context {
				t.Helper()
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			path := c.prepare(t)
			ctx := c.makeCtx(t)

			rc, err := NewLocal(path).Open(ctx)

			// Error expectations.
			if c.wantErrIs != nil {
				if err == nil {
					t.Fatalf("expected error %v, got nil", c.wantErrIs)
				}
				if !errors.Is(err, c.wantErrIs) {
					t.Fatalf("errors.Is(%v, %v) = false", err, c.wantErrIs)
				}
				if c.wantErrContains != "" && !strings.Contains(err.Error(), c.wantErrContains) {
					t.Fatalf("error %q does not contain substring %q", err, c.wantErrContains)
				}
				// Ensure no ReadCloser was returned on error.
				if rc != nil {
					_ = rc.Close()
					t.Fatalf("got non-nil ReadCloser on error: %T", rc)
				}
				return
			}

			// Success expectations.
			if err != nil {
				t.Fatalf("Open() unexpected error: %v", err)
			}
			defer rc.Close()

			if c.wantContent != "" {
				got, rerr := io.ReadAll(rc)
				if rerr != nil {
					t.Fatalf("reading: %v", rerr)
				}
				if string(got) != c.wantContent {
					t.Fatalf("content mismatch: got %q, want %q", string(got), c.wantContent)
				}
			}
		})
	}
}

func TestLocalOpenObject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "trips.parquet")
	if err := os.WriteFile(p, []byte("PAR1-body-PAR1"), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	obj, err := NewLocal(p).OpenObject(context.Background())
	if err != nil {
		t.Fatalf("OpenObject: %v", err)
	}
	defer obj.Close()

	if obj.Size() != 14 {
		t.Fatalf("Size() = %d, want 14", obj.Size())
	}
	buf := make([]byte, 4)
	if _, err := obj.ReadAt(buf, 10); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "PAR1" {
		t.Fatalf("ReadAt tail = %q, want PAR1", buf)
	}
}

func TestLocalOpenObject_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	if _, err := NewLocal(filepath.Join(dir, "missing")).OpenObject(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: err = %v, want os.ErrNotExist", err)
	}
	if _, err := NewLocal(dir).OpenObject(context.Background()); err == nil || !strings.Contains(err.Error(), "directory") {
		t.Fatalf("directory: err = %v, want directory error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal(dir).OpenObject(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled: err = %v, want context.Canceled", err)
	}
}

// BenchmarkLocalOpen_Success measures the cost of opening a small file.
func BenchmarkLocalOpen_Success(b *testing.B) {
	dir := b.TempDir()
	p := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(p, []byte("payload"), 0o644); err != nil {
		b.Fatalf("write test file: %v", err)
	}

	src := NewLocal(p)
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc, err := src.Open(ctx)
		if err != nil {
			b.Fatal(err)
		}
		if err := rc.Close(); err != nil {
			b.Fatal(err)
		}
	}
}
