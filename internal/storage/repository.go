// Package storage defines the sink contract and a small factory so the
// pipeline stays backend-agnostic. Backends register themselves in init;
// import internal/storage/all to link every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is a bulk-insert handle on one destination table.
type Repository interface {
	// CopyFrom inserts rows aligned to columns and returns the number of
	// rows written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs one SQL statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind    string
	DSN     string
	Table   string
	Columns []string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
