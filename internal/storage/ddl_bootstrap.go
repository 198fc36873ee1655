package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

// Recreator drops table if it exists and creates it with columns, using
// the backend's type mapping and quoting.
type Recreator func(ctx context.Context, repo Repository, table string, columns []taxi.Column) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]Recreator{}
)

// RegisterDDL installs (or replaces) the Recreator for kind.
func RegisterDDL(kind string, fn Recreator) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// RecreateTable replaces the destination table with an empty one. This is
// the first half of an overwrite; the rows follow through CopyFrom.
func RecreateTable(ctx context.Context, kind string, repo Repository, table string, columns []taxi.Column) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL recreator registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, table, columns)
}
