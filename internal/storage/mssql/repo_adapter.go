package mssql

import (
	"context"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage"
	msddl "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage/mssql/ddl"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:     cfg.DSN,
			Table:   cfg.Table,
			Columns: cfg.Columns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("mssql", func(ctx context.Context, repo storage.Repository, table string, cols []taxi.Column) error {
		return msddl.Recreate(ctx, repo, table, cols)
	})
}

// wrappedRepo adapts *mssql.Repository to storage.Repository and provides Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() { w.closeFn() }
