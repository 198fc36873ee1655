package mysql

import (
	"context"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage"
	myddl "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage/mysql/ddl"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

// init registers the "mysql" backend with the factory.
func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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

	storage.RegisterDDL("mysql", func(ctx context.Context, repo storage.Repository, table string, cols []taxi.Column) error {
		return myddl.Recreate(ctx, repo, table, cols)
	})
}

// wrappedRepo adapts *mysql.Repository to storage.Repository and provides Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close closes the underlying connection pool.
func (w *wrappedRepo) Close() { w.closeFn() }
