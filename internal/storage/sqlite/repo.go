// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc driver. It performs batched INSERTs
// inside a transaction; SQLite has no bulk-load API like Postgres COPY, but
// one transaction per batch keeps throughput acceptable.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sqliteddl "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage/sqlite/ddl"

	_ "modernc.org/sqlite"
)

// Config holds SQLite repository configuration.
type Config struct {
	DSN     string
	Table   string
	Columns []string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
//
// DSN is passed directly to database/sql; for example:
//
//	"file:taxi.db?_pragma=busy_timeout(5000)"
//	"/var/lib/taxietl/trips.db"
//	":memory:"
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer; also keeps ":memory:" pointing at a single database.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// CopyFrom inserts rows into the configured table using a single
// transaction and a prepared INSERT statement.
//
// len(row) must equal len(columns) for every row. On error the transaction
// is rolled back and zero is returned.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		columns = r.cfg.Columns
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL(r.cfg.Table, columns))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: CopyFrom: row %d has %d values, want %d", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return int64(len(rows)), nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// DB exposes the handle for read-back in tests and tooling.
func (r *Repository) DB() *sql.DB { return r.db }

func insertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = sqliteddl.Dialect.QuoteIdent(c)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		sqliteddl.Dialect.QuoteFQN(table),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
	)
}
