// Package postgres implements storage.Repository on pgx v5. Rows are
// streamed with the COPY protocol straight into the destination table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN     string   // connection string for pgxpool
	Table   string   // possibly schema-qualified target table, e.g. "public.yellow_trips"
	Columns []string // ordered columns for COPY
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository connects, pings, and returns a Repository along with the
// function that releases the pool.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, pool.Close, nil
}

// CopyFrom streams rows into the configured table with COPY.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		columns = r.cfg.Columns
	}
	n, err := r.pool.CopyFrom(ctx, splitFQN(r.cfg.Table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, describe("copy into "+r.cfg.Table, err)
	}
	return n, nil
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	if err != nil {
		return describe("exec", err)
	}
	return nil
}

// describe surfaces the server-side detail pgx keeps on *pgconn.PgError.
func describe(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s: %s (%s): %w", op, pgErr.Detail, pgErr.SQLState(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			id = append(id, p)
		}
	}
	return id
}
