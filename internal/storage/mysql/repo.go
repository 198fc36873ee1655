// Package mysql implements storage.Repository for MySQL and MariaDB using
// go-sql-driver/mysql. Batches are written as multi-row INSERT statements
// inside one transaction.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"

	myddl "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage/mysql/ddl"
)

// maxRowsPerStatement keeps placeholders well under the protocol limit of
// 65535 for the output schema.
const maxRowsPerStatement = 1000

// Config holds MySQL repository configuration.
type Config struct {
	DSN     string
	Table   string
	Columns []string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository validates the DSN, connects, pings, and returns a
// Repository with its Close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	dc, err := gomysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	// DATETIME columns must round-trip as time.Time.
	dc.ParseTime = true
	conn, err := gomysql.NewConnector(dc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(conn)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// CopyFrom inserts rows in chunks of maxRowsPerStatement within a single
// transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		columns = r.cfg.Columns
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	var total int64
	args := make([]any, 0, min(len(rows), maxRowsPerStatement)*len(columns))
	for start := 0; start < len(rows); start += maxRowsPerStatement {
		end := min(start+maxRowsPerStatement, len(rows))
		args = args[:0]
		for i, row := range rows[start:end] {
			if len(row) != len(columns) {
				rollback()
				return 0, fmt.Errorf("mysql: row %d has %d values, want %d", start+i, len(row), len(columns))
			}
			args = append(args, row...)
		}
		res, err := tx.ExecContext(ctx, insertSQL(r.cfg.Table, columns, end-start), args...)
		if err != nil {
			rollback()
			return 0, describe(fmt.Sprintf("insert rows %d-%d", start, end-1), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			rollback()
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return describe("exec", err)
	}
	return nil
}

// describe adds the server error number, which is what operators search for.
func describe(op string, err error) error {
	var me *gomysql.MySQLError
	if errors.As(err, &me) {
		return fmt.Errorf("%s: mysql error %d: %w", op, me.Number, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// insertSQL renders INSERT INTO t (c1, c2) VALUES (?, ?), (?, ?) ... for n rows.
func insertSQL(table string, columns []string, n int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = myddl.Dialect.QuoteIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var sb strings.Builder
	sb.Grow(32 + len(table) + len(columns)*16 + n*(len(tuple)+2))
	sb.WriteString("INSERT INTO ")
	sb.WriteString(myddl.Dialect.QuoteFQN(table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES ")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
	}
	return sb.String()
}
