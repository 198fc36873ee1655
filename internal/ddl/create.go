// Package ddl defines a small, backend-agnostic model for SQL DDL and the
// helpers that render it. Backend packages (internal/storage/*/ddl) supply a
// Dialect and a type mapping; everything else is shared.
package ddl

import (
	"context"
	"fmt"
	"strings"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

// QuoteFQN quotes each dotted segment of a possibly schema-qualified name.
// Empty segments are ignored.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL renders a CREATE TABLE statement:
//
//	CREATE TABLE <fqn> (
//	  <col> <type> [NOT NULL],
//	  ...
//	);
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, name)
		}

		col := d.QuoteIdent(name) + " " + typ
		if !c.Nullable {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		d.QuoteFQN(fqn),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildDropTableSQL renders DROP TABLE IF EXISTS for fqn.
func BuildDropTableSQL(d Dialect, fqn string) (string, error) {
	q := d.QuoteFQN(fqn)
	if q == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	return "DROP TABLE IF EXISTS " + q + ";", nil
}

// FromColumns builds a TableDef for the output schema, mapping each logical
// kind through mapType. Every column is nullable.
func FromColumns(fqn string, cols []taxi.Column, mapType func(taxi.Kind) string) (TableDef, error) {
	if strings.TrimSpace(fqn) == "" {
		return TableDef{}, fmt.Errorf("ddl: table name must not be empty")
	}
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(cols))}
	for _, c := range cols {
		typ := mapType(c.Kind)
		if typ == "" {
			return TableDef{}, fmt.Errorf("ddl: column %s: no SQL type for kind %q", c.Name, c.Kind)
		}
		def.Columns = append(def.Columns, ColumnDef{Name: c.Name, SQLType: typ, Nullable: true})
	}
	return def, nil
}

// Execer runs a single SQL statement.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// Recreate drops def's table if it exists and creates it again, leaving an
// empty table ready for inserts.
func Recreate(ctx context.Context, x Execer, d Dialect, def TableDef) error {
	drop, err := BuildDropTableSQL(d, def.FQN)
	if err != nil {
		return err
	}
	create, err := BuildCreateTableSQL(d, def)
	if err != nil {
		return err
	}
	if err := x.Exec(ctx, drop); err != nil {
		return fmt.Errorf("drop table %s: %w", def.FQN, err)
	}
	if err := x.Exec(ctx, create); err != nil {
		return fmt.Errorf("create table %s: %w", def.FQN, err)
	}
	return nil
}
