// Package ddl renders Postgres DDL for the output table.
package ddl

import (
	"context"
	"strings"

	gddl "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/ddl"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

// Dialect quotes identifiers with double quotes.
var Dialect = gddl.Dialect{Name: "postgres", QuoteIdent: quoteIdent}

func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// MapType returns the Postgres column type for k.
func MapType(k taxi.Kind) string {
	switch k {
	case taxi.KindInt:
		return "INTEGER"
	case taxi.KindBigInt:
		return "BIGINT"
	case taxi.KindDouble:
		return "DOUBLE PRECISION"
	case taxi.KindTimestamp:
		return "TIMESTAMP"
	case taxi.KindText:
		return "TEXT"
	}
	return ""
}

// CreateTableSQL renders CREATE TABLE for table with cols.
func CreateTableSQL(table string, cols []taxi.Column) (string, error) {
	def, err := gddl.FromColumns(table, cols, MapType)
	if err != nil {
		return "", err
	}
	return gddl.BuildCreateTableSQL(Dialect, def)
}

// Recreate drops table if it exists and creates it empty.
func Recreate(ctx context.Context, x gddl.Execer, table string, cols []taxi.Column) error {
	def, err := gddl.FromColumns(table, cols, MapType)
	if err != nil {
		return err
	}
	return gddl.Recreate(ctx, x, Dialect, def)
}
