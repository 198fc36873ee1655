// Package ddl renders SQLite DDL for the output table.
package ddl

import (
	"context"
	"strings"

	gddl "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/ddl"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

// Dialect quotes identifiers with double quotes.
var Dialect = gddl.Dialect{Name: "sqlite", QuoteIdent: quoteIdent}

func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// MapType returns the SQLite declared type for k. TIMESTAMP is kept as a
// declared type so the driver scans values back into time.Time.
func MapType(k taxi.Kind) string {
	switch k {
	case taxi.KindInt, taxi.KindBigInt:
		return "INTEGER"
	case taxi.KindDouble:
		return "REAL"
	case taxi.KindTimestamp:
		return "TIMESTAMP"
	case taxi.KindText:
		return "TEXT"
	}
	return ""
}

// Recreate drops table if it exists and creates it empty.
func Recreate(ctx context.Context, x gddl.Execer, table string, cols []taxi.Column) error {
	def, err := gddl.FromColumns(table, cols, MapType)
	if err != nil {
		return err
	}
	return gddl.Recreate(ctx, x, Dialect, def)
}
