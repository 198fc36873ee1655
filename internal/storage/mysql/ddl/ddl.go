// Package ddl renders MySQL DDL for the output table.
package ddl

import (
	"context"
	"strings"

	gddl "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/ddl"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

// Dialect quotes identifiers with backticks.
var Dialect = gddl.Dialect{Name: "mysql", QuoteIdent: quoteIdent}

func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// MapType returns the MySQL column type for k. DATETIME(6) keeps
// microseconds.
func MapType(k taxi.Kind) string {
	switch k {
	case taxi.KindInt:
		return "INT"
	case taxi.KindBigInt:
		return "BIGINT"
	case taxi.KindDouble:
		return "DOUBLE"
	case taxi.KindTimestamp:
		return "DATETIME(6)"
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
