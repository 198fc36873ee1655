// Package ddl renders SQL Server DDL for the output table.
package ddl

import (
	"context"
	"strings"

	gddl "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/ddl"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

// Dialect quotes identifiers with [brackets], escaping ].
var Dialect = gddl.Dialect{Name: "mssql", QuoteIdent: quoteIdent}

func quoteIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// MapType returns the SQL Server column type for k.
func MapType(k taxi.Kind) string {
	switch k {
	case taxi.KindInt:
		return "INT"
	case taxi.KindBigInt:
		return "BIGINT"
	case taxi.KindDouble:
		return "FLOAT"
	case taxi.KindTimestamp:
		return "DATETIME2"
	case taxi.KindText:
		return "NVARCHAR(MAX)"
	}
	return ""
}

// Recreate drops table if it exists and creates it empty. DROP TABLE IF
// EXISTS needs SQL Server 2016 or later.
func Recreate(ctx context.Context, x gddl.Execer, table string, cols []taxi.Column) error {
	def, err := gddl.FromColumns(table, cols, MapType)
	if err != nil {
		return err
	}
	return gddl.Recreate(ctx, x, Dialect, def)
}
