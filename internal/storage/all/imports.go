// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories and DDL recreators with the storage package:
//
//   - "postgres" (internal/storage/postgres)
//   - "mssql"    (internal/storage/mssql)
//   - "mysql"    (internal/storage/mysql)
//   - "sqlite"   (internal/storage/sqlite)
//
// A binary that needs only a subset can import those backends directly
// instead.
package all

import (
	_ "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage/mssql"
	_ "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage/mysql"
	_ "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage/postgres"
	_ "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage/sqlite"
)
