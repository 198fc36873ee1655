package ddl

import (
	"context"
	"strings"
	"testing"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

type recorder struct{ stmts []string }

func (r *recorder) Exec(_ context.Context, sql string) error {
	r.stmts = append(r.stmts, sql)
	return nil
}

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := CreateTableSQL("public.yellow_trips", []taxi.Column{
		{Name: taxi.ColVendorID, Kind: taxi.KindInt},
		{Name: taxi.ColPickup, Kind: taxi.KindTimestamp},
		{Name: taxi.ColAverageSpeedMPH, Kind: taxi.KindDouble},
		{Name: taxi.ColZone, Kind: taxi.KindText},
	})
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	want := "CREATE TABLE \"public\".\"yellow_trips\" (\n" +
		"  \"VendorID\" INTEGER,\n" +
		"  \"tpep_pickup_datetime\" TIMESTAMP,\n" +
		"  \"average_speed_mph\" DOUBLE PRECISION,\n" +
		"  \"Zone\" TEXT\n);"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestMapType_CoversEveryOutputKind(t *testing.T) {
	t.Parallel()

	for _, c := range taxi.OutputColumns {
		if MapType(c.Kind) == "" {
			t.Errorf("no type for %s (%s)", c.Name, c.Kind)
		}
	}
	if MapType("uuid") != "" {
		t.Error("unknown kind should map to empty")
	}
}

func TestRecreate_DropsThenCreates(t *testing.T) {
	t.Parallel()

	var r recorder
	if err := Recreate(context.Background(), &r, "trips", taxi.OutputColumns); err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	if len(r.stmts) != 2 || r.stmts[0] != `DROP TABLE IF EXISTS "trips";` || !strings.HasPrefix(r.stmts[1], `CREATE TABLE "trips"`) {
		t.Fatalf("stmts = %q", r.stmts)
	}
	if !strings.Contains(r.stmts[1], `"Borough" TEXT`) {
		t.Errorf("create lacks joined column: %s", r.stmts[1])
	}
}

func TestQuoteIdentEscapes(t *testing.T) {
	t.Parallel()

	if got := quoteIdent(`we"ird`); got != `"we""ird"` {
		t.Fatalf("quoteIdent = %s", got)
	}
}
