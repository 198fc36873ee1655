package ddl

import (
	"context"
	"strings"
	"testing"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

type recorder []string

func (r *recorder) Exec(_ context.Context, sql string) error {
	*r = append(*r, sql)
	return nil
}

func TestRecreate(t *testing.T) {
	t.Parallel()

	var r recorder
	err := Recreate(context.Background(), &r, "trips", []taxi.Column{
		{Name: taxi.ColPassengerCount, Kind: taxi.KindBigInt},
		{Name: taxi.ColDropoff, Kind: taxi.KindTimestamp},
		{Name: taxi.ColTripDistance, Kind: taxi.KindDouble},
		{Name: taxi.ColIsWeekend, Kind: taxi.KindText},
	})
	if err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	want := []string{
		`DROP TABLE IF EXISTS "trips";`,
		"CREATE TABLE \"trips\" (\n" +
			"  \"passenger_count\" INTEGER,\n" +
			"  \"tpep_dropoff_datetime\" TIMESTAMP,\n" +
			"  \"trip_distance\" REAL,\n" +
			"  \"is_weekend\" TEXT\n);",
	}
	if strings.Join(r, "\n--\n") != strings.Join(want, "\n--\n") {
		t.Fatalf("stmts:\n%s\nwant:\n%s", strings.Join(r, "\n"), strings.Join(want, "\n"))
	}
}

func TestRecreate_UnknownKind(t *testing.T) {
	t.Parallel()

	var r recorder
	err := Recreate(context.Background(), &r, "trips", []taxi.Column{{Name: "x", Kind: "geometry"}})
	if err == nil || len(r) != 0 {
		t.Fatalf("err=%v stmts=%v, want error before any statement", err, r)
	}
}
