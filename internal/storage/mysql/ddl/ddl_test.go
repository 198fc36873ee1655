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

func TestRecreate_UsesBackticksAndMySQLTypes(t *testing.T) {
	t.Parallel()

	var r recorder
	if err := Recreate(context.Background(), &r, "taxi.yellow_trips", taxi.OutputColumns); err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	if r[0] != "DROP TABLE IF EXISTS `taxi`.`yellow_trips`;" {
		t.Fatalf("drop = %s", r[0])
	}
	for _, frag := range []string{
		"`tpep_pickup_datetime` DATETIME(6)",
		"`trip_duration_sec` BIGINT",
		"`average_speed_mph` DOUBLE",
		"`pickup_hour` INT",
		"`Borough` TEXT",
	} {
		if !strings.Contains(r[1], frag) {
			t.Errorf("create lacks %q:\n%s", frag, r[1])
		}
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	if got := quoteIdent("a`b"); got != "`a``b`" {
		t.Fatalf("quoteIdent = %s", got)
	}
}
