package all

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage"
)

func TestAllBackendsRegistered(t *testing.T) {
	want := []string{"mssql", "mysql", "postgres", "sqlite"}
	if diff := cmp.Diff(want, storage.ListKinds()); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
}
