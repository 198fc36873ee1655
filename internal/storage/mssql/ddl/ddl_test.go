package ddl

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

type failingExec struct {
	n      int
	failAt int
}

func (f *failingExec) Exec(context.Context, string) error {
	f.n++
	if f.n == f.failAt {
		return errors.New("permission denied")
	}
	return nil
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"id", "[id]"},
		{"user id", "[user id]"},
		{"user]id", "[user]]id]"},
	}
	for _, tt := range tests {
		if got := quoteIdent(tt.in); got != tt.want {
			t.Errorf("quoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := Dialect.QuoteFQN("dbo.yellow_trips"); got != "[dbo].[yellow_trips]" {
		t.Errorf("QuoteFQN = %q", got)
	}
}

func TestMapType(t *testing.T) {
	t.Parallel()

	want := map[taxi.Kind]string{
		taxi.KindInt:       "INT",
		taxi.KindBigInt:    "BIGINT",
		taxi.KindDouble:    "FLOAT",
		taxi.KindTimestamp: "DATETIME2",
		taxi.KindText:      "NVARCHAR(MAX)",
	}
	for k, w := range want {
		if got := MapType(k); got != w {
			t.Errorf("MapType(%s) = %q, want %q", k, got, w)
		}
	}
}

func TestRecreate_ErrorsAreWrapped(t *testing.T) {
	t.Parallel()

	err := Recreate(context.Background(), &failingExec{failAt: 2}, "dbo.t", taxi.OutputColumns)
	if err == nil || !strings.Contains(err.Error(), "create table dbo.t") {
		t.Fatalf("err = %v, want create failure", err)
	}
	err = Recreate(context.Background(), &failingExec{failAt: 1}, "dbo.t", taxi.OutputColumns)
	if err == nil || !strings.Contains(err.Error(), "drop table dbo.t") {
		t.Fatalf("err = %v, want drop failure", err)
	}
}
