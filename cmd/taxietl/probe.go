package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/config"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/datasource"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/datasource/httpds"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/enrich"
	csvparser "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/parser/csv"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/parser/parquet"
)

// probeReport describes the inputs without touching the sink.
type probeReport struct {
	Input struct {
		Path           string   `yaml:"path"`
		RowGroups      int      `yaml:"row_groups"`
		Rows           int64    `yaml:"rows"`
		DroppedColumns []string `yaml:"dropped_columns"`
		ExtraColumns   []string `yaml:"extra_columns,omitempty"`
	} `yaml:"input"`
	Lookup struct {
		Path        string  `yaml:"path"`
		Rows        int     `yaml:"rows"`
		DistinctIDs int     `yaml:"distinct_ids"`
		Duplicates  []int32 `yaml:"duplicate_ids,omitempty"`
		SkippedRows []int   `yaml:"skipped_lines,omitempty"`
	} `yaml:"lookup"`
}

func newProbeCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Inspect the trip file schema and the lookup table, print a YAML report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			rep, err := probe(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(rep)
			if err != nil {
				return err
			}
			_, err = stdout.Write(out)
			return err
		},
	}
}

func probe(ctx context.Context, cfg config.Config) (probeReport, error) {
	var rep probeReport
	opts := datasource.Options{
		S3Region: cfg.S3Region,
		HDFSUser: cfg.HDFSUser,
		HTTP:     httpds.Config{Timeout: cfg.HTTPTimeout},
	}

	if cfg.InputPath != "" {
		src, err := datasource.New(cfg.InputPath, opts)
		if err != nil {
			return rep, err
		}
		obj, err := datasource.OpenObject(ctx, src)
		if err != nil {
			return rep, fmt.Errorf("open input: %w", err)
		}
		defer obj.Close()
		st, err := parquet.Inspect(obj)
		if err != nil {
			return rep, err
		}
		rep.Input.Path = cfg.InputPath
		rep.Input.RowGroups, rep.Input.Rows = st.RowGroups, st.Rows
		rep.Input.DroppedColumns, rep.Input.ExtraColumns = st.DroppedColumns, st.ExtraColumns
	}

	if cfg.LookupPath != "" {
		src, err := datasource.New(cfg.LookupPath, opts)
		if err != nil {
			return rep, err
		}
		rc, err := src.Open(ctx)
		if err != nil {
			return rep, fmt.Errorf("open lookup: %w", err)
		}
		defer rc.Close()

		locs, err := csvparser.ReadLocations(ctx, rc, csvparser.Options{
			Comma:    cfg.LookupComma(),
			Encoding: cfg.LookupEncoding,
			OnSkip:   func(line int, _ error) { rep.Lookup.SkippedRows = append(rep.Lookup.SkippedRows, line) },
		})
		if err != nil {
			return rep, err
		}
		idx, dups := enrich.NewIndex(locs)
		rep.Lookup.Path = cfg.LookupPath
		rep.Lookup.Rows, rep.Lookup.DistinctIDs = len(locs), idx.Len()
		for _, d := range dups {
			rep.Lookup.Duplicates = append(rep.Lookup.Duplicates, d.LocationID)
		}
	}
	return rep, nil
}
