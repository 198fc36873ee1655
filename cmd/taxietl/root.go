package main

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/config"
)

var (
	// Version of this software, filled in by ldflags.
	Version string
	// BuildTime of this software, filled in by ldflags.
	BuildTime string
)

func setupVersionBuild() {
	if Version == "" {
		Version = "v0.0.0"
	}
	if BuildTime == "" {
		BuildTime = "not recorded"
	}
}

// NewRootCommand builds the taxietl command tree. Every configuration flag
// is persistent so run and validate see the same settings.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	setupVersionBuild()
	rc := &cobra.Command{
		Use:   "taxietl",
		Short: "taxietl - NYC taxi trip batch ETL",
		Long: `Reads a Parquet file of yellow taxi trips and a zone lookup CSV,
drops bad trips, derives duration, speed and calendar features, joins the
pickup borough and zone, and overwrites a table in Postgres, SQL Server,
MySQL or SQLite.

Version: ` + Version + `
Build Time: ` + BuildTime + "\n",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(rc.PersistentFlags())

	rc.AddCommand(
		newRunCommand(stdout, stderr),
		newValidateCommand(stdout, stderr),
		newProbeCommand(stdout),
		newVersionCommand(stdout),
	)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// setupLogging configures the global logrus logger.
func setupLogging(cfg config.Config, w io.Writer) error {
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetOutput(w)

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	return nil
}

// printIssues writes one line per issue and reports whether any is an error.
func printIssues(w io.Writer, issues []config.Issue) bool {
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	return config.HasErrors(issues)
}
