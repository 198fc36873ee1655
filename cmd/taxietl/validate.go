package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/config"
)

// errInvalidConfig is returned when validation finds at least one error.
var errInvalidConfig = errors.New("configuration is invalid")

func newValidateCommand(stdout, stderr io.Writer) *cobra.Command {
	var printCfg bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Lint the configuration without running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if printCfg {
				out, err := cfg.YAML()
				if err != nil {
					return fmt.Errorf("render config: %w", err)
				}
				if _, err := stdout.Write(out); err != nil {
					return err
				}
			}
			if printIssues(stderr, config.ValidateConfig(cfg)) {
				return errInvalidConfig
			}
			fmt.Fprintln(stderr, "configuration is valid")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printCfg, "print", false, "print the effective configuration as YAML, secrets redacted")
	return cmd
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "taxietl %s (built %s)\n", Version, BuildTime)
		},
	}
}
