package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/config"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/metrics"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/metrics/datadog"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/metrics/prompush"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/notify"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/pipeline"
)

// notifyTimeout bounds the completion event publish.
const notifyTimeout = 10 * time.Second

// Function variables used as test seams.
var (
	openFn = pipeline.Open
	runFn  = pipeline.Run
	sendFn = notify.Send
)

func newRunCommand(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the ETL and overwrite the sink table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if printIssues(stderr, config.ValidateConfig(cfg)) {
				return errInvalidConfig
			}
			if err := setupLogging(cfg, stderr); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runPipeline(ctx, cfg)
		},
	}
}

// runPipeline opens the execution context, runs it, flushes metrics and
// sends the completion event. The context is released on every path.
func runPipeline(ctx context.Context, cfg config.Config) error {
	ec, err := openFn(ctx, cfg)
	if err != nil {
		return err
	}
	defer ec.Close()

	flush, err := setupMetrics(cfg, ec.RunID)
	if err != nil {
		ec.Log.WithError(err).Warn("metrics: backend unavailable; metrics disabled")
	}
	defer flush()

	sum, err := runFn(ctx, ec)
	if err != nil {
		ec.Log.WithError(err).Error("run failed")
		return fmt.Errorf("run %s: %w", ec.RunID, err)
	}

	nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	sendFn(nctx, notify.Config{
		URL:        cfg.NotifyAMQPURL,
		Exchange:   cfg.NotifyExchange,
		RoutingKey: cfg.NotifyRoutingKey,
		Timeout:    notifyTimeout,
	}, notify.Event{
		Type:       notify.EventRunCompleted,
		Job:        ec.Job,
		RunID:      ec.RunID,
		FinishedAt: time.Now().UTC(),
		Summary:    sum,
	})
	return nil
}

// setupMetrics installs the configured backend. The returned flush is never
// nil.
func setupMetrics(cfg config.Config, runID string) (func(), error) {
	noop := func() {}
	var b metrics.Backend

	switch strings.ToLower(cfg.MetricsBackend) {
	case "", "none":
		log.WithField("backend", cfg.MetricsBackend).Debug("metrics: disabled")
		return noop, nil

	case "pushgateway":
		pb, err := prompush.NewBackend(cfg.Job, cfg.PushgatewayURL)
		if err != nil {
			return noop, err
		}
		b = pb.Grouping("run_id", runID)

	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.DatadogAddr,
			GlobalTags: []string{"run_id:" + runID},
		})
		if err != nil {
			return noop, err
		}
		b = db

	default:
		return noop, fmt.Errorf("unknown metrics backend %q", cfg.MetricsBackend)
	}

	metrics.SetBackend(b)
	log.WithFields(log.Fields{"backend": cfg.MetricsBackend, "job": cfg.Job}).Info("metrics: enabled")
	return func() {
		if err := metrics.Flush(); err != nil {
			log.WithError(err).Warn("metrics: flush error")
		}
	}, nil
}
