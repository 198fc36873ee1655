// Package pipeline runs the taxi ETL: ingestion, normalization, the quality
// filter, feature derivation, the lookup join and the sink overwrite, as one
// forward pass over the trip file.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/config"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/datasource"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/datasource/httpds"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
)

// Function variables used to introduce test seams.
var (
	newRepositoryFn = storage.New
	newSourceFn     = datasource.New
	openObjectFn    = datasource.OpenObject
)

// runtimeConfig is the resolved concurrency and buffering configuration.
type runtimeConfig struct {
	transformers int
	batchSize    int
	bufferSize   int
}

func newRuntimeConfig(rt config.Runtime) runtimeConfig {
	return runtimeConfig{
		transformers: pickInt(rt.TransformWorkers, config.DefaultTransformWorkers),
		batchSize:    pickInt(rt.BatchSize, config.DefaultBatchSize),
		bufferSize:   max(rt.ChannelBuffer, 0),
	}
}

func pickInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// ExecContext owns everything one run needs: the input sources, the sink
// repository, the run identity and its logger. Build it with Open and
// release it with Close.
type ExecContext struct {
	Job   string
	RunID string
	Log   *log.Entry

	sinkKind  string
	sinkTable string
	comma     rune
	encoding  string
	rt        runtimeConfig

	trips  datasource.Source
	lookup datasource.Source
	repo   storage.Repository

	closeOnce sync.Once
}

// Open resolves the sources and connects to the sink. On error nothing is
// left open.
func Open(ctx context.Context, cfg config.Config) (*ExecContext, error) {
	runID := uuid.NewString()
	ec := &ExecContext{
		Job:       cfg.Job,
		RunID:     runID,
		Log:       log.WithFields(log.Fields{"job": cfg.Job, "run_id": runID}),
		sinkTable: cfg.SinkTable,
		encoding:  cfg.LookupEncoding,
		comma:     cfg.LookupComma(),
		rt:        newRuntimeConfig(cfg.Runtime),
	}

	opts := datasource.Options{
		S3Region: cfg.S3Region,
		HDFSUser: cfg.HDFSUser,
		HTTP:     httpds.Config{Timeout: cfg.HTTPTimeout},
	}
	var err error
	if ec.trips, err = newSourceFn(cfg.InputPath, opts); err != nil {
		return nil, fmt.Errorf("input source: %w", err)
	}
	if ec.lookup, err = newSourceFn(cfg.LookupPath, opts); err != nil {
		return nil, fmt.Errorf("lookup source: %w", err)
	}

	target, err := storage.ParseSinkURL(cfg.SinkURL, cfg.SinkUser, cfg.SinkPassword)
	if err != nil {
		return nil, err
	}
	ec.sinkKind = target.Kind
	ec.Log.WithFields(log.Fields{"kind": target.Kind, "dsn": target.Redacted(), "table": cfg.SinkTable}).
		Info("connecting to sink")

	ec.repo, err = newRepositoryFn(ctx, storage.Config{
		Kind:    target.Kind,
		DSN:     target.DSN,
		Table:   cfg.SinkTable,
		Columns: taxi.OutputColumnNames(),
	})
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	return ec, nil
}

// Close releases the sink connection. It is safe to call more than once.
func (ec *ExecContext) Close() {
	if ec == nil {
		return
	}
	ec.closeOnce.Do(func() {
		if ec.repo != nil {
			ec.repo.Close()
		}
	})
}
