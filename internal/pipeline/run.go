package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/datasource"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/enrich"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/metrics"
	csvparser "github.com/esamtronics/nyc-taxi-etl-pipeline/internal/parser/csv"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/parser/parquet"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/storage"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/taxi"
	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/transform"
)

// Stage names used for metrics and logs.
const (
	StepIngest    = "ingest"
	StepTransform = "transform"
	StepLoad      = "load"
	StepRun       = "run"
)

// ingested is what the ingestion stage hands to the stream.
type ingested struct {
	index   *enrich.Index
	trips   datasource.Object
	stats   parquet.Stats
	rows    int
	dups    int
	skipped int64
}

// Run executes one overwrite of the sink table from ec's inputs.
//
// Concurrency model:
//
//	Reader (1, Parquet decode)
//	     → N transformers (filter, derive, join, fingerprint)
//	     → Loader (1, batched CopyFrom)
//
// Back-pressure comes from bounded channels. The first fatal error in any
// stage cancels the others and is returned. Filter rejections are counted,
// never fatal.
func Run(ctx context.Context, ec *ExecContext) (sum Summary, err error) {
	start := time.Now()
	defer func() {
		sum.Duration = time.Since(start)
		metrics.RecordStep(ec.Job, StepRun, err, sum.Duration)
	}()
	sum.Job, sum.RunID = ec.Job, ec.RunID

	ec.Log.WithFields(log.Fields{
		"transformers": ec.rt.transformers,
		"batch":        ec.rt.batchSize,
		"buffer":       ec.rt.bufferSize,
	}).Info("run: started")

	in, err := ingest(ctx, ec)
	if in.trips != nil {
		defer in.trips.Close()
	}
	if err != nil {
		return sum, err
	}
	sum.LookupRows, sum.LookupDuplicates, sum.LookupSkipped = in.rows, in.dups, in.skipped
	sum.RowGroups = in.stats.RowGroups

	if err := storage.RecreateTable(ctx, ec.sinkKind, ec.repo, ec.sinkTable, taxi.OutputColumns); err != nil {
		return sum, fmt.Errorf("recreate %s: %w", ec.sinkTable, err)
	}
	ec.Log.WithField("table", ec.sinkTable).Info("run: sink table recreated")

	var c counters
	written, err := stream(ctx, ec, in, &c)

	sum.Read = c.read.Load()
	sum.Kept = c.kept.Load()
	sum.Unmatched = c.unmatched.Load()
	sum.Batches = c.batches.Load()
	sum.Written = written
	sum.DroppedByReason, sum.Dropped = c.droppedByReason()
	sum.Fingerprint = formatFingerprint(c.fingerprint.Load(), sum.Kept)

	metrics.RecordRow(ec.Job, metrics.KindRead, sum.Read)
	metrics.RecordRow(ec.Job, metrics.KindWritten, sum.Written)
	metrics.RecordRow(ec.Job, metrics.KindUnmatched, sum.Unmatched)
	metrics.RecordDrops(ec.Job, sum.DroppedByReason)
	metrics.RecordBatches(ec.Job, sum.Batches)

	if err != nil {
		return sum, err
	}
	sum.Duration = time.Since(start)
	logSummary(ec.Log, sum)
	return sum, nil
}

// ingest opens the trip file and loads the lookup concurrently. The lookup is
// fully indexed before any trip row flows.
func ingest(ctx context.Context, ec *ExecContext) (in ingested, err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(ec.Job, StepIngest, err, time.Since(start)) }()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		obj, err := openObjectFn(gctx, ec.trips)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		in.trips = obj
		st, err := parquet.Inspect(obj)
		if err != nil {
			return fmt.Errorf("input: %w", err)
		}
		in.stats = st
		return nil
	})

	g.Go(func() error {
		rc, err := ec.lookup.Open(gctx)
		if err != nil {
			return fmt.Errorf("open lookup: %w", err)
		}
		defer rc.Close()

		locs, err := csvparser.ReadLocations(gctx, rc, csvparser.Options{
			Comma:    ec.comma,
			Encoding: ec.encoding,
			OnSkip: func(line int, err error) {
				in.skipped++
				ec.Log.WithField("line", line).Debugf("lookup: row skipped: %v", err)
			},
		})
		if err != nil {
			return fmt.Errorf("lookup: %w", err)
		}
		idx, dups := enrich.NewIndex(locs)
		for _, d := range dups {
			ec.Log.WithField("location_id", d.LocationID).Warn("lookup: duplicate LocationID, keeping the first row")
		}
		in.index, in.rows, in.dups = idx, len(locs), len(dups)
		return nil
	})

	if err := g.Wait(); err != nil {
		return in, err
	}

	ec.Log.WithFields(log.Fields{
		"row_groups":      in.stats.RowGroups,
		"rows":            in.stats.Rows,
		"dropped_columns": in.stats.DroppedColumns,
		"extra_columns":   in.stats.ExtraColumns,
		"lookup_ids":      in.index.Len(),
		"lookup_skipped":  in.skipped,
	}).Info("ingest: inputs ready")
	return in, nil
}

// stream runs reader, transformers and loader and returns the number of rows
// the sink accepted.
func stream(ctx context.Context, ec *ExecContext, in ingested, c *counters) (int64, error) {
	g, gctx := errgroup.WithContext(ctx)

	tripCh := make(chan taxi.Trip, ec.rt.bufferSize)
	rowCh := make(chan []any, ec.rt.bufferSize)

	// Reader.
	g.Go(func() error {
		defer close(tripCh)
		_, err := parquet.ReadTrips(gctx, in.trips, func(t taxi.Trip) error {
			c.read.Add(1)
			select {
			case tripCh <- t:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		return nil
	})

	// Transformers.
	tStart := time.Now()
	var wg sync.WaitGroup
	wg.Add(ec.rt.transformers)
	for i := 0; i < ec.rt.transformers; i++ {
		g.Go(func() error {
			defer wg.Done()
			return transformLoop(gctx, in.index, tripCh, rowCh, c)
		})
	}
	g.Go(func() error {
		wg.Wait()
		close(rowCh)
		metrics.RecordStep(ec.Job, StepTransform, gctx.Err(), time.Since(tStart))
		return nil
	})

	// Loader.
	var written int64
	g.Go(func() error {
		lStart := time.Now()
		copyFn := func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
			n, err := ec.repo.CopyFrom(ctx, columns, rows)
			if err == nil {
				c.batches.Add(1)
			}
			return n, err
		}
		n, err := storage.LoadBatches(gctx, taxi.OutputColumnNames(), rowCh, ec.rt.batchSize, copyFn)
		written = n
		metrics.RecordStep(ec.Job, StepLoad, err, time.Since(lStart))
		if err != nil {
			return fmt.Errorf("load %s: %w", ec.sinkTable, err)
		}
		return nil
	})

	err := g.Wait()
	return written, err
}

// transformLoop filters, derives and joins trips until in is closed.
func transformLoop(ctx context.Context, idx *enrich.Index, in <-chan taxi.Trip, out chan<- []any, c *counters) error {
	scratch := make([]byte, 0, 256)
	for t := range in {
		if r := transform.Check(&t); r != transform.ReasonNone {
			c.drop(r)
			continue
		}
		e, matched := idx.Join(transform.Derive(t))
		if !matched {
			c.unmatched.Add(1)
		}
		row := e.Values()
		c.kept.Add(1)
		c.fingerprint.Add(hashRow(&scratch, row))

		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func logSummary(l *log.Entry, s Summary) {
	fields := log.Fields{
		"read":        s.Read,
		"kept":        s.Kept,
		"dropped":     s.Dropped,
		"unmatched":   s.Unmatched,
		"written":     s.Written,
		"batches":     s.Batches,
		"duration":    s.Duration.Truncate(time.Millisecond),
		"fingerprint": s.Fingerprint,
	}
	for reason, n := range s.DroppedByReason {
		fields["dropped_"+reason] = n
	}
	l.WithFields(fields).Info("run: summary")
}
