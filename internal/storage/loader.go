package storage

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// CopyFn is a backend's bulk insert: it writes rows aligned to columns and
// returns the number of rows inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn per non-empty batch. It returns the running total and the
// first error; (total, ctx.Err()) on cancellation. A progress line with
// rows/sec is logged after every successful flush.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n

		batch = batch[:0]

		if err != nil {
			log.WithFields(log.Fields{"inserted": n, "total": total}).Errorf("loader: copy failed: %v", err)
			return err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		insertedSinceLast := total - lastTotal
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(insertedSinceLast) / sinceLast.Seconds()
		}
		log.WithFields(log.Fields{
			"batch":          batches,
			"rps":            fmt.Sprintf("%.0f", rps),
			"inserted":       n,
			"total_inserted": total,
			"elapsed":        now.Sub(start).Truncate(time.Millisecond),
			"since_last":     sinceLast.Truncate(time.Millisecond),
		}).Info("loader: batch flushed")
		lastFlushTS = now
		lastTotal = total

		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				pending := len(batch)
				if err := flush(); err != nil {
					return total, err
				}
				log.WithFields(log.Fields{"final_flush": pending, "total_inserted": total, "batches": batches}).
					Info("loader: input closed")
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
