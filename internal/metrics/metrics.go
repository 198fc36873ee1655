// Package metrics is a small, backend-agnostic facade for operational
// metrics emitted by the taxi ETL run.
//
// A global, pluggable Backend defaults to a no-op, so instrumentation is
// always safe to call even when no metrics system is configured. Concrete
// systems live in subpackages (prompush, datadog) and are installed with
// SetBackend by the command layer.
package metrics

import (
	"strings"
	"sync"
	"time"
)

// Metric names shared by all backends.
const (
	StepTotal           = "taxietl_step_total"
	StepDurationSeconds = "taxietl_step_duration_seconds"
	RecordsTotal        = "taxietl_records_total"
	BatchesTotal        = "taxietl_batches_total"
)

// Record kinds reported through RecordRow.
const (
	KindRead      = "read"
	KindWritten   = "written"
	KindUnmatched = "unmatched"
	dropPrefix    = "dropped_"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of a pipeline stage (ingest, transform,
// load, run) and observes its duration, labelled by outcome.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments the record counter for kind. Non-positive deltas are
// ignored.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordDrops reports per-reason drop counts as dropped_<reason> kinds.
func RecordDrops(job string, byReason map[string]int64) {
	for reason, n := range byReason {
		RecordRow(job, DropKind(reason), n)
	}
}

// DropKind returns the record kind for a drop reason.
func DropKind(reason string) string {
	return dropPrefix + strings.ReplaceAll(strings.ToLower(reason), " ", "_")
}

// RecordBatches increments the batch counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}
