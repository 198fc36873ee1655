// Package prompush pushes run metrics to a Prometheus Pushgateway.
//
// A batch job exits before any scraper would see it, so the collectors live
// in a private registry that Flush pushes once at the end of the run. The
// job label becomes the Pushgateway grouping key; extra grouping labels
// (e.g. the run id) can be added with Grouping.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/esamtronics/nyc-taxi-etl-pipeline/internal/metrics"
)

// DefaultJob is the grouping job used when none is given.
const DefaultJob = "nyc_taxi_etl"

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	grouping   map[string]string
	reg        *prometheus.Registry

	stepCounter   *prometheus.CounterVec // step, status
	stepDuration  *prometheus.SummaryVec // step, status
	recordCounter *prometheus.CounterVec // kind
	batchCounter  prometheus.Counter
}

// NewBackend constructs a Pushgateway backend for jobName at gatewayURL.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = DefaultJob
	}

	reg := prometheus.NewRegistry()
	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline stage executions by stage and outcome.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDurationSeconds,
			Help:       "Pipeline stage duration in seconds by stage and outcome.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Trip records by kind (read, written, unmatched, dropped_<reason>).",
		},
		[]string{"kind"},
	)
	batchCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Insert batches flushed to the sink.",
		},
	)

	for _, c := range []prometheus.Collector{stepCounter, stepDuration, recordCounter, batchCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		recordCounter: recordCounter,
		batchCounter:  batchCounter,
	}, nil
}

// Grouping adds a Pushgateway grouping label. It returns b for chaining.
func (b *Backend) Grouping(name, value string) *Backend {
	if b.grouping == nil {
		b.grouping = map[string]string{}
	}
	b.grouping[name] = value
	return b
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case metrics.RecordsTotal:
		if b.recordCounter == nil {
			return
		}
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.BatchesTotal:
		if b.batchCounter == nil {
			return
		}
		b.batchCounter.Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway, replacing the
// previous push for the same grouping key.
func (b *Backend) Flush() error {
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)
	for k, v := range b.grouping {
		p = p.Grouping(k, v)
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
