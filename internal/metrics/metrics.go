// Package metrics records pipeline run outcomes in a Prometheus registry and
// writes them as a node_exporter textfile after each run.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fxpipe/internal/taskgraph"
)

const namespace = "fxpipe"

// Recorder accumulates the outcomes of one invocation.
type Recorder struct {
	registry    *prometheus.Registry
	outcomes    *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	runDuration prometheus.Gauge
	runSuccess  prometheus.Gauge
	lastRun     prometheus.Gauge
}

// NewRecorder registers the fxpipe collectors in a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_outcomes_total",
			Help:      "Tasks by stage and final state.",
		}, []string{"stage", "state"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall time of tasks that ran, by stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		runSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 when every task of the last run ran or was skipped.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	r.registry.MustRegister(r.outcomes, r.durations, r.runDuration, r.runSuccess, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records every outcome of result.
func (r *Recorder) Observe(result *taskgraph.Result, elapsed time.Duration, finished time.Time) {
	if result == nil {
		return
	}
	for _, o := range result.Outcomes {
		stage := o.Stage
		if stage == "" {
			stage = "none"
		}
		r.outcomes.WithLabelValues(stage, string(o.State)).Inc()
		if o.State == taskgraph.StateRan && o.Kind != taskgraph.KindSpawn {
			r.durations.WithLabelValues(stage).Observe(o.Duration.Seconds())
		}
	}
	r.runDuration.Set(elapsed.Seconds())
	if result.Err() == nil {
		r.runSuccess.Set(1)
	} else {
		r.runSuccess.Set(0)
	}
	r.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile atomically writes the registry to path in the text
// exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
