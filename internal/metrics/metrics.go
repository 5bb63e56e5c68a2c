// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from batch extraction runs.
//
// It exposes a narrow Backend interface focused on counters and timing data,
// with a global, pluggable backend defaulting to a no-op implementation, so
// metric calls are always safe even when no real backend is configured.
// Concrete systems (Prometheus Pushgateway) live in subpackages and the rest
// of the codebase depends only on this interface.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStage measures latency and success/failure of one run stage
// (plan, transform, assemble).
func RecordStage(stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"stage":  stage,
		"status": status,
	}

	backend.IncCounter("pulsecsv_stage_total", 1, lbls)
	backend.ObserveHistogram("pulsecsv_stage_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given kind.
//
// Typical kinds:
//   - "written"   rows emitted by the sink
//   - "processed" rows leaving the transformers
func RecordRows(kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("pulsecsv_rows_total", float64(delta), Labels{
		"kind": kind,
	})
}
