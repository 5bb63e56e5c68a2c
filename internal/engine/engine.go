// Package engine implements the chunked parallel transform core: a
// memory-mapped input is partitioned into line-aligned byte ranges, each range
// is transformed independently on a worker pool (column selection, optional
// equal-columns filtering), and the per-chunk outputs are recombined in
// original order.
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mrqs001/PulseCSV/internal/metrics"
	"github.com/mrqs001/PulseCSV/internal/mmap"
)

// Options configures a transform run.
type Options struct {
	// Delimiter is the single field-separator byte of the input.
	Delimiter byte

	// Fields are the 0-based column indices to extract, in output order.
	Fields []int

	// FilterEqual optionally drops rows whose two columns are byte-equal.
	FilterEqual *EqualFilter

	// Workers is the pool size; values < 1 default to host parallelism.
	Workers int
}

// Summary reports what a completed run did.
type Summary struct {
	Rows     int64 // rows written by the sink
	Dropped  int64 // rows dropped by the transformers
	BytesIn  int64
	BytesOut int64
	Chunks   int
	Elapsed  time.Duration
}

// Engine ties the core components together: FileView -> ChunkPlanner ->
// ParallelDispatcher -> Sink.
type Engine struct {
	opts Options
	sel  Selector

	// rows is the externally owned progress counter shared with a reporter;
	// may be nil when no progress display is wanted.
	rows *atomic.Int64
}

// New validates opts and returns an Engine. rows is the shared progress
// counter incremented per finished chunk; pass nil to disable.
func New(opts Options, rows *atomic.Int64) (*Engine, error) {
	sel, err := NewSelector(opts.Fields)
	if err != nil {
		return nil, err
	}
	return &Engine{opts: opts, sel: sel, rows: rows}, nil
}

// Run maps input, plans chunks, transforms them in parallel, and hands the
// ordered outputs to sink. It either completes fully or returns the first
// fatal error; there is no retry and no partial-result cleanup.
func (e *Engine) Run(ctx context.Context, input string, sink Sink) (Summary, error) {
	start := time.Now()

	view, err := mmap.Open(input)
	if err != nil {
		return Summary{}, err
	}
	defer view.Close()

	data := view.Bytes()
	chunks := PlanChunks(data, e.workers())

	var dropped atomic.Int64
	d := Dispatcher{
		Workers:   e.opts.Workers,
		Delimiter: e.opts.Delimiter,
		Selector:  e.sel,
		Filter:    e.opts.FilterEqual,
		Rows:      e.rows,
		Dropped:   &dropped,
	}
	tStart := time.Now()
	outputs, err := d.Run(ctx, data, chunks)
	metrics.RecordStage("transform", err, time.Since(tStart))
	if err != nil {
		return Summary{}, err
	}

	sStart := time.Now()
	stats, err := sink.Consume(ctx, outputs)
	metrics.RecordStage("sink", err, time.Since(sStart))
	if err != nil {
		return Summary{}, err
	}

	metrics.RecordRows("written", stats.Rows)
	metrics.RecordRows("dropped", dropped.Load())

	return Summary{
		Rows:     stats.Rows,
		Dropped:  dropped.Load(),
		BytesIn:  int64(len(data)),
		BytesOut: stats.Bytes,
		Chunks:   len(chunks),
		Elapsed:  time.Since(start),
	}, nil
}

func (e *Engine) workers() int {
	if e.opts.Workers < 1 {
		return defaultWorkers()
	}
	return e.opts.Workers
}
