package engine

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrqs001/PulseCSV/internal/metrics"
)

// Dispatcher runs TransformChunk over a set of chunks on a fixed-size worker
// pool and gathers results indexed by original chunk position, so callers can
// reassemble output in input order regardless of completion order.
type Dispatcher struct {
	// Workers is the pool size; values < 1 default to GOMAXPROCS.
	Workers int

	Delimiter byte
	Selector  Selector
	Filter    *EqualFilter

	// Rows, when non-nil, receives each finished chunk's emitted row count.
	// It is a progress side channel only: increments are atomic and never
	// lost, but carry no ordering guarantee, and the dispatcher never reads
	// the value back.
	Rows *atomic.Int64

	// Dropped, when non-nil, receives each chunk's dropped-row count
	// (short rows, filter matches, all-empty outputs).
	Dropped *atomic.Int64
}

// Run transforms every chunk of data concurrently and returns the per-chunk
// output buffers, outputs[i] belonging to chunks[i]. Chunks are disjoint
// read-only views, so workers share data without locking. Run blocks until
// all workers finish; the only failure mode is context cancellation.
func (d Dispatcher) Run(ctx context.Context, data []byte, chunks []Chunk) ([][]byte, error) {
	workers := d.Workers
	if workers < 1 {
		workers = defaultWorkers()
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}

	outputs := make([][]byte, len(chunks))
	jobs := make(chan int, len(chunks))
	for i := range chunks {
		jobs <- i
	}
	close(jobs)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			// jobs is pre-filled and closed, so the range never blocks;
			// cancellation is checked between chunks.
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				c := chunks[i]
				t0 := time.Now()
				out, rows, dropped := TransformChunk(
					data[c.Start:c.End], c.First, d.Delimiter, d.Selector, d.Filter,
				)
				metrics.RecordStage("chunk", nil, time.Since(t0))
				outputs[i] = out
				if d.Rows != nil {
					d.Rows.Add(int64(rows))
				}
				if d.Dropped != nil {
					d.Dropped.Add(int64(dropped))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// defaultWorkers is the pool size when none is configured.
func defaultWorkers() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}
