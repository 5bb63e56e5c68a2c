// Package progress implements the cosmetic throughput display: a reporter
// goroutine polls a shared atomic row counter on a fixed interval and rewrites
// a single status line. The counter is advisory only; workers never block on
// the reporter and the reporter never blocks the workers.
package progress

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// approxRowBytes is the rough bytes-per-row figure used for the throughput
// estimate. The display is cosmetic; the completion summary uses real sizes.
const approxRowBytes = 50

// DefaultInterval is the poll interval used by the CLI.
const DefaultInterval = 100 * time.Millisecond

// Reporter periodically prints "processed N lines | X MB/s" while a run is in
// flight. It holds a second reference to the run's shared counter and reads
// it with atomic loads only.
type Reporter struct {
	rows     *atomic.Int64
	interval time.Duration
	w        io.Writer

	start time.Time
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewReporter returns a Reporter polling rows every interval and writing to w.
func NewReporter(rows *atomic.Int64, interval time.Duration, w io.Writer) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reporter{
		rows:     rows,
		interval: interval,
		w:        w,
		done:     make(chan struct{}),
	}
}

// Start launches the reporter goroutine. The status line is only rewritten
// when the counter moved since the last tick.
func (r *Reporter) Start() {
	r.start = time.Now()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		t := time.NewTicker(r.interval)
		defer t.Stop()

		var last int64
		for {
			select {
			case <-r.done:
				return
			case <-t.C:
				cur := r.rows.Load()
				if cur == last {
					continue
				}
				elapsed := time.Since(r.start).Seconds()
				mb := float64(cur) * approxRowBytes / (1 << 20)
				fmt.Fprintf(r.w, "\rprocessed %d lines | %.1f MB/s", cur, mb/elapsed)
				last = cur
			}
		}
	}()
}

// Stop terminates the reporter and clears the status line. It is safe to call
// only once, after Start.
func (r *Reporter) Stop() {
	close(r.done)
	r.wg.Wait()
	fmt.Fprint(r.w, "\r")
}
