package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/zeebo/xxh3"
)

// Buffered writer sized to amortize syscalls on multi-gigabyte outputs.
const writeBufSize = 4 << 20 // 4 MiB

// SinkStats summarizes what a sink actually wrote.
type SinkStats struct {
	Rows  int64
	Bytes int64
}

// Sink consumes per-chunk output buffers in chunk-index order. Implementations
// must preserve that order; it is what guarantees the final output matches a
// sequential scan of the input.
type Sink interface {
	Consume(ctx context.Context, outputs [][]byte) (SinkStats, error)
}

// FileSink writes chunk outputs to a destination stream strictly in index
// order, skipping empty buffers. With Unique set, duplicate output rows are
// suppressed (first occurrence wins) using 64-bit line hashes, which keeps the
// pass order-preserving and single-threaded.
//
// Any write failure is fatal to the run; the destination may be left with a
// truncated prefix of the output and no cleanup is attempted.
type FileSink struct {
	W      io.Writer
	Unique bool
}

// Consume writes outputs[0], outputs[1], ... to the destination.
func (s FileSink) Consume(_ context.Context, outputs [][]byte) (SinkStats, error) {
	bw := bufio.NewWriterSize(s.W, writeBufSize)

	var stats SinkStats
	var seen map[uint64]struct{}
	if s.Unique {
		seen = make(map[uint64]struct{})
	}

	for _, out := range outputs {
		if len(out) == 0 {
			continue
		}
		if !s.Unique {
			n, err := bw.Write(out)
			stats.Bytes += int64(n)
			if err != nil {
				return stats, fmt.Errorf("write output: %w", err)
			}
			stats.Rows += int64(bytes.Count(out, []byte{'\n'}))
			continue
		}

		// Unique mode: emit each line at most once across the whole run.
		// Transformer output is newline-terminated, but an unterminated
		// tail from other producers is treated as a final line.
		for len(out) > 0 {
			var line []byte
			if i := bytes.IndexByte(out, '\n'); i >= 0 {
				line = out[:i+1]
				out = out[i+1:]
			} else {
				line = out
				out = nil
			}

			h := xxh3.Hash(bytes.TrimSuffix(line, []byte{'\n'}))
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}

			n, err := bw.Write(line)
			stats.Bytes += int64(n)
			if err != nil {
				return stats, fmt.Errorf("write output: %w", err)
			}
			stats.Rows++
		}
	}

	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}
	return stats, nil
}
