package engine

import (
	"bytes"
	"fmt"
)

// Selector is the ordered list of 0-based column indices to extract from each
// row. Duplicates and reordering are allowed; the order of indices is the
// order of fields in the output.
type Selector struct {
	indices []int
	max     int
}

// NewSelector validates indices and returns a Selector. At least one index is
// required and all indices must be non-negative.
func NewSelector(indices []int) (Selector, error) {
	if len(indices) == 0 {
		return Selector{}, fmt.Errorf("selector: at least one column index required")
	}
	max := 0
	for _, ix := range indices {
		if ix < 0 {
			return Selector{}, fmt.Errorf("selector: negative column index %d", ix)
		}
		if ix > max {
			max = ix
		}
	}
	out := make([]int, len(indices))
	copy(out, indices)
	return Selector{indices: out, max: max}, nil
}

// Indices returns a copy of the selected column indices in output order.
func (s Selector) Indices() []int {
	out := make([]int, len(s.indices))
	copy(out, s.indices)
	return out
}

// Width returns the number of selected columns.
func (s Selector) Width() int { return len(s.indices) }

// EqualFilter drops a row when both columns exist and their raw byte values
// are equal. A nil *EqualFilter disables filtering.
type EqualFilter struct {
	A int
	B int
}

// TransformChunk converts one chunk's bytes into output bytes.
//
// It is a pure function: split on '\n', drop the header line when first is
// set, then per line
//
//  1. skip empty lines,
//  2. split on delim into fields (no quoting or escaping),
//  3. silently drop rows with too few columns for the selector,
//  4. silently drop rows matched by the equal-columns filter,
//  5. emit the selected fields joined by commas, terminated by '\n'.
//
// An empty selected field contributes neither its value nor its separator, so
// a row's output can carry fewer commas than Width()-1; a row whose output
// would be entirely empty is dropped. rows counts emitted lines; dropped
// counts short-row, filter, and all-empty drops (skipped blank lines and the
// header are not rows). TransformChunk never fails; all anomalies are row
// drops.
func TransformChunk(chunk []byte, first bool, delim byte, sel Selector, filter *EqualFilter) (out []byte, rows, dropped int) {
	// fields is reused across lines; slices alias chunk and are never retained.
	fields := make([][]byte, 0, sel.max+8)

	pos := 0
	if first {
		// Header row is dropped unconditionally, terminated or not.
		if i := bytes.IndexByte(chunk, '\n'); i >= 0 {
			pos = i + 1
		} else {
			pos = len(chunk)
		}
	}

	for pos <= len(chunk) {
		var line []byte
		if i := bytes.IndexByte(chunk[pos:], '\n'); i >= 0 {
			line = chunk[pos : pos+i]
			pos += i + 1
		} else {
			line = chunk[pos:]
			pos = len(chunk) + 1 // terminate after the unterminated tail
		}
		if len(line) == 0 {
			continue
		}

		fields = splitFields(line, delim, fields[:0])
		if len(fields) <= sel.max {
			dropped++ // short row
			continue
		}
		if filter != nil &&
			filter.A < len(fields) && filter.B < len(fields) &&
			bytes.Equal(fields[filter.A], fields[filter.B]) {
			dropped++
			continue
		}

		mark := len(out)
		for i, ix := range sel.indices {
			f := fields[ix]
			if len(f) == 0 {
				continue
			}
			if i > 0 {
				out = append(out, ',')
			}
			out = append(out, f...)
		}
		if len(out) == mark {
			dropped++ // nothing selected survived
			continue
		}
		out = append(out, '\n')
		rows++
	}

	return out, rows, dropped
}

// splitFields splits line on delim into dst, reusing its backing array.
// Consecutive delimiters produce empty fields, as do leading and trailing
// ones, mirroring a plain byte-split.
func splitFields(line []byte, delim byte, dst [][]byte) [][]byte {
	start := 0
	for {
		i := bytes.IndexByte(line[start:], delim)
		if i < 0 {
			return append(dst, line[start:])
		}
		dst = append(dst, line[start:start+i])
		start += i + 1
	}
}
