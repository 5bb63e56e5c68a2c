package engine

import (
	"bytes"
	"testing"
)

// checkChunks verifies the structural invariants every plan must hold:
// coverage of [0,len), strictly increasing boundaries, newline alignment of
// internal boundaries, and the First flag on exactly the chunk at offset 0.
func checkChunks(t *testing.T, data []byte, chunks []Chunk) {
	t.Helper()

	if len(chunks) == 0 {
		t.Fatalf("no chunks planned")
	}
	if chunks[0].Start != 0 {
		t.Fatalf("first chunk starts at %d, want 0", chunks[0].Start)
	}
	if got := chunks[len(chunks)-1].End; got != len(data) {
		t.Fatalf("last chunk ends at %d, want %d", got, len(data))
	}
	for i, c := range chunks {
		if c.First != (c.Start == 0) {
			t.Errorf("chunk %d: First=%v at start %d", i, c.First, c.Start)
		}
		if i > 0 {
			prev := chunks[i-1]
			if c.Start != prev.End {
				t.Errorf("chunk %d: start %d does not continue previous end %d", i, c.Start, prev.End)
			}
			if c.Start <= prev.Start {
				t.Errorf("chunk %d: boundary %d not strictly increasing", i, c.Start)
			}
			if data[c.Start-1] != '\n' {
				t.Errorf("chunk %d: boundary %d not preceded by newline", i, c.Start)
			}
		}
	}
}

func TestPlanChunks_Empty(t *testing.T) {
	t.Parallel()

	chunks := PlanChunks(nil, 4)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if c := chunks[0]; c.Start != 0 || c.End != 0 || !c.First {
		t.Fatalf("got %+v, want {0 0 true}", c)
	}
}

func TestPlanChunks_AlignsToLines(t *testing.T) {
	t.Parallel()

	var data []byte
	for i := 0; i < 100; i++ {
		data = append(data, []byte("field_a:field_b:field_c\n")...)
	}

	for _, p := range []int{1, 2, 3, 7, 16} {
		chunks := PlanChunks(data, p)
		checkChunks(t, data, chunks)
	}
}

func TestPlanChunks_UnterminatedTail(t *testing.T) {
	t.Parallel()

	data := []byte("a:b\nc:d\ne:f") // no trailing newline
	chunks := PlanChunks(data, 3)
	checkChunks(t, data, chunks)
}

// A single very long line cannot be split: the plan collapses to fewer chunks
// than requested rather than cutting mid-line.
func TestPlanChunks_LongLineCollapses(t *testing.T) {
	t.Parallel()

	data := append(bytes.Repeat([]byte{'x'}, 1000), '\n')
	chunks := PlanChunks(data, 8)
	checkChunks(t, data, chunks)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks for a single line, want 1", len(chunks))
	}
}

func TestPlanChunks_MoreWorkersThanLines(t *testing.T) {
	t.Parallel()

	data := []byte("a\nb\n")
	chunks := PlanChunks(data, 64)
	checkChunks(t, data, chunks)
	if len(chunks) > 2 {
		t.Fatalf("got %d chunks for 2 lines", len(chunks))
	}
}
