package engine

import "bytes"

// Chunk is a half-open byte range [Start, End) of the input, aligned so that
// no line is split across chunks. First marks the chunk that begins at offset
// zero; the header row lives there and is dropped by the transformer.
type Chunk struct {
	Start int
	End   int
	First bool
}

// Len returns the chunk size in bytes.
func (c Chunk) Len() int { return c.End - c.Start }

// PlanChunks partitions data into near-equal, newline-aligned chunks, aiming
// for roughly parallelism chunks. Boundaries are strictly increasing, start at
// 0 and end at len(data); every internal boundary immediately follows a '\n'.
//
// The stride is len(data)/parallelism. From each tentative offset the planner
// scans forward to the byte after the next '\n' (or to EOF when the final line
// is unterminated), so files with few or very long lines yield fewer chunks
// than requested. Empty input yields the single chunk [0,0).
func PlanChunks(data []byte, parallelism int) []Chunk {
	if parallelism < 1 {
		parallelism = 1
	}
	if len(data) == 0 {
		return []Chunk{{Start: 0, End: 0, First: true}}
	}

	stride := len(data) / parallelism
	boundaries := []int{0}

	pos := 0
	for pos < len(data) {
		tentative := pos + stride
		if tentative > len(data) {
			tentative = len(data)
		}
		boundary := nextLineBoundary(data, tentative)
		boundaries = append(boundaries, boundary)
		pos = boundary
	}
	if boundaries[len(boundaries)-1] != len(data) {
		boundaries = append(boundaries, len(data))
	}

	chunks := make([]Chunk, 0, len(boundaries)-1)
	for i := 0; i+1 < len(boundaries); i++ {
		chunks = append(chunks, Chunk{
			Start: boundaries[i],
			End:   boundaries[i+1],
			First: boundaries[i] == 0,
		})
	}
	return chunks
}

// nextLineBoundary returns the offset just past the next '\n' at or after pos,
// or len(data) when no terminator follows.
func nextLineBoundary(data []byte, pos int) int {
	if pos >= len(data) {
		return len(data)
	}
	if i := bytes.IndexByte(data[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(data)
}
