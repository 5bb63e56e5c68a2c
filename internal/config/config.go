// Package config defines the JSON-serializable job model for the extractor
// and the helpers that turn user-facing index lists into validated values.
// Decoding is performed by the standard library; the model is intentionally
// small so jobs can be loaded from disk or assembled from flags without glue
// code.
//
// Example job file:
//
//	{
//	  "input":  "exports/users.dsv",
//	  "output": "out/users.csv",
//	  "delimiter": ":",
//	  "fields": "1,2",
//	  "filter_equal": "1,2",
//	  "workers": 8,
//	  "sink": { "kind": "file" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Job describes one extraction run.
type Job struct {
	// Input is the path of the delimiter-separated source file.
	Input string `json:"input"`

	// Output is the destination path for the "file" sink.
	Output string `json:"output"`

	// Delimiter is the field separator; exactly one byte. Default ":".
	Delimiter string `json:"delimiter"`

	// Fields is the comma-separated list of 0-based column indices to
	// extract, in output order. Duplicates and reordering are allowed.
	// Default "1,2".
	Fields string `json:"fields"`

	// FilterEqual optionally names a "col1,col2" pair; rows whose two
	// columns hold equal values are dropped.
	FilterEqual string `json:"filter_equal"`

	// Workers is the transform pool size; 0 means host parallelism.
	Workers int `json:"workers"`

	// Unique suppresses duplicate output rows (first occurrence wins).
	Unique bool `json:"unique"`

	// Sink selects where output goes.
	Sink Sink `json:"sink"`
}

// Sink selects the output destination.
type Sink struct {
	// Kind is "file" (default) or "postgres".
	Kind string `json:"kind"`

	// Postgres carries options for the "postgres" sink kind.
	Postgres PostgresSink `json:"postgres"`
}

// PostgresSink configures the COPY-based database sink.
type PostgresSink struct {
	// DSN is the connection string for pgx/pgxpool.
	DSN string `json:"dsn"`

	// Table is the destination table, optionally schema-qualified.
	Table string `json:"table"`

	// Columns names the destination columns in selector order. When empty,
	// c0..cN are generated from the selector width.
	Columns []string `json:"columns"`

	// CreateTable creates the table (all TEXT columns) when missing.
	CreateTable bool `json:"create_table"`
}

// Load reads and decodes a job file.
func Load(path string) (Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return Job{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var j Job
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&j); err != nil {
		return Job{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return j, nil
}

// ApplyDefaults fills unset fields with their documented defaults.
func (j *Job) ApplyDefaults() {
	if j.Delimiter == "" {
		j.Delimiter = ":"
	}
	if j.Fields == "" {
		j.Fields = "1,2"
	}
	if j.Sink.Kind == "" {
		j.Sink.Kind = "file"
	}
}

// DelimiterByte returns the configured delimiter as a single byte.
func (j Job) DelimiterByte() (byte, error) {
	if len(j.Delimiter) != 1 {
		return 0, fmt.Errorf("delimiter must be exactly one byte, got %q", j.Delimiter)
	}
	return j.Delimiter[0], nil
}

// ParseIndexList parses a comma-separated list of non-negative column indices
// such as "1,2" or "3, 0, 3". Whitespace around entries is ignored.
func ParseIndexList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("index list %q: empty entry", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("index list %q: %q is not an integer", s, p)
		}
		if n < 0 {
			return nil, fmt.Errorf("index list %q: negative index %d", s, n)
		}
		out = append(out, n)
	}
	return out, nil
}

// ParseIndexPair parses a "col1,col2" pair of non-negative column indices.
func ParseIndexPair(s string) ([2]int, error) {
	list, err := ParseIndexList(s)
	if err != nil {
		return [2]int{}, err
	}
	if len(list) != 2 {
		return [2]int{}, fmt.Errorf("index pair %q: want exactly two indices, got %d", s, len(list))
	}
	return [2]int{list[0], list[1]}, nil
}
