// Package sink provides alternative destinations for the engine's ordered
// chunk outputs. The default file destination lives in the engine itself;
// this package adds a Postgres COPY sink using pgx v5.
package sink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mrqs001/PulseCSV/internal/config"
	"github.com/mrqs001/PulseCSV/internal/engine"
)

// Postgres streams chunk outputs into a table via COPY, in chunk-index order.
// Each output line is split on ',' and fitted to the selector width: missing
// trailing fields become NULL, excess fields are dropped. All destination
// columns are TEXT.
type Postgres struct {
	pool    *pgxpool.Pool
	table   pgx.Identifier
	columns []string
}

// NewPostgres connects to cfg.DSN and prepares the destination. width is the
// selector width; when cfg.Columns is empty, column names c0..c(width-1) are
// generated. With cfg.CreateTable set, the table is created when missing.
func NewPostgres(ctx context.Context, cfg config.PostgresSink, width int) (*Postgres, error) {
	cols := cfg.Columns
	if len(cols) == 0 {
		cols = make([]string, width)
		for i := range cols {
			cols[i] = fmt.Sprintf("c%d", i)
		}
	}
	if len(cols) != width {
		return nil, fmt.Errorf("postgres sink: %d columns configured for selector width %d", len(cols), width)
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}

	p := &Postgres{pool: pool, table: splitFQN(cfg.Table), columns: cols}
	if cfg.CreateTable {
		if err := p.ensureTable(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return p, nil
}

// Consume implements engine.Sink. A COPY failure is fatal; rows already
// copied in the failed transaction are rolled back by Postgres, but rows from
// previously completed batches remain.
func (p *Postgres) Consume(ctx context.Context, outputs [][]byte) (engine.SinkStats, error) {
	src := &rowSource{outputs: outputs, width: len(p.columns)}

	n, err := p.pool.CopyFrom(ctx, p.table, p.columns, src)
	if err != nil {
		return engine.SinkStats{}, fmt.Errorf("copy into %s: %w", p.table.Sanitize(), err)
	}
	return engine.SinkStats{Rows: n, Bytes: src.bytes}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() { p.pool.Close() }

func (p *Postgres) ensureTable(ctx context.Context) error {
	defs := make([]string, len(p.columns))
	for i, c := range p.columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " TEXT"
	}
	ddl := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s)",
		p.table.Sanitize(), strings.Join(defs, ", "),
	)
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// rowSource adapts the ordered output buffers to pgx.CopyFromSource, walking
// lines lazily so no [][]any materializes for the whole run.
type rowSource struct {
	outputs [][]byte
	width   int

	chunk int
	rest  []byte
	row   []any
	bytes int64
	err   error
}

func (s *rowSource) Next() bool {
	for len(s.rest) == 0 {
		if s.chunk >= len(s.outputs) {
			return false
		}
		s.rest = s.outputs[s.chunk]
		s.chunk++
	}

	var line []byte
	if i := bytes.IndexByte(s.rest, '\n'); i >= 0 {
		line = s.rest[:i]
		s.rest = s.rest[i+1:]
	} else {
		line = s.rest
		s.rest = nil
	}
	s.bytes += int64(len(line)) + 1
	s.row = fitRow(line, s.width, s.row[:0])
	return true
}

func (s *rowSource) Values() ([]any, error) { return s.row, nil }
func (s *rowSource) Err() error             { return s.err }

// fitRow splits line on ',' and pads or truncates to exactly width values.
// Missing fields are NULL so short rows (empty-field omission in the
// transformer output) still COPY cleanly.
func fitRow(line []byte, width int, dst []any) []any {
	start := 0
	for len(dst) < width {
		i := bytes.IndexByte(line[start:], ',')
		if i < 0 {
			dst = append(dst, string(line[start:]))
			break
		}
		dst = append(dst, string(line[start:start+i]))
		start += i + 1
	}
	for len(dst) < width {
		dst = append(dst, nil)
	}
	return dst
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
