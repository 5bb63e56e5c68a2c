package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mrqs001/PulseCSV/internal/config"
	"github.com/mrqs001/PulseCSV/internal/engine"
	"github.com/mrqs001/PulseCSV/internal/metrics"
	"github.com/mrqs001/PulseCSV/internal/metrics/prompush"
	"github.com/mrqs001/PulseCSV/internal/probe"
	"github.com/mrqs001/PulseCSV/internal/progress"
	"github.com/mrqs001/PulseCSV/internal/sink"
)

// main is the entry point for the pulsecsv binary. It assembles a Job from an
// optional config file plus flags (flags win), validates it, optionally
// initializes a metrics backend, and runs the extraction.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validateOnly      bool
		probeOnly         bool
	)

	flag.StringVar(&cfgPath, "config", "", "job config JSON path (flags override its values)")
	input := flag.String("input", "", "input file path")
	output := flag.String("output", "", "output file path (file sink)")
	delimiter := flag.String("delimiter", "", `field separator byte (default ":")`)
	fields := flag.String("fields", "", `0-based column indices to extract (default "1,2")`)
	filterEqual := flag.String("filter-equal", "", `drop rows where columns "a,b" are equal`)
	workers := flag.Int("workers", 0, "worker pool size (0 = host parallelism)")
	unique := flag.Bool("unique", false, "suppress duplicate output rows (file sink only)")
	pgDSN := flag.String("pg-dsn", "", "postgres sink DSN (selects the postgres sink)")
	pgTable := flag.String("pg-table", "", "postgres sink destination table")
	pgColumns := flag.String("pg-columns", "", "comma-separated postgres column names")
	pgCreate := flag.Bool("pg-create-table", false, "create the postgres table when missing")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (e.g. pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validateOnly, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&probeOnly, "probe", false, "print the header columns of the input and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	var job config.Job
	if cfgPath != "" {
		var err error
		job, err = config.Load(cfgPath)
		if err != nil {
			fatalf("%v", err)
		}
	}
	mergeFlags(&job, *input, *output, *delimiter, *fields, *filterEqual,
		*workers, *unique, *pgDSN, *pgTable, *pgColumns, *pgCreate)
	job.ApplyDefaults()

	if probeOnly {
		runProbe(job)
		return
	}

	issues := config.ValidateJob(job)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("configuration is invalid")
		os.Exit(1)
	}
	if validateOnly {
		log.Printf("configuration is valid")
		os.Exit(0)
	}

	// Decide metrics backend: flag → env → default.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend("pulsecsv", gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
		} else {
			if *verbose {
				log.Printf("metrics: url=%v, backend=%v", gwURL, backendName)
			}
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains
		if *verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	// The run allocates one output buffer per chunk and frees nothing until
	// the sink drains them; a larger GC target avoids collecting mid-run.
	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(800)
	}

	if err := run(context.Background(), job, *verbose); err != nil {
		log.Fatalf("%v", err)
	}
}

// mergeFlags overlays non-zero flag values onto a job loaded from disk.
func mergeFlags(j *config.Job, input, output, delimiter, fields, filterEqual string,
	workers int, unique bool, pgDSN, pgTable, pgColumns string, pgCreate bool) {
	if input != "" {
		j.Input = input
	}
	if output != "" {
		j.Output = output
	}
	if delimiter != "" {
		j.Delimiter = delimiter
	}
	if fields != "" {
		j.Fields = fields
	}
	if filterEqual != "" {
		j.FilterEqual = filterEqual
	}
	if workers != 0 {
		j.Workers = workers
	}
	if unique {
		j.Unique = true
	}
	if pgDSN != "" {
		j.Sink.Kind = "postgres"
		j.Sink.Postgres.DSN = pgDSN
	}
	if pgTable != "" {
		j.Sink.Postgres.Table = pgTable
	}
	if pgColumns != "" {
		var cols []string
		for _, c := range strings.Split(pgColumns, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
		j.Sink.Postgres.Columns = cols
	}
	if pgCreate {
		j.Sink.Postgres.CreateTable = true
	}
}

// run executes one extraction job end to end.
func run(ctx context.Context, job config.Job, verbose bool) error {
	delim, err := job.DelimiterByte()
	if err != nil {
		return err
	}
	fieldIdx, err := config.ParseIndexList(job.Fields)
	if err != nil {
		return err
	}

	var filter *engine.EqualFilter
	if job.FilterEqual != "" {
		pair, err := config.ParseIndexPair(job.FilterEqual)
		if err != nil {
			return err
		}
		filter = &engine.EqualFilter{A: pair[0], B: pair[1]}
	}

	var rows atomic.Int64
	eng, err := engine.New(engine.Options{
		Delimiter:   delim,
		Fields:      fieldIdx,
		FilterEqual: filter,
		Workers:     job.Workers,
	}, &rows)
	if err != nil {
		return err
	}

	dst, cleanup, err := buildSink(ctx, job, len(fieldIdx))
	if err != nil {
		return err
	}
	defer cleanup()

	rep := progress.NewReporter(&rows, progress.DefaultInterval, os.Stderr)
	rep.Start()

	start := time.Now()
	sum, err := eng.Run(ctx, job.Input, dst)
	rep.Stop()
	metrics.RecordStage("run", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRows("processed", rows.Load())

	secs := sum.Elapsed.Seconds()
	if secs <= 0 {
		secs = 1e-9
	}
	log.Printf("done: %d rows (%d dropped), %d -> %d bytes, %d chunks, %s (%.1f MB/s)",
		sum.Rows, sum.Dropped, sum.BytesIn, sum.BytesOut, sum.Chunks,
		sum.Elapsed.Truncate(time.Millisecond),
		float64(sum.BytesIn)/(1<<20)/secs)
	if verbose {
		log.Printf("input=%s sink=%s workers=%d fields=%s",
			job.Input, job.Sink.Kind, job.Workers, job.Fields)
	}
	return nil
}

// buildSink constructs the configured sink and a cleanup closure.
func buildSink(ctx context.Context, job config.Job, width int) (engine.Sink, func(), error) {
	switch job.Sink.Kind {
	case "postgres":
		pg, err := sink.NewPostgres(ctx, job.Sink.Postgres, width)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil

	default: // "file", enforced by validation
		f, err := os.Create(job.Output)
		if err != nil {
			return nil, nil, fmt.Errorf("create output: %w", err)
		}
		cleanup := func() {
			if err := f.Close(); err != nil {
				log.Printf("close output: %v", err)
			}
		}
		return engine.FileSink{W: f, Unique: job.Unique}, cleanup, nil
	}
}

// runProbe prints the input's header columns and exits.
func runProbe(job config.Job) {
	if job.Input == "" {
		fatalf("probe: -input is required")
	}
	delim, err := job.DelimiterByte()
	if err != nil {
		fatalf("probe: %v", err)
	}
	cols, err := probe.Inspect(job.Input, delim)
	if err != nil {
		fatalf("probe: %v", err)
	}
	if len(cols) == 0 {
		fmt.Println("no header found")
		return
	}
	fmt.Printf("%-6s %-30s %s\n", "index", "name", "normalized")
	for _, c := range cols {
		fmt.Printf("%-6d %-30s %s\n", c.Index, c.Name, c.Normalized)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
