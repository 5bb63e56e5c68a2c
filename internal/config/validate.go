// This file adds a lightweight linter/validator for Job values. It performs
// static checks over a decoded Job and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests. Validation runs
// before any file I/O begins.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced to users
	// but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Job.
//
// Path is a dotted path into the config (e.g. "sink.postgres.dsn");
// Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateJob performs static validation of a Job. It does not mutate the
// job; callers decide whether to treat warnings as fatal.
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Input) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input",
			Message:  "input path must not be empty",
		})
	}

	if len(j.Delimiter) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "delimiter",
			Message:  fmt.Sprintf("delimiter must be exactly one byte, got %q", j.Delimiter),
		})
	}

	fields, err := ParseIndexList(j.Fields)
	if err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "fields",
			Message:  err.Error(),
		})
		fields = nil
	}

	if j.FilterEqual != "" {
		if pair, err := ParseIndexPair(j.FilterEqual); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "filter_equal",
				Message:  err.Error(),
			})
		} else if pair[0] == pair[1] {
			// Equal indices always compare equal: every row would be dropped.
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "filter_equal",
				Message:  fmt.Sprintf("both filter columns are %d; every row with that column will be dropped", pair[0]),
			})
		}
	}

	if j.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "workers",
			Message:  "workers must not be negative",
		})
	}

	issues = append(issues, validateSink(j, fields)...)

	return issues
}

// validateSink validates sink configuration against the rest of the job.
func validateSink(j Job, fields []int) []Issue {
	var issues []Issue

	switch j.Sink.Kind {
	case "file":
		if strings.TrimSpace(j.Output) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output",
				Message:  "file sink requires a non-empty output path",
			})
		}

	case "postgres":
		pg := j.Sink.Postgres
		if strings.TrimSpace(pg.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.postgres.dsn",
				Message:  "postgres sink requires a DSN",
			})
		}
		if strings.TrimSpace(pg.Table) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.postgres.table",
				Message:  "postgres sink requires a table name",
			})
		}
		if len(pg.Columns) > 0 && fields != nil && len(pg.Columns) != len(fields) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.postgres.columns",
				Message: fmt.Sprintf("column count %d does not match selector width %d",
					len(pg.Columns), len(fields)),
			})
		}
		if j.Unique {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "unique",
				Message:  "unique is only applied by the file sink; postgres COPY receives all rows",
			})
		}

	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.kind",
			Message:  fmt.Sprintf("unknown sink kind %q (want file or postgres)", j.Sink.Kind),
		})
	}

	return issues
}
