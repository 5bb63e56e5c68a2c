package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validJob() Job {
	j := Job{
		Input:  "in.dsv",
		Output: "out.csv",
	}
	j.ApplyDefaults()
	return j
}

func TestValidateJob_ValidMinimal(t *testing.T) {
	t.Parallel()

	if issues := ValidateJob(validJob()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidateJob_MissingInput(t *testing.T) {
	t.Parallel()

	j := validJob()
	j.Input = " "
	issues := ValidateJob(j)
	if !hasIssue(t, issues, SeverityError, "input", "must not be empty") {
		t.Fatalf("expected input error; got %+v", issues)
	}
}

func TestValidateJob_BadDelimiter(t *testing.T) {
	t.Parallel()

	j := validJob()
	j.Delimiter = "||"
	issues := ValidateJob(j)
	if !hasIssue(t, issues, SeverityError, "delimiter", "exactly one byte") {
		t.Fatalf("expected delimiter error; got %+v", issues)
	}
}

func TestValidateJob_BadFields(t *testing.T) {
	t.Parallel()

	j := validJob()
	j.Fields = "1,x"
	issues := ValidateJob(j)
	if !hasIssue(t, issues, SeverityError, "fields", "not an integer") {
		t.Fatalf("expected fields error; got %+v", issues)
	}
}

func TestValidateJob_FilterSameColumnWarns(t *testing.T) {
	t.Parallel()

	j := validJob()
	j.FilterEqual = "3,3"
	issues := ValidateJob(j)
	if !hasIssue(t, issues, SeverityWarning, "filter_equal", "both filter columns") {
		t.Fatalf("expected filter warning; got %+v", issues)
	}
}

func TestValidateJob_NegativeWorkers(t *testing.T) {
	t.Parallel()

	j := validJob()
	j.Workers = -1
	issues := ValidateJob(j)
	if !hasIssue(t, issues, SeverityError, "workers", "negative") {
		t.Fatalf("expected workers error; got %+v", issues)
	}
}

func TestValidateJob_FileSinkNeedsOutput(t *testing.T) {
	t.Parallel()

	j := validJob()
	j.Output = ""
	issues := ValidateJob(j)
	if !hasIssue(t, issues, SeverityError, "output", "output path") {
		t.Fatalf("expected output error; got %+v", issues)
	}
}

func TestValidateJob_PostgresSink(t *testing.T) {
	t.Parallel()

	j := validJob()
	j.Output = ""
	j.Sink.Kind = "postgres"
	issues := ValidateJob(j)
	if !hasIssue(t, issues, SeverityError, "sink.postgres.dsn", "requires a DSN") {
		t.Fatalf("expected dsn error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "sink.postgres.table", "requires a table") {
		t.Fatalf("expected table error; got %+v", issues)
	}

	j.Sink.Postgres.DSN = "postgres://user@localhost/db"
	j.Sink.Postgres.Table = "public.extract"
	j.Sink.Postgres.Columns = []string{"only_one"} // fields default is "1,2"
	issues = ValidateJob(j)
	if !hasIssue(t, issues, SeverityError, "sink.postgres.columns", "does not match selector width") {
		t.Fatalf("expected columns error; got %+v", issues)
	}

	j.Sink.Postgres.Columns = []string{"email", "name"}
	j.Unique = true
	issues = ValidateJob(j)
	if !hasIssue(t, issues, SeverityWarning, "unique", "file sink") {
		t.Fatalf("expected unique warning; got %+v", issues)
	}
}

func TestValidateJob_UnknownSinkKind(t *testing.T) {
	t.Parallel()

	j := validJob()
	j.Sink.Kind = "s3"
	issues := ValidateJob(j)
	if !hasIssue(t, issues, SeverityError, "sink.kind", "unknown sink kind") {
		t.Fatalf("expected sink kind error; got %+v", issues)
	}
}
