package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "job.json")
	body := `{
		"input": "exports/users.dsv",
		"output": "out/users.csv",
		"delimiter": "|",
		"fields": "0,3",
		"filter_equal": "1,2",
		"workers": 8,
		"unique": true,
		"sink": {"kind": "file"}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	j, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if j.Input != "exports/users.dsv" || j.Delimiter != "|" || j.Fields != "0,3" {
		t.Fatalf("unexpected job: %+v", j)
	}
	if !j.Unique || j.Workers != 8 || j.Sink.Kind != "file" {
		t.Fatalf("unexpected job: %+v", j)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "job.json")
	if err := os.WriteFile(path, []byte(`{"inpt": "typo.dsv"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected decode error for unknown field")
	}
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	var j Job
	j.ApplyDefaults()
	if j.Delimiter != ":" || j.Fields != "1,2" || j.Sink.Kind != "file" {
		t.Fatalf("defaults not applied: %+v", j)
	}

	j = Job{Delimiter: "|", Fields: "0", Sink: Sink{Kind: "postgres"}}
	j.ApplyDefaults()
	if j.Delimiter != "|" || j.Fields != "0" || j.Sink.Kind != "postgres" {
		t.Fatalf("defaults overwrote explicit values: %+v", j)
	}
}

func TestDelimiterByte(t *testing.T) {
	t.Parallel()

	j := Job{Delimiter: ":"}
	b, err := j.DelimiterByte()
	if err != nil || b != ':' {
		t.Fatalf("got %q, %v", b, err)
	}

	for _, bad := range []string{"", "::", "é"} {
		j := Job{Delimiter: bad}
		if _, err := j.DelimiterByte(); err == nil {
			t.Errorf("delimiter %q accepted", bad)
		}
	}
}

func TestParseIndexList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "1,2", want: []int{1, 2}},
		{in: "3, 0, 3", want: []int{3, 0, 3}},
		{in: "0", want: []int{0}},
		{in: "", wantErr: true},
		{in: "1,,2", wantErr: true},
		{in: "1,-2", wantErr: true},
		{in: "a,b", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseIndexList(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseIndexList(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseIndexList(%q): %v", tc.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseIndexList(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseIndexPair(t *testing.T) {
	t.Parallel()

	pair, err := ParseIndexPair("4,7")
	if err != nil || pair != [2]int{4, 7} {
		t.Fatalf("got %v, %v", pair, err)
	}
	for _, bad := range []string{"1", "1,2,3", ""} {
		if _, err := ParseIndexPair(bad); err == nil {
			t.Errorf("pair %q accepted", bad)
		}
	}
}
