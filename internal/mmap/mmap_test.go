package mmap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_ReadsContents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.txt")
	content := []byte("alpha:beta\ngamma:delta\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	v, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer v.Close()

	if v.Len() != len(content) {
		t.Fatalf("len = %d, want %d", v.Len(), len(content))
	}
	if !bytes.Equal(v.Bytes(), content) {
		t.Fatalf("mapped bytes differ from file contents")
	}
}

func TestOpen_EmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	v, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if v.Len() != 0 {
		t.Fatalf("len = %d, want 0", v.Len())
	}
	if err := v.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()

	if _, err := Open(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestClose_ReleasesMapping(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	v, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := v.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if v.Bytes() != nil {
		t.Fatalf("bytes still set after close")
	}
}
