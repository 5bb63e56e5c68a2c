// Package probe samples the header row of a delimiter-separated file and
// reports each column's index alongside its raw and normalized name, so
// operators can pick selector indices without opening a multi-gigabyte file.
package probe

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxHeaderBytes bounds how much of the file is read looking for the first
// line terminator. Headers longer than this are treated as malformed.
const maxHeaderBytes = 1 << 20 // 1 MiB

// Column describes one header field.
type Column struct {
	Index      int
	Name       string
	Normalized string
}

// Inspect reads the first line of path and splits it on delim.
//
// A UTF-8 BOM on the first field is stripped. A file without any line
// terminator within maxHeaderBytes is an error; an empty file yields an
// empty column list.
func Inspect(path string, delim byte) ([]Column, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64<<10)
	header := make([]byte, 0, 256)
	for len(header) < maxHeaderBytes {
		chunk, err := r.ReadSlice('\n')
		header = append(header, chunk...)
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if len(header) == 0 {
			return nil, nil // empty file
		}
		break // unterminated single-line file; use what we have
	}
	header = bytes.TrimSuffix(header, []byte{'\n'})
	header = bytes.TrimSuffix(header, []byte{'\r'})
	if len(header) == 0 {
		return nil, nil
	}

	var cols []Column
	for i, raw := range bytes.Split(header, []byte{delim}) {
		name := string(raw)
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		cols = append(cols, Column{
			Index:      i,
			Name:       name,
			Normalized: NormalizeFieldName(name),
		})
	}
	return cols, nil
}

// NormalizeFieldName converts arbitrary header text into a lowercase ASCII
// identifier:
//  1. lowercase and trim
//  2. strip accents (NFD -> remove Mn -> NFC)
//  3. keep [a-z0-9_]; convert space/dash/dot to underscore; drop others
//  4. fallback to "col" if nothing survives
func NormalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}
