// Package format turns the raw text of a source file into a dataset.
// Parsers are pure: contents in, records and statistics out.
package format

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"dragonmasher/internal/dataset"
)

var (
	ErrMalformedRow   = errors.New("malformed row")
	ErrUnparsableLine = errors.New("unparsable dictionary line")
)

// RowError describes a line that was skipped while parsing a file.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Stats holds parser statistics for logging.
type Stats struct {
	Files     int
	Lines     int
	Rows      int
	Skipped   int
	Malformed int
	Problems  []*RowError
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Files += o.Files
	s.Lines += o.Lines
	s.Rows += o.Rows
	s.Skipped += o.Skipped
	s.Malformed += o.Malformed
	s.Problems = append(s.Problems, o.Problems...)
}

func (s *Stats) malformed(file string, line int, err error) {
	s.Malformed++
	s.Problems = append(s.Problems, &RowError{File: file, Line: line, Err: err})
}

// Format parses the full contents of one file. prefix is prepended to every
// attribute name, e.g. "HSK-".
type Format interface {
	ParseFile(name, contents, prefix string) (dataset.Dataset, Stats)
}

// HasIdeograph reports whether s contains at least one CJK ideograph.
func HasIdeograph(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// lines splits contents on newlines, dropping a leading byte order mark
// and trailing carriage returns.
func lines(contents string) []string {
	contents = strings.TrimPrefix(contents, "\ufeff")
	out := strings.Split(contents, "\n")
	if n := len(out); n > 0 && out[n-1] == "" {
		out = out[:n-1]
	}
	for i, l := range out {
		out[i] = strings.TrimSuffix(l, "\r")
	}
	return out
}

func hasCommentPrefix(field string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.HasPrefix(field, m) {
			return true
		}
	}
	return false
}
