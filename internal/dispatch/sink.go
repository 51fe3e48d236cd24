package dispatch

import (
	"fmt"
	"io"
	"strings"
)

// RowSink receives the rows produced by a list command
type RowSink interface {
	Row(fields ...string) error
	Flush() error
}

// SinkFactory creates a RowSink for a listing with the given column headers.
// sep is the delimiter used by plain text output.
type SinkFactory func(out io.Writer, headers []string, sep string) RowSink

// TextSink writes each row as one delimited line, without headers
func TextSink(out io.Writer, headers []string, sep string) RowSink {
	return &textSink{out: out, sep: sep}
}

type textSink struct {
	out io.Writer
	sep string
}

func (s *textSink) Row(fields ...string) error {
	_, err := fmt.Fprintln(s.out, strings.Join(fields, s.sep))
	return err
}

func (s *textSink) Flush() error {
	return nil
}
