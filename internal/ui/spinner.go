package ui

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// Progress returns a function that shows a spinner with a message on w until the
// returned stop func is called. Nothing is drawn when w is not a terminal.
func Progress(w io.Writer) func(msg string) (stop func()) {
	if !IsTerminal(w) {
		return func(string) func() { return func() {} }
	}

	return func(msg string) func() {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
		s.Suffix = " " + msg
		s.Start()
		return s.Stop
	}
}

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
