// Package logging builds the log15 loggers used across shotty.
package logging

import (
	"fmt"
	"io"

	"github.com/inconshreveable/log15"
)

// New returns a logger writing logfmt records at or above level to w
func New(level string, w io.Writer) (log15.Logger, error) {
	lvl, err := log15.LvlFromString(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	l := log15.New()
	l.SetHandler(log15.LvlFilterHandler(lvl, log15.StreamHandler(w, log15.LogfmtFormat())))
	return l, nil
}

// Discard returns a logger that drops every record
func Discard() log15.Logger {
	l := log15.New()
	l.SetHandler(log15.DiscardHandler())
	return l
}
