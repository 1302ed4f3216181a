// Package logging builds the apex/log loggers shared by the nvpn commands.
package logging

import (
	"io"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/discard"
)

// New returns a logger writing human-readable lines to w. Debug entries are
// only emitted when verbose is set.
func New(w io.Writer, verbose bool) log.Interface {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return &log.Logger{Handler: cli.New(w), Level: level}
}

// Discard drops everything. Used by tests and as the zero-value fallback.
func Discard() log.Interface {
	return &log.Logger{Handler: discard.New(), Level: log.FatalLevel}
}
