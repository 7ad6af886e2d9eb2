// Package obslog is a thin wrapper around the standard logger, built
// explicitly and threaded through call sites instead of used as a
// package global (Design Note: "module-level mutable service globals").
package obslog

import (
	"io"
	"log"
	"os"
)

// Logger is a minimal structured-ish logger: a prefix plus the stdlib
// logger underneath.
type Logger struct {
	*log.Logger
}

// New creates a Logger writing to w with the given prefix (e.g. a request
// ID), or to os.Stderr if w is nil.
func New(prefix string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	if prefix != "" {
		prefix = "[" + prefix + "] "
	}
	return &Logger{Logger: log.New(w, prefix, log.LstdFlags)}
}

// Nop returns a Logger that discards everything, for tests.
func Nop() *Logger {
	return &Logger{Logger: log.New(io.Discard, "", 0)}
}
