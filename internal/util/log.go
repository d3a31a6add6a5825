package util

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// NewLogger returns a logger writing to w.
// Errors are always written, V(1) messages need a verbosity of 1 (-v)
// and V(2) messages a verbosity of 2 (-vv).
func NewLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity, LogTimestamp: verbosity > 1})
}

// Exit writes the error to stderr and exits with 1
func Exit(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
	}
	os.Exit(1)
}
