// Package diag is the compiler's diagnostics sink: phase-tagged progress
// lines written to stderr when the driver is run verbosely, mirroring the
// teacher's own "Phase N: ..." commentary gated behind a verbose flag.
package diag

import (
	"fmt"
	"io"
	"os"
)

// Sink collects phase-tagged diagnostic output. A nil *Sink is valid and
// silent, so callers that don't care about diagnostics can pass one
// around without a nil check at every call site.
type Sink struct {
	Verbose bool
	Out     io.Writer
}

// NewSink returns a Sink writing to stderr when verbose is true.
func NewSink(verbose bool) *Sink {
	return &Sink{Verbose: verbose, Out: os.Stderr}
}

// Logf writes one phase-tagged line if the sink is verbose.
func (s *Sink) Logf(phase, format string, args ...interface{}) {
	if s == nil || !s.Verbose {
		return
	}
	out := s.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "%s: %s\n", phase, fmt.Sprintf(format, args...))
}
