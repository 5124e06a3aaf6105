package diagnostics

import "fmt"

// Sink receives diagnostics as they are reported
type Sink interface {
	Report(d *Diagnostic)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(d *Diagnostic)

// Report calls f(d)
func (f SinkFunc) Report(d *Diagnostic) { f(d) }

// FatalError is returned when accumulated errors are escalated at a checkpoint
type FatalError struct {
	Stage       string
	Diagnostics List
}

// Error implements the error interface
func (e *FatalError) Error() string {
	errs, _, _ := e.Diagnostics.ErrorCount()
	return fmt.Sprintf("%s: %d error(s) reported", e.Stage, errs)
}

// Collector accumulates diagnostics and forwards them to an optional sink.
// Errors are only escalated when Checkpoint is called.
type Collector struct {
	all     List
	pending int
	sink    Sink
}

// NewCollector creates a collector forwarding to sink (which may be nil)
func NewCollector(sink Sink) *Collector {
	return &Collector{sink: sink}
}

// Report records a diagnostic
func (c *Collector) Report(d *Diagnostic) {
	c.all = append(c.all, d)
	if d.Severity == SeverityError {
		c.pending++
	}
	if c.sink != nil {
		c.sink.Report(d)
	}
}

// Diagnostics returns every diagnostic reported so far
func (c *Collector) Diagnostics() List {
	out := make(List, len(c.all))
	copy(out, c.all)
	return out
}

// Checkpoint returns a *FatalError if any error has been reported so far
func (c *Collector) Checkpoint(stage string) error {
	if c.pending == 0 {
		return nil
	}
	return &FatalError{Stage: stage, Diagnostics: c.Diagnostics()}
}
