// Package trace reads and writes schedule traces: one "cycle:process" line per
// process start, closed by a terminal line.
// This package has no dependencies on sim/; it stores pure data types.
package trace

import "strconv"

// Terminal is the reserved process name that ends a trace.
const Terminal = "no_more_process_doable"

// Record is one trace line: a process started at a cycle.
type Record struct {
	Cycle   int64
	Process string
}

// IsTerminal reports whether r is the closing line of a trace.
func (r Record) IsTerminal() bool {
	return r.Process == Terminal
}

// String renders r in trace line format.
func (r Record) String() string {
	return strconv.FormatInt(r.Cycle, 10) + ":" + r.Process
}
