// Package verify replays a trace against a rule set and certifies that every
// process start was legal. It shares the data model with the optimizer but
// none of its code paths, so it re-derives legality from scratch.
package verify

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/krpsim/krpsim/sim"
	"github.com/krpsim/krpsim/sim/trace"
)

// Report describes a trace that passed verification.
type Report struct {
	Initial    sim.Stock
	Final      sim.Stock
	LastCycle  int64
	Lines      int
	Terminated bool     // a terminal line was reached before end of input
	Processes  []string // processes started at least once, sorted
}

// Verifier is a single-pass state machine over trace lines.
//
// Per-process run state (start cycles, seen set) lives here, never on the
// shared catalog. Not safe for concurrent use.
type Verifier struct {
	catalog *sim.Catalog
	initial sim.Stock
	stock   sim.Stock

	cycle    int64 // cycle of the last accepted line; -1 before the first
	lines    int
	done     bool
	previous *sim.Process
	maxDelay int64 // largest delay started at the current cycle
	starts   map[string]int64
	seen     map[string]bool
}

// New creates a Verifier starting from a private copy of initial.
func New(catalog *sim.Catalog, initial sim.Stock) *Verifier {
	return &Verifier{
		catalog: catalog,
		initial: initial.Clone(),
		stock:   initial.Clone(),
		cycle:   -1,
		starts:  make(map[string]int64),
		seen:    make(map[string]bool),
	}
}

// Run verifies a whole trace. It stops at the first violation, which is
// returned as a *Error; lines after it are never read.
func (v *Verifier) Run(r io.Reader) (*Report, error) {
	tr := trace.NewReader(r)
	for !v.done {
		rec, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var lineErr *trace.LineError
		if errors.As(err, &lineErr) {
			return nil, v.fail(MalformedLine, lineErr.Line, v.lastCycle(), "", lineErr.Text)
		}
		if err != nil {
			return nil, err
		}
		if err := v.Step(rec); err != nil {
			return nil, err
		}
	}
	if v.lines == 0 {
		return nil, v.fail(EmptyTrace, 0, 0, "", "")
	}
	return v.Report(), nil
}

// Step applies one decoded trace line. Lines after a terminal line are ignored.
func (v *Verifier) Step(rec trace.Record) error {
	if v.done {
		return nil
	}
	v.lines++
	line := v.lines

	p, known := v.catalog.Lookup(rec.Process)
	if !known && !rec.IsTerminal() {
		return v.fail(UndefinedProcess, line, rec.Cycle, rec.Process, "")
	}
	if rec.Cycle < 0 {
		return v.fail(NegativeCycle, line, rec.Cycle, rec.Process, "")
	}
	if rec.Cycle < v.cycle {
		return v.fail(CycleRegression, line, rec.Cycle, rec.Process,
			fmt.Sprintf("previous line was at cycle %d", v.cycle))
	}
	if rec.IsTerminal() {
		v.cycle = rec.Cycle
		v.done = true
		logrus.Debugf("[cycle %07d] terminal line reached after %d lines", rec.Cycle, line)
		return nil
	}

	if !v.stock.Covers(p.Needs) {
		return v.fail(DependencyNotSatisfied, line, rec.Cycle, rec.Process,
			fmt.Sprintf("needed %s, available %s", sim.Stock(p.Needs), v.available(p.Needs)))
	}

	changed := rec.Cycle != v.cycle
	if changed && p.Delay > 0 && v.previous != nil && feeds(v.previous, p) {
		gap := rec.Cycle - v.starts[v.previous.Name]
		if gap != v.maxDelay {
			return v.fail(DelayCondition, line, rec.Cycle, rec.Process,
				fmt.Sprintf("started %d cycles after %s, expected %d", gap, v.previous.Name, v.maxDelay))
		}
	}
	if changed {
		v.maxDelay = 0
	}

	v.stock.Sub(p.Needs)
	v.stock.Add(p.Results)
	v.starts[p.Name] = rec.Cycle
	v.maxDelay = max(v.maxDelay, p.Delay)
	v.seen[p.Name] = true
	v.previous = p
	v.cycle = rec.Cycle
	return nil
}

// Report returns the verifier's current state as a Report.
func (v *Verifier) Report() *Report {
	processes := make([]string, 0, len(v.seen))
	for name := range v.seen {
		processes = append(processes, name)
	}
	sort.Strings(processes)
	return &Report{
		Initial:    v.initial.Clone(),
		Final:      v.stock.Clone(),
		LastCycle:  v.lastCycle(),
		Lines:      v.lines,
		Terminated: v.done,
		Processes:  processes,
	}
}

// Lines returns how many trace lines have been consumed.
func (v *Verifier) Lines() int {
	return v.lines
}

func (v *Verifier) lastCycle() int64 {
	return max(v.cycle, 0)
}

// available renders the current quantity of each need the stock cannot
// cover, zeros included, as "a:1 b:0".
func (v *Verifier) available(needs map[string]int64) string {
	names := v.stock.Missing(needs)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s:%d", name, v.stock.Get(name))
	}
	return strings.Join(parts, " ")
}

func (v *Verifier) fail(code Code, line int, cycle int64, process, detail string) error {
	return &Error{
		Code:    code,
		Line:    line,
		Cycle:   cycle,
		Process: process,
		Detail:  detail,
		Stock:   v.stock.Clone(),
	}
}

// feeds reports whether next needs anything prev produces.
func feeds(prev, next *sim.Process) bool {
	for name := range next.Needs {
		if prev.Produces(name) {
			return true
		}
	}
	return false
}
