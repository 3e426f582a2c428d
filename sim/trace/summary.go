package trace

import (
	"fmt"
	"sort"
)

// ProcessSummary aggregates the starts of one process in a trace.
type ProcessSummary struct {
	Name   string
	Count  int     // total starts
	Cycles []int64 // distinct start cycles, ascending
}

// First returns the earliest start cycle.
func (p ProcessSummary) First() int64 { return p.Cycles[0] }

// Last returns the latest start cycle.
func (p ProcessSummary) Last() int64 { return p.Cycles[len(p.Cycles)-1] }

// Period returns the gap between the first two start cycles, or 0.
func (p ProcessSummary) Period() int64 {
	if len(p.Cycles) < 2 {
		return 0
	}
	return p.Cycles[1] - p.Cycles[0]
}

// PerCycle returns the average number of starts per distinct start cycle.
func (p ProcessSummary) PerCycle() int {
	return p.Count / len(p.Cycles)
}

// Describe renders the summary as a single human-readable line.
func (p ProcessSummary) Describe() string {
	if len(p.Cycles) == 1 {
		return fmt.Sprintf("===> %s: at cycle %d: (%d times)", p.Name, p.First(), p.Count)
	}
	return fmt.Sprintf("===> %s: %d iterations from cycle %d to cycle %d, (%d times) every %d cycles (%d times in total)",
		p.Name, len(p.Cycles), p.First(), p.Last(), p.PerCycle(), p.Period(), p.Count)
}

// TraceSummary aggregates statistics from a trace.
type TraceSummary struct {
	Processes []ProcessSummary // in order of first appearance
	Starts    int
	EndCycle  int64 // cycle of the terminal record, or of the last start when there is none
}

// Summarize computes per-process statistics from records.
// Safe for nil or empty input (returns zero-value fields).
func Summarize(records []Record) *TraceSummary {
	summary := &TraceSummary{}
	index := make(map[string]int)
	seen := make(map[string]map[int64]bool)

	for _, r := range records {
		summary.EndCycle = r.Cycle
		if r.IsTerminal() {
			break
		}
		summary.Starts++
		i, ok := index[r.Process]
		if !ok {
			i = len(summary.Processes)
			index[r.Process] = i
			summary.Processes = append(summary.Processes, ProcessSummary{Name: r.Process})
			seen[r.Process] = make(map[int64]bool)
		}
		ps := &summary.Processes[i]
		ps.Count++
		if !seen[r.Process][r.Cycle] {
			seen[r.Process][r.Cycle] = true
			ps.Cycles = append(ps.Cycles, r.Cycle)
		}
	}
	for i := range summary.Processes {
		cycles := summary.Processes[i].Cycles
		sort.Slice(cycles, func(a, b int) bool { return cycles[a] < cycles[b] })
	}
	return summary
}
