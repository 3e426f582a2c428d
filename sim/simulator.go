// sim/simulator.go
package sim

import (
	"container/heap"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// EventQueue implements heap.Interface and orders events by timestamp.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []Event

func (eq EventQueue) Len() int           { return len(eq) }
func (eq EventQueue) Less(i, j int) bool { return eq[i].Timestamp() < eq[j].Timestamp() }
func (eq EventQueue) Swap(i, j int)      { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// ScheduleEntry lists the processes started at one cycle.
type ScheduleEntry struct {
	Cycle     int64
	Processes []string
}

// Schedule is the ordered record of a simulation run. Cycles never decrease.
type Schedule []ScheduleEntry

// LastCycle returns the cycle of the final entry, or 0 for an empty schedule.
func (s Schedule) LastCycle() int64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Cycle
}

// Starts reports whether the first entry started at least one process.
func (s Schedule) Starts() bool {
	return len(s) > 0 && len(s[0].Processes) > 0
}

// Invocations returns the total number of process starts.
func (s Schedule) Invocations() int {
	n := 0
	for _, e := range s {
		n += len(e.Processes)
	}
	return n
}

// Simulator is the core object that holds simulation time, the trial stock,
// and the event loop for one trial.
type Simulator struct {
	Clock   int64
	Horizon int64
	// EventQueue holds pending result releases keyed by cycle
	EventQueue EventQueue
	// Stock is the trial's private working stock
	Stock   Stock
	Catalog *Catalog
	// Remaining counts invocations not yet committed, by process name
	Remaining map[string]int
	// Entries is the schedule built so far, one entry per visited cycle
	Entries Schedule
}

// NewSimulator prepares a simulation of counts against a private copy of initial.
// counts is copied; the caller's map is left untouched.
func NewSimulator(catalog *Catalog, counts map[string]int, initial Stock, horizon int64) *Simulator {
	remaining := make(map[string]int, len(counts))
	for name, n := range counts {
		if n > 0 {
			remaining[name] = n
		}
	}
	return &Simulator{
		Clock:      0,
		Horizon:    horizon,
		EventQueue: make(EventQueue, 0),
		Stock:      initial.Clone(),
		Catalog:    catalog,
		Remaining:  remaining,
		Entries:    make(Schedule, 0),
	}
}

// Schedule pushes an event into the simulator's EventQueue.
func (sim *Simulator) Schedule(ev Event) {
	heap.Push(&sim.EventQueue, ev)
}

// Run commits what it can at cycle 0, then jumps from one pending release
// cycle to the next, applying releases and committing again, until nothing
// is pending or the clock passes the horizon.
func (sim *Simulator) Run() {
	sim.record(sim.commit())
	for len(sim.EventQueue) > 0 && sim.Clock <= sim.Horizon {
		// advance the clock straight to the next release; idle cycles are skipped
		sim.Clock = sim.EventQueue[0].Timestamp()
		for len(sim.EventQueue) > 0 && sim.EventQueue[0].Timestamp() == sim.Clock {
			ev := heap.Pop(&sim.EventQueue).(Event)
			ev.Execute(sim)
		}
		sim.record(sim.commit())
	}
	logrus.Debugf("[cycle %07d] Simulation ended, %d entries", sim.Clock, len(sim.Entries))
}

func (sim *Simulator) record(started []string) {
	sim.Entries = append(sim.Entries, ScheduleEntry{Cycle: sim.Clock, Processes: started})
}

// commit starts every pending invocation the current stock can feed.
// Processes with more outstanding invocations go first; ties keep catalog order.
func (sim *Simulator) commit() []string {
	started := []string{}
	for _, p := range sim.commitOrder() {
		for sim.Remaining[p.Name] > 0 && sim.Stock.Covers(p.Needs) {
			sim.Stock.Sub(p.Needs)
			sim.Remaining[p.Name]--
			started = append(started, p.Name)
			sim.Schedule(&ReleaseEvent{time: releaseCycle(sim.Clock, p.Delay), Process: p})
		}
		if sim.Remaining[p.Name] == 0 {
			delete(sim.Remaining, p.Name)
		}
	}
	if len(started) > 0 {
		logrus.Debugf("[cycle %07d] Started %d invocations", sim.Clock, len(started))
	}
	return started
}

// releaseCycle returns clock+delay, saturating at math.MaxInt64.
func releaseCycle(clock, delay int64) int64 {
	if delay > math.MaxInt64-clock {
		return math.MaxInt64
	}
	return clock + delay
}

func (sim *Simulator) commitOrder() []*Process {
	order := make([]*Process, 0, len(sim.Remaining))
	for name := range sim.Remaining {
		if p, ok := sim.Catalog.Lookup(name); ok {
			order = append(order, p)
		}
	}
	sort.Slice(order, func(i, j int) bool {
		ci, cj := sim.Remaining[order[i].Name], sim.Remaining[order[j].Name]
		if ci != cj {
			return ci > cj
		}
		return sim.Catalog.Index(order[i].Name) < sim.Catalog.Index(order[j].Name)
	})
	return order
}

// Simulate runs the cycle scheduler for one candidate multiset and returns the
// schedule together with the trial's final stock.
func Simulate(counts map[string]int, catalog *Catalog, initial Stock, maxCycle int64) (Schedule, Stock) {
	sim := NewSimulator(catalog, counts, initial, maxCycle)
	sim.Run()
	return sim.Entries, sim.Stock
}
