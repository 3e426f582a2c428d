package sim

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/krpsim/krpsim/sim/trace"
)

// ProjectConfig bounds how far a schedule is repeated.
type ProjectConfig struct {
	MaxCycle int64     // no repetition may end past this cycle
	Deadline time.Time // wall-clock limit, checked after each repetition (zero = none)
}

// Projection is the linear trace produced by repeating the best schedule.
type Projection struct {
	// Records holds every emitted start followed by the terminal record.
	Records []trace.Record
	// Iterations is how many times the schedule pattern was emitted.
	Iterations int
	// Stock is the live stock after all repetitions were applied.
	Stock Stock
	// EndCycle is the cycle of the terminal record.
	EndCycle int64
}

// Project repeats the best trial's schedule, shifted by its last cycle each
// time, for as long as the live stock can absorb the trial's net stock change.
//
// initial is the stock the trial started from and live the externally tracked
// pool the repetitions draw on. Neither is modified.
func Project(best *Trial, initial, live Stock, cfg ProjectConfig) *Projection {
	p := &Projection{Stock: live.Clone()}
	schedule := best.Schedule
	period := schedule.LastCycle()
	delta := Delta(initial, best.Final)

	for schedule.Starts() && fits(period, p.Iterations+1, cfg.MaxCycle) && canApply(p.Stock, delta) {
		apply(p.Stock, delta)
		offset := period * int64(p.Iterations)
		for _, entry := range schedule {
			for _, name := range entry.Processes {
				p.Records = append(p.Records, trace.Record{Cycle: entry.Cycle + offset, Process: name})
			}
		}
		p.Iterations++
		// a zero-length period would repeat at the same cycles forever
		if period == 0 {
			break
		}
		if !cfg.Deadline.IsZero() && time.Now().After(cfg.Deadline) {
			logrus.Warnf("Projection stopped by time budget after %d iterations", p.Iterations)
			break
		}
	}

	p.EndCycle = period*int64(p.Iterations) + 1
	p.Records = append(p.Records, trace.Record{Cycle: p.EndCycle, Process: trace.Terminal})
	logrus.Infof("Projected %d iterations of a %d-cycle schedule, %d starts",
		p.Iterations, period, len(p.Records)-1)
	return p
}

// fits reports whether n repetitions of period end at or before maxCycle.
func fits(period int64, n int, maxCycle int64) bool {
	if period == 0 {
		return maxCycle >= 0
	}
	return int64(n) <= maxCycle/period
}

func canApply(live Stock, delta map[string]int64) bool {
	for name, d := range delta {
		if live.Get(name)+d < 0 {
			return false
		}
	}
	return true
}

func apply(live Stock, delta map[string]int64) {
	for name, d := range delta {
		live.Set(name, live.Get(name)+d)
	}
}
