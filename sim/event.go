package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event has a Timestamp (in cycles) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() int64
	Execute(*Simulator)
}

// ReleaseEvent delivers the results of one committed process invocation.
type ReleaseEvent struct {
	time    int64    // Cycle at which the results become available
	Process *Process // The invocation whose results are released
}

// Timestamp returns the release cycle.
func (e *ReleaseEvent) Timestamp() int64 {
	return e.time
}

// Execute adds the process results to the simulator stock.
func (e *ReleaseEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Release: %s at cycle %d", e.Process.Name, e.time)
	sim.Stock.Add(e.Process.Results)
}
