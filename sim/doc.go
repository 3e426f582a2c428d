// Package sim provides the schedule search engine for krpsim.
//
// # Reading Guide
//
// Start with these files to understand one search trial:
//   - stock.go, process.go: the stock ledger and the immutable process catalog
//   - candidate.go: backward, randomized construction of a process multiset
//   - simulator.go, event.go: the discrete-event loop that packs the multiset into cycles
//   - score.go: throughput score, viability and the total order between trials
//
// Then search.go, which runs many trials in parallel and keeps the best, and
// projector.go, which repeats the best schedule into a linear trace.
//
// # Architecture
//
// Rule files are parsed by sim/rules; traces are encoded by sim/trace and
// checked by sim/verify, which shares the data model but none of the
// optimizer's code paths.
//
// # Determinism
//
// Every trial draws from its own generator derived from the master seed and
// the trial index (rng.go). For a fixed seed and trial budget the selected
// schedule does not depend on the number of workers.
package sim
