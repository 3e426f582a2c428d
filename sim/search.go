package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// ErrNoTrials is returned when a search finishes without a single trial.
var ErrNoTrials = errors.New("search completed no trial")

// SearchConfig groups the budgets of one optimization run.
type SearchConfig struct {
	MaxTrials       int           // upper bound on independent trials (must be > 0)
	TimeBudget      time.Duration // wall-clock budget, checked between trials
	MaxCycle        int64         // simulation horizon per trial (must be > 0)
	MaxInstructions int           // candidate builder budget per trial (must be > 0)
	Workers         int           // parallel trial workers (0 = GOMAXPROCS)
	Seed            int64         // master seed for per-trial RNG derivation
	Start           time.Time     // time the budget is measured from (zero = Run start)
}

// Validate checks budgets for values the search cannot run with.
func (c SearchConfig) Validate() error {
	if c.MaxTrials < 1 {
		return fmt.Errorf("max trials must be positive, got %d", c.MaxTrials)
	}
	if c.MaxCycle < 1 {
		return fmt.Errorf("max cycle must be positive, got %d", c.MaxCycle)
	}
	if c.MaxInstructions < 1 {
		return fmt.Errorf("max instructions must be positive, got %d", c.MaxInstructions)
	}
	if c.TimeBudget < 0 {
		return fmt.Errorf("time budget must be non-negative, got %v", c.TimeBudget)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}

// Trial is one independent build → simulate → score run.
type Trial struct {
	Index      int
	Candidates *Candidates
	Schedule   Schedule
	Final      Stock
	Evaluation
}

// SearchResult is what the search controller retains after all trials.
type SearchResult struct {
	Best        *Trial
	Trials      int
	ViableCount int
	Elapsed     time.Duration
	MeanScore   float64
	StdDevScore float64
}

// Optimizer runs bounded independent trials over a shared, read-only rule set
// and keeps the best one.
type Optimizer struct {
	catalog *Catalog
	initial Stock
	target  string
	cfg     SearchConfig
	rng     *PartitionedRNG
}

// NewOptimizer creates an Optimizer. The catalog and initial stock are shared
// by every trial and must not be modified while the optimizer runs.
func NewOptimizer(catalog *Catalog, initial Stock, target string, cfg SearchConfig) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Optimizer{
		catalog: catalog,
		initial: initial,
		target:  target,
		cfg:     cfg,
		rng:     NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
	}, nil
}

// RunTrial executes trial n. It only reads shared state, so trials may run
// concurrently.
func (o *Optimizer) RunTrial(n int) *Trial {
	candidates := BuildCandidates(o.target, o.catalog, o.initial, o.cfg.MaxInstructions, o.rng.ForTrial(n))
	schedule, final := Simulate(candidates.Counts, o.catalog, o.initial, o.cfg.MaxCycle)
	return &Trial{
		Index:      n,
		Candidates: candidates,
		Schedule:   schedule,
		Final:      final,
		Evaluation: Evaluate(schedule, final, o.initial, o.target),
	}
}

// Run executes trials until MaxTrials is reached, the time budget is spent,
// or ctx is cancelled. Budgets are checked only between trials; a trial that
// has started always finishes. Trial 0 always runs.
func (o *Optimizer) Run(ctx context.Context) (*SearchResult, error) {
	start := o.cfg.Start
	if start.IsZero() {
		start = time.Now()
	}
	workers := max(1, min(o.cfg.Workers, o.cfg.MaxTrials))

	var (
		next   atomic.Int64
		mu     sync.Mutex
		best   *Trial
		scores = make([]float64, 0, min(o.cfg.MaxTrials, 1<<16))
		viable int
	)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				n := int(next.Add(1) - 1)
				if n >= o.cfg.MaxTrials {
					return nil
				}
				if n > 0 && (gctx.Err() != nil || time.Since(start) > o.cfg.TimeBudget) {
					return nil
				}
				trial := o.RunTrial(n)
				logrus.Debugf("[trial %05d] score=%.4f produced=%d viable=%v invocations=%d",
					n, trial.Score, trial.Produced, trial.Viable, trial.Schedule.Invocations())

				mu.Lock()
				scores = append(scores, trial.Score)
				if trial.Viable {
					viable++
				}
				if best == nil || Better(trial.Evaluation, best.Evaluation) ||
					(!Better(best.Evaluation, trial.Evaluation) && trial.Index < best.Index) {
					best = trial
				}
				mu.Unlock()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if best == nil {
		return nil, ErrNoTrials
	}

	result := &SearchResult{
		Best:        best,
		Trials:      len(scores),
		ViableCount: viable,
		Elapsed:     time.Since(start),
	}
	if len(scores) > 1 {
		result.MeanScore, result.StdDevScore = stat.MeanStdDev(scores, nil)
	} else {
		result.MeanScore = scores[0]
	}
	logrus.Infof("Search finished: %d trials (%d viable) in %v, best trial %d score=%.4f produced=%d",
		result.Trials, viable, result.Elapsed, best.Index, best.Score, best.Produced)
	return result, nil
}
