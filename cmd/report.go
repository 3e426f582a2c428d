package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/krpsim/krpsim/sim"
)

// RunReport is the YAML summary written by optimize --report.
type RunReport struct {
	RunID      string           `yaml:"run_id"`
	CreatedAt  string           `yaml:"created_at"`
	Rules      string           `yaml:"rules"`
	Trace      string           `yaml:"trace"`
	Target     string           `yaml:"target"`
	Config     RunConfig        `yaml:"config"`
	ElapsedMs  int64            `yaml:"elapsed_ms"`
	Search     SearchReport     `yaml:"search"`
	Projection ProjectionReport `yaml:"projection"`
}

// SearchReport summarizes the trials and the retained best trial.
type SearchReport struct {
	Trials      int     `yaml:"trials"`
	Viable      int     `yaml:"viable_trials"`
	ScoreMean   float64 `yaml:"score_mean"`
	ScoreStdDev float64 `yaml:"score_stddev"`
	BestTrial   int     `yaml:"best_trial"`
	BestScore   float64 `yaml:"best_score"`
	Produced    int64   `yaml:"produced"`
	BestViable  bool    `yaml:"best_viable"`
	Period      int64   `yaml:"period"`
	Starts      int     `yaml:"starts"`
}

// ProjectionReport summarizes the emitted trace.
type ProjectionReport struct {
	Iterations int              `yaml:"iterations"`
	EndCycle   int64            `yaml:"end_cycle"`
	FinalStock map[string]int64 `yaml:"final_stock"`
}

// NewRunReport assembles a report from a finished run.
func NewRunReport(rulesPath, tracePath, target string, cfg RunConfig, result *sim.SearchResult, proj *sim.Projection, elapsed time.Duration) *RunReport {
	best := result.Best
	return &RunReport{
		RunID:     uuid.Must(uuid.NewV7()).String(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Rules:     rulesPath,
		Trace:     tracePath,
		Target:    target,
		Config:    cfg,
		ElapsedMs: elapsed.Milliseconds(),
		Search: SearchReport{
			Trials:      result.Trials,
			Viable:      result.ViableCount,
			ScoreMean:   result.MeanScore,
			ScoreStdDev: result.StdDevScore,
			BestTrial:   best.Index,
			BestScore:   best.Score,
			Produced:    best.Produced,
			BestViable:  best.Viable,
			Period:      best.Schedule.LastCycle(),
			Starts:      best.Schedule.Invocations(),
		},
		Projection: ProjectionReport{
			Iterations: proj.Iterations,
			EndCycle:   proj.EndCycle,
			FinalStock: proj.Stock,
		},
	}
}

// WriteRunReport marshals report as YAML to path.
func WriteRunReport(path string, report *RunReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}
