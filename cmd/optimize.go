package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/krpsim/krpsim/sim"
	"github.com/krpsim/krpsim/sim/rules"
	"github.com/krpsim/krpsim/sim/trace"
)

// optimizeFlags holds CLI flags for the optimize command.
type optimizeFlags struct {
	configPath string    // optional YAML run config
	reportPath string    // optional YAML run report output
	run        RunConfig // flag values; applied over the config file only when set
}

func newOptimizeCommand() *cobra.Command {
	f := &optimizeFlags{run: DefaultRunConfig()}

	cmd := &cobra.Command{
		Use:   "optimize <rules-file> <delay-seconds>",
		Short: "Search for a schedule maximizing the optimization target",
		Long: `Search for a schedule maximizing the rule file's optimization target.

Independent randomized trials run until --process trials are done or
<delay-seconds> of wall-clock time have passed. The best schedule is repeated
while stock allows and written as a trace next to the rule file.`,
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := resolveRunConfig(f, cmd.Flags().Changed)
			if err != nil {
				logrus.Fatalf("Invalid configuration: %v", err)
			}
			budget, err := parseDelay(args[1])
			if err != nil {
				logrus.Fatalf("Invalid delay: %v", err)
			}
			if err := runOptimize(cmd.Context(), args[0], budget, cfg, f.reportPath, cmd.OutOrStdout()); err != nil {
				logrus.Fatalf("%v", err)
			}
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML run configuration file")
	cmd.Flags().StringVar(&f.reportPath, "report", "", "Write a YAML run report to this path")
	cmd.Flags().Int64VarP(&f.run.Cycles, "cycle", "c", f.run.Cycles, "Max number of cycles")
	cmd.Flags().IntVarP(&f.run.Trials, "process", "p", f.run.Trials, "Max number of search trials")
	cmd.Flags().IntVarP(&f.run.Instructions, "instructions", "i", f.run.Instructions, "Max instructions allowed while building one trial")
	cmd.Flags().IntVar(&f.run.Workers, "workers", f.run.Workers, "Parallel trial workers (0 = GOMAXPROCS)")
	cmd.Flags().Int64Var(&f.run.Seed, "seed", f.run.Seed, "Seed for trial randomization")
	cmd.Flags().StringVar(&f.run.Suffix, "suffix", f.run.Suffix, "Suffix appended to the rule file path for the trace file")

	return cmd
}

// resolveRunConfig layers defaults, the optional config file, and explicitly
// set flags, in that order.
func resolveRunConfig(f *optimizeFlags, changed func(string) bool) (RunConfig, error) {
	cfg := DefaultRunConfig()
	if f.configPath != "" {
		loaded, err := LoadRunConfig(f.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if changed("cycle") {
		cfg.Cycles = f.run.Cycles
	}
	if changed("process") {
		cfg.Trials = f.run.Trials
	}
	if changed("instructions") {
		cfg.Instructions = f.run.Instructions
	}
	if changed("workers") {
		cfg.Workers = f.run.Workers
	}
	if changed("seed") {
		cfg.Seed = f.run.Seed
	}
	if changed("suffix") {
		cfg.Suffix = f.run.Suffix
	}
	return cfg, cfg.Validate()
}

// parseDelay converts a delay in (possibly fractional) seconds.
func parseDelay(s string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("delay %q is not a number of seconds", s)
	}
	if secs < 0 {
		return 0, fmt.Errorf("delay must be non-negative, got %v", secs)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// runOptimize loads the rules, searches, projects the best schedule and
// writes the trace (and optional report).
func runOptimize(ctx context.Context, rulesPath string, budget time.Duration, cfg RunConfig, reportPath string, w io.Writer) error {
	start := time.Now()

	rs, err := rules.ParseFile(rulesPath)
	if err != nil {
		return err
	}
	printParsing(w, rs)

	logrus.Infof("Starting search: trials=%d, budget=%v, cycles=%d, instructions=%d, seed=%d",
		cfg.Trials, budget, cfg.Cycles, cfg.Instructions, cfg.Seed)

	opt, err := sim.NewOptimizer(rs.Catalog, rs.Stock, rs.Target, sim.SearchConfig{
		MaxTrials:       cfg.Trials,
		TimeBudget:      budget,
		MaxCycle:        cfg.Cycles,
		MaxInstructions: cfg.Instructions,
		Workers:         cfg.Workers,
		Seed:            cfg.Seed,
		Start:           start,
	})
	if err != nil {
		return err
	}
	result, err := opt.Run(ctx)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	proj := sim.Project(result.Best, rs.Stock, rs.Stock, sim.ProjectConfig{
		MaxCycle: cfg.Cycles,
		Deadline: start.Add(budget),
	})
	tracePath := rulesPath + cfg.Suffix
	if err := trace.WriteFile(tracePath, proj.Records); err != nil {
		return err
	}
	logrus.Infof("Trace written to %s", tracePath)

	elapsed := time.Since(start)
	printResult(w, trace.Summarize(proj.Records), proj, elapsed)

	if reportPath != "" {
		report := NewRunReport(rulesPath, tracePath, rs.Target, cfg, result, proj, elapsed)
		if err := WriteRunReport(reportPath, report); err != nil {
			return err
		}
		logrus.Infof("Run report written to %s", reportPath)
	}
	return nil
}
