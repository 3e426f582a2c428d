package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchCatalog(t *testing.T) (*Catalog, Stock) {
	t.Helper()
	c := mustCatalog(t,
		proc("chop", 3, need("axe", 1), result("axe", 1), result("log", 2)),
		proc("plank_a", 2, need("log", 1), result("plank", 2)),
		proc("plank_b", 5, need("log", 2), result("plank", 5)),
		proc("table", 4, need("plank", 4), result("table", 1)),
	)
	return c, Stock{"axe": 1, "log": 3}
}

func TestSearchConfig_Validate(t *testing.T) {
	valid := SearchConfig{MaxTrials: 1, MaxCycle: 1, MaxInstructions: 1}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*SearchConfig)
	}{
		{"no trials", func(c *SearchConfig) { c.MaxTrials = 0 }},
		{"no cycles", func(c *SearchConfig) { c.MaxCycle = 0 }},
		{"no instructions", func(c *SearchConfig) { c.MaxInstructions = 0 }},
		{"negative budget", func(c *SearchConfig) { c.TimeBudget = -time.Second }},
		{"negative workers", func(c *SearchConfig) { c.Workers = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
			_, err := NewOptimizer(nil, nil, "x", cfg)
			assert.Error(t, err)
		})
	}
}

func TestOptimizer_SameSeedSameBest(t *testing.T) {
	// GIVEN identical inputs and seeds but different worker counts
	c, initial := searchCatalog(t)
	run := func(workers int) *SearchResult {
		opt, err := NewOptimizer(c, initial, "table", SearchConfig{
			MaxTrials:       40,
			TimeBudget:      time.Hour,
			MaxCycle:        1000,
			MaxInstructions: 1000,
			Workers:         workers,
			Seed:            7,
		})
		require.NoError(t, err)
		result, err := opt.Run(context.Background())
		require.NoError(t, err)
		return result
	}

	// WHEN both searches finish every trial
	serial, parallel := run(1), run(4)

	// THEN they retain the same best trial
	assert.Equal(t, 40, serial.Trials)
	assert.Equal(t, 40, parallel.Trials)
	assert.Equal(t, serial.Best.Index, parallel.Best.Index)
	assert.Equal(t, serial.Best.Evaluation, parallel.Best.Evaluation)
	assert.Equal(t, serial.Best.Schedule, parallel.Best.Schedule)
	assert.Equal(t, serial.ViableCount, parallel.ViableCount)
	assert.InDelta(t, serial.MeanScore, parallel.MeanScore, 1e-9)
}

func TestOptimizer_BestBeatsEveryTrial(t *testing.T) {
	c, initial := searchCatalog(t)
	opt, err := NewOptimizer(c, initial, "table", SearchConfig{
		MaxTrials: 30, TimeBudget: time.Hour, MaxCycle: 1000, MaxInstructions: 1000, Workers: 3, Seed: 1,
	})
	require.NoError(t, err)

	result, err := opt.Run(context.Background())
	require.NoError(t, err)

	for n := 0; n < 30; n++ {
		trial := opt.RunTrial(n)
		assert.False(t, Better(trial.Evaluation, result.Best.Evaluation), "trial %d beats the retained best", n)
	}
}

func TestOptimizer_AlwaysRunsOneTrial(t *testing.T) {
	// GIVEN a context cancelled before the search starts
	c, initial := searchCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opt, err := NewOptimizer(c, initial, "table", SearchConfig{
		MaxTrials: 100, TimeBudget: time.Hour, MaxCycle: 1000, MaxInstructions: 1000, Workers: 2,
	})
	require.NoError(t, err)

	// WHEN it runs
	result, err := opt.Run(ctx)

	// THEN trial 0 still completes and is retained
	require.NoError(t, err)
	assert.Equal(t, 1, result.Trials)
	assert.Equal(t, 0, result.Best.Index)
	assert.Equal(t, result.Best.Score, result.MeanScore)
	assert.Zero(t, result.StdDevScore)
}

func TestOptimizer_ZeroTimeBudget(t *testing.T) {
	c, initial := searchCatalog(t)
	opt, err := NewOptimizer(c, initial, "table", SearchConfig{
		MaxTrials: 1000, MaxCycle: 1000, MaxInstructions: 1000, Workers: 1,
	})
	require.NoError(t, err)

	result, err := opt.Run(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Trials, 1)
	assert.NotNil(t, result.Best)
}

func TestOptimizer_RunTrialDoesNotTouchSharedStock(t *testing.T) {
	c, initial := searchCatalog(t)
	before := initial.Clone()
	opt, err := NewOptimizer(c, initial, "table", SearchConfig{MaxTrials: 1, MaxCycle: 100, MaxInstructions: 100})
	require.NoError(t, err)

	trial := opt.RunTrial(0)

	assert.Equal(t, before, initial)
	assert.Equal(t, 0, trial.Index)
	assert.NotNil(t, trial.Candidates)
}
