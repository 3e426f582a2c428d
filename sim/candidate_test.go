package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCandidates_RoundTrip(t *testing.T) {
	// GIVEN A:10 and buy:(A:10):(B:1):0 with target B
	c := mustCatalog(t, proc("buy", 0, need("A", 10), result("B", 1)))
	stock := Stock{"A": 10}

	for seed := int64(0); seed < 20; seed++ {
		// WHEN candidates are built
		got := BuildCandidates("B", c, stock, 100, NewPartitionedRNG(NewSimulationKey(seed)).ForTrial(0))

		// THEN buy is always in the multiset
		assert.GreaterOrEqual(t, got.Counts["buy"], 1, "seed %d", seed)
	}
}

func TestBuildCandidates_ChainAlwaysReachesLeaves(t *testing.T) {
	c, stock := boxesCatalog(t)

	for seed := int64(0); seed < 20; seed++ {
		got := BuildCandidates("box", c, stock, 10000, NewPartitionedRNG(NewSimulationKey(seed)).ForTrial(0))

		// one box needs two wood, each bought separately
		assert.Equal(t, map[string]int{"make_box": 1, "buy_wood": 2}, got.Counts, "seed %d", seed)
		assert.Equal(t, 3, got.Total())
	}
}

func TestBuildCandidates_DeterministicPerSeed(t *testing.T) {
	c := mustCatalog(t,
		proc("a1", 1, need("x", 1), result("y", 2)),
		proc("a2", 2, need("x", 2), result("y", 3)),
		proc("b1", 1, need("y", 3), result("z", 1)),
		proc("b2", 4, need("y", 1), need("x", 1), result("z", 1)),
	)
	stock := Stock{"x": 50, "y": 2}

	for seed := int64(0); seed < 10; seed++ {
		first := BuildCandidates("z", c, stock, 500, NewPartitionedRNG(NewSimulationKey(seed)).ForTrial(3))
		second := BuildCandidates("z", c, stock, 500, NewPartitionedRNG(NewSimulationKey(seed)).ForTrial(3))
		assert.Equal(t, first, second, "seed %d", seed)
	}
}

func TestBuildCandidates_BudgetBoundsCycles(t *testing.T) {
	// GIVEN a resource cycle with no seed stock: a needs b, b needs a
	c := mustCatalog(t,
		proc("make_a", 1, need("b", 1), result("a", 1)),
		proc("make_b", 1, need("a", 1), result("b", 1)),
	)

	// WHEN built with a small budget
	got := BuildCandidates("a", c, NewStock(), 25, NewPartitionedRNG(NewSimulationKey(1)).ForTrial(0))

	// THEN the pass terminates incomplete with a bounded multiset
	assert.False(t, got.Complete)
	assert.LessOrEqual(t, got.Total(), 27)
	assert.NotEmpty(t, got.Outstanding)
}

func TestBuildCandidates_NoProducer(t *testing.T) {
	// GIVEN a target that needs a resource nobody produces or holds
	c := mustCatalog(t, proc("craft", 1, need("ore", 1), result("gem", 1)))

	got := BuildCandidates("gem", c, NewStock(), 100, NewPartitionedRNG(NewSimulationKey(0)).ForTrial(0))

	assert.False(t, got.Complete)
	assert.Equal(t, map[string]int{"craft": 1}, got.Counts)
	assert.Equal(t, Stock{"ore": 1}, got.Outstanding)
}

func TestBuildCandidates_ZeroBudget(t *testing.T) {
	c, stock := boxesCatalog(t)
	got := BuildCandidates("box", c, stock, 0, NewPartitionedRNG(NewSimulationKey(0)).ForTrial(0))
	assert.False(t, got.Complete)
	assert.Zero(t, got.Total())
}

func TestDeficitLedger_Order(t *testing.T) {
	d := newDeficitLedger()
	d.add(map[string]int64{"b": 2, "a": 1})

	name, qty, ok := d.front()
	require.True(t, ok)
	assert.Equal(t, "a", name)
	assert.Equal(t, int64(1), qty)

	// a drops out; re-adding sends it to the back
	d.reduce("a", 1)
	d.add(map[string]int64{"a": 3})
	assert.Equal(t, []string{"b", "a"}, d.order)

	d.sub(map[string]int64{"a": 5, "b": 2})
	_, _, ok = d.front()
	assert.False(t, ok)
	assert.Empty(t, d.stock())
}
