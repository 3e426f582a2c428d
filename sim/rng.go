package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible search run.
// Two runs with the same SimulationKey, rules and budgets (other than the
// wall-clock budget) MUST select the same best schedule.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystems ===

// SubsystemTrial returns the subsystem name for search trial n.
func SubsystemTrial(n int) string {
	return fmt.Sprintf("trial_%d", n)
}

// === PartitionedRNG ===

// PartitionedRNG hands out isolated, deterministically seeded generators.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: safe for concurrent use. Every call returns a fresh
// *rand.Rand owned by the caller; nothing is cached or shared.
type PartitionedRNG struct {
	key SimulationKey
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key}
}

// ForSubsystem returns a new generator seeded for the named subsystem.
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	return rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
}

// ForTrial returns the generator for search trial n.
func (p *PartitionedRNG) ForTrial(n int) *rand.Rand {
	return p.ForSubsystem(SubsystemTrial(n))
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
