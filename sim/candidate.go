package sim

import (
	"math/rand"
	"sort"
)

// ExploreProbability is the chance that a resource already available in the
// running snapshot is produced by a process anyway. It diversifies trials
// independently of how scarce the resource is.
const ExploreProbability = 0.1

// Candidates is the outcome of one backward construction pass.
type Candidates struct {
	// Counts is the multiset of process invocations to attempt, by name.
	Counts map[string]int
	// Outstanding holds deficits that were still unresolved when the pass ended.
	Outstanding Stock
	// Complete is true when every deficit, including the target, was resolved.
	Complete bool
}

// Total returns the number of invocations in the multiset.
func (c *Candidates) Total() int {
	n := 0
	for _, count := range c.Counts {
		n += count
	}
	return n
}

// BuildCandidates walks backwards from target to processes that the stock
// can already feed, choosing producers uniformly at random.
//
// budget bounds the work: it is decremented on every deficit resolved and on
// every repeated invocation, so the pass always terminates. A pass that runs
// out of budget or meets a resource nothing produces returns the partial
// multiset with Complete set to false.
func BuildCandidates(target string, catalog *Catalog, stock Stock, budget int, rng *rand.Rand) *Candidates {
	b := &candidateBuilder{
		catalog:  catalog,
		snapshot: stock.Clone(),
		deficits: newDeficitLedger(),
		counts:   make(map[string]int),
		budget:   budget,
		rng:      rng,
	}
	complete := b.run(target)
	return &Candidates{
		Counts:      b.counts,
		Outstanding: b.deficits.stock(),
		Complete:    complete,
	}
}

type candidateBuilder struct {
	catalog  *Catalog
	snapshot Stock
	deficits *deficitLedger
	counts   map[string]int
	budget   int
	rng      *rand.Rand
}

func (b *candidateBuilder) run(target string) bool {
	// The target starts with an unbounded deficit: it is always produced,
	// never taken from the snapshot.
	if b.budget <= 0 || !b.produce(target, 0) {
		return false
	}
	for {
		name, qty, ok := b.deficits.front()
		if !ok {
			return true
		}
		if b.budget <= 0 {
			return false
		}
		b.budget--
		if !b.resolve(name, qty) {
			return false
		}
	}
}

func (b *candidateBuilder) resolve(name string, qty int64) bool {
	if have := b.snapshot.Get(name); have > 0 && b.rng.Float64() >= ExploreProbability {
		take := min(have, qty)
		b.snapshot.Set(name, have-take)
		b.deficits.reduce(name, take)
		return true
	}
	return b.produce(name, qty)
}

// produce invokes a random producer of name, repeating it while the deficit
// keeps shrinking but is not yet cleared.
func (b *candidateBuilder) produce(name string, qty int64) bool {
	producers := b.catalog.Producers(name)
	if len(producers) == 0 {
		return false
	}
	p := producers[b.rng.Intn(len(producers))]
	b.invoke(p)
	for b.budget > 0 {
		left := b.deficits.get(name)
		if left <= 0 || left >= qty {
			break
		}
		b.invoke(p)
		b.budget--
	}
	return true
}

func (b *candidateBuilder) invoke(p *Process) {
	b.counts[p.Name]++
	b.deficits.add(p.Needs)
	b.deficits.sub(p.Results)
}

// deficitLedger is an insertion-ordered map of positive outstanding
// quantities. Entries that drop to zero leave the order; re-added entries
// go to the back.
type deficitLedger struct {
	order []string
	qty   map[string]int64
}

func newDeficitLedger() *deficitLedger {
	return &deficitLedger{qty: make(map[string]int64)}
}

func (d *deficitLedger) front() (string, int64, bool) {
	if len(d.order) == 0 {
		return "", 0, false
	}
	name := d.order[0]
	return name, d.qty[name], true
}

func (d *deficitLedger) get(name string) int64 {
	return d.qty[name]
}

// add and sub walk delta in name order so that the ledger order, and with it
// the sequence of random draws, is reproducible.
func (d *deficitLedger) add(delta map[string]int64) {
	for _, name := range sortedKeys(delta) {
		d.adjust(name, delta[name])
	}
}

func (d *deficitLedger) sub(delta map[string]int64) {
	for _, name := range sortedKeys(delta) {
		d.adjust(name, -delta[name])
	}
}

func (d *deficitLedger) reduce(name string, n int64) {
	d.adjust(name, -n)
}

func (d *deficitLedger) adjust(name string, n int64) {
	old, present := d.qty[name]
	v := old + n
	if v <= 0 {
		if present {
			delete(d.qty, name)
			d.remove(name)
		}
		return
	}
	d.qty[name] = v
	if !present {
		d.order = append(d.order, name)
	}
}

func (d *deficitLedger) remove(name string) {
	for i, n := range d.order {
		if n == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			return
		}
	}
}

func (d *deficitLedger) stock() Stock {
	s := make(Stock, len(d.qty))
	for name, n := range d.qty {
		s[name] = n
	}
	return s
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
