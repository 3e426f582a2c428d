package sim

import "testing"

// proc builds a process from flat name/quantity pairs, e.g.
// proc("make", 5, need("a", 1), result("b", 1)).
func proc(name string, delay int64, parts ...func(*Process)) *Process {
	p := &Process{
		Name:    name,
		Needs:   map[string]int64{},
		Results: map[string]int64{},
		Delay:   delay,
	}
	for _, part := range parts {
		part(p)
	}
	return p
}

func need(name string, qty int64) func(*Process) {
	return func(p *Process) { p.Needs[name] += qty }
}

func result(name string, qty int64) func(*Process) {
	return func(p *Process) { p.Results[name] += qty }
}

func mustCatalog(t *testing.T, processes ...*Process) *Catalog {
	t.Helper()
	c, err := NewCatalog(processes)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

// boxesCatalog is a two-step chain: euros buy wood, wood makes boxes.
func boxesCatalog(t *testing.T) (*Catalog, Stock) {
	t.Helper()
	c := mustCatalog(t,
		proc("buy_wood", 3, need("euro", 2), result("wood", 1)),
		proc("make_box", 5, need("wood", 2), result("box", 1)),
	)
	return c, Stock{"euro": 10}
}

// verifyNeedsHold replays a schedule against initial, releasing results at
// start+delay, and reports the first start whose needs were not covered.
func verifyNeedsHold(t *testing.T, catalog *Catalog, initial Stock, schedule Schedule) {
	t.Helper()
	stock := initial.Clone()
	pending := map[int64][]*Process{}
	release := func(upTo int64) {
		for cycle, ps := range pending {
			if cycle > upTo {
				continue
			}
			for _, p := range ps {
				stock.Add(p.Results)
			}
			delete(pending, cycle)
		}
	}
	for _, entry := range schedule {
		release(entry.Cycle)
		for _, name := range entry.Processes {
			p, ok := catalog.Lookup(name)
			if !ok {
				t.Fatalf("schedule names unknown process %q", name)
			}
			if !stock.Covers(p.Needs) {
				t.Fatalf("cycle %d: %s started without its needs (stock %s)", entry.Cycle, name, stock)
			}
			stock.Sub(p.Needs)
			pending[entry.Cycle+p.Delay] = append(pending[entry.Cycle+p.Delay], p)
		}
	}
}
