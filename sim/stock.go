package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Stock maps resource names to quantities.
//
// A resource absent from the map holds zero. Sub removes any entry that
// reaches zero or below, so a Stock never stores a non-positive value.
type Stock map[string]int64

// NewStock returns an empty Stock.
func NewStock() Stock {
	return make(Stock)
}

// Get returns the quantity of name, or 0 if absent.
func (s Stock) Get(name string) int64 {
	return s[name]
}

// Add increases each resource in delta by its quantity.
// Non-positive quantities in delta are ignored.
func (s Stock) Add(delta map[string]int64) {
	for name, qty := range delta {
		if qty <= 0 {
			continue
		}
		s[name] += qty
	}
}

// Sub decreases each resource in delta by its quantity, removing entries
// that fall to zero or below.
func (s Stock) Sub(delta map[string]int64) {
	for name, qty := range delta {
		left := s[name] - qty
		if left <= 0 {
			delete(s, name)
			continue
		}
		s[name] = left
	}
}

// Set stores qty for name, removing the entry when qty <= 0.
func (s Stock) Set(name string, qty int64) {
	if qty <= 0 {
		delete(s, name)
		return
	}
	s[name] = qty
}

// Covers reports whether every need is available in full.
func (s Stock) Covers(needs map[string]int64) bool {
	for name, qty := range needs {
		if s[name] < qty {
			return false
		}
	}
	return true
}

// Missing returns the needs that s cannot cover, sorted by name.
func (s Stock) Missing(needs map[string]int64) []string {
	var missing []string
	for name, qty := range needs {
		if s[name] < qty {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Clone returns an independent copy of s.
func (s Stock) Clone() Stock {
	c := make(Stock, len(s))
	for name, qty := range s {
		c[name] = qty
	}
	return c
}

// Names returns the resource names held in s, sorted.
func (s Stock) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String renders s as "a:1 b:2" in name order.
func (s Stock) String() string {
	var b strings.Builder
	for i, name := range s.Names() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s:%d", name, s[name])
	}
	return b.String()
}

// Delta returns after - before for every resource present in either stock.
// Zero differences are omitted.
func Delta(before, after Stock) map[string]int64 {
	delta := make(map[string]int64)
	for name, qty := range after {
		if d := qty - before[name]; d != 0 {
			delta[name] = d
		}
	}
	for name, qty := range before {
		if _, ok := after[name]; !ok {
			delta[name] = -qty
		}
	}
	return delta
}
