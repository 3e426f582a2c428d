package sim

import "fmt"

// Process is a named transformation: it consumes Needs when it starts and
// releases Results Delay cycles later.
type Process struct {
	Name    string
	Needs   map[string]int64
	Results map[string]int64
	Delay   int64
}

// Produces reports whether the process lists resource among its results.
func (p *Process) Produces(resource string) bool {
	_, ok := p.Results[resource]
	return ok
}

// Catalog is the set of processes loaded from a rule file.
// It is immutable once built and safe to share between goroutines.
type Catalog struct {
	processes []*Process
	byName    map[string]int
	producers map[string][]*Process
}

// NewCatalog builds a Catalog preserving declaration order.
// Process names must be unique and delays non-negative.
func NewCatalog(processes []*Process) (*Catalog, error) {
	c := &Catalog{
		processes: make([]*Process, 0, len(processes)),
		byName:    make(map[string]int, len(processes)),
		producers: make(map[string][]*Process),
	}
	for _, p := range processes {
		if p == nil {
			continue
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate process %q", p.Name)
		}
		if p.Delay < 0 {
			return nil, fmt.Errorf("process %q has negative delay %d", p.Name, p.Delay)
		}
		c.byName[p.Name] = len(c.processes)
		c.processes = append(c.processes, p)
		for resource := range p.Results {
			c.producers[resource] = append(c.producers[resource], p)
		}
	}
	return c, nil
}

// Len returns the number of processes.
func (c *Catalog) Len() int {
	return len(c.processes)
}

// Processes returns the processes in declaration order.
// Callers must not modify the returned slice.
func (c *Catalog) Processes() []*Process {
	return c.processes
}

// Lookup returns the process with the given name.
func (c *Catalog) Lookup(name string) (*Process, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.processes[i], true
}

// Index returns the declaration position of name, or -1.
func (c *Catalog) Index(name string) int {
	i, ok := c.byName[name]
	if !ok {
		return -1
	}
	return i
}

// Producers returns every process listing resource among its results,
// in declaration order.
func (c *Catalog) Producers(resource string) []*Process {
	return c.producers[resource]
}
