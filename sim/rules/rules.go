// Package rules parses rule files into a process catalog, an initial stock
// and an optimization target.
//
// A rule file holds one construct per line; '#' starts a comment:
//
//	euro:10
//	buy_wood:(euro:2):(wood:1):3
//	optimize:(wood)
package rules

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/krpsim/krpsim/sim"
)

// TimeTarget is the pseudo-target naming elapsed time. Optimizing for time is
// not supported; the name is dropped from optimize lines with a warning.
const TimeTarget = "time"

var (
	// ErrBadTarget is returned when no usable optimization target is declared
	// or the target is never mentioned as a resource.
	ErrBadTarget = errors.New("bad file: optimization target is not a known resource")
	// ErrMultipleTargets is returned for optimize lines naming more than one resource.
	ErrMultipleTargets = errors.New("multiple optimization targets are not supported")
)

var (
	stockLine    = regexp.MustCompile(`^(\w+):(\d+)$`)
	processLine  = regexp.MustCompile(`^(\w+):(\((?:\w+:\d+;?)*\))?:(\((?:\w+:\d+;?)*\))?:(\d+)$`)
	optimizeLine = regexp.MustCompile(`^optimize:\(((?:\w+;?)+)\)$`)
)

// ParseError reports a rule line that could not be understood.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %s", e.Line, e.Text, e.Reason)
}

// Ruleset is a fully loaded rule file.
type Ruleset struct {
	Catalog *sim.Catalog
	// Stock is the initial stock; only positive quantities are present.
	Stock sim.Stock
	// Target is the resource to maximize.
	Target string

	resources map[string]struct{}
}

// Knows reports whether name was declared as stock or used by any process.
func (r *Ruleset) Knows(name string) bool {
	_, ok := r.resources[name]
	return ok
}

// Resources returns every resource name the file mentions, sorted.
func (r *Ruleset) Resources() []string {
	names := make([]string, 0, len(r.resources))
	for name := range r.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseFile reads and parses the rule file at path.
func ParseFile(path string) (*Ruleset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rule file: %w", err)
	}
	defer func() { _ = f.Close() }()
	rs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rs, nil
}

// Parse reads a rule file from r.
func Parse(r io.Reader) (*Ruleset, error) {
	p := &parser{
		stock:     sim.NewStock(),
		resources: make(map[string]struct{}),
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	catalog, err := sim.NewCatalog(p.processes)
	if err != nil {
		return nil, err
	}
	rs := &Ruleset{
		Catalog:   catalog,
		Stock:     p.stock,
		Target:    p.target,
		resources: p.resources,
	}
	if rs.Target == "" || !rs.Knows(rs.Target) {
		return nil, ErrBadTarget
	}
	return rs, nil
}

type parser struct {
	line      int
	stock     sim.Stock
	resources map[string]struct{}
	processes []*sim.Process
	names     map[string]int
	target    string
}

func (p *parser) parseLine(raw string) error {
	text, _, _ := strings.Cut(raw, "#")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if m := optimizeLine.FindStringSubmatch(text); m != nil {
		return p.parseTarget(text, m[1])
	}
	if m := stockLine.FindStringSubmatch(text); m != nil {
		qty, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return p.errorf(text, "stock quantity: %v", err)
		}
		p.resources[m[1]] = struct{}{}
		p.stock.Set(m[1], qty)
		return nil
	}
	if m := processLine.FindStringSubmatch(text); m != nil {
		return p.parseProcess(text, m)
	}
	return p.errorf(text, "not a stock, process or optimize declaration")
}

func (p *parser) parseProcess(text string, m []string) error {
	if p.names == nil {
		p.names = make(map[string]int)
	}
	name := m[1]
	if prev, dup := p.names[name]; dup {
		return p.errorf(text, "process %q already declared on line %d", name, prev)
	}
	needs, err := p.parseGroup(text, m[2])
	if err != nil {
		return err
	}
	results, err := p.parseGroup(text, m[3])
	if err != nil {
		return err
	}
	delay, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return p.errorf(text, "delay: %v", err)
	}
	p.names[name] = p.line
	p.processes = append(p.processes, &sim.Process{
		Name:    name,
		Needs:   needs,
		Results: results,
		Delay:   delay,
	})
	return nil
}

// parseGroup decodes "(a:1;b:2)". An absent or empty group yields an empty map.
func (p *parser) parseGroup(text, group string) (map[string]int64, error) {
	out := make(map[string]int64)
	group = strings.TrimSuffix(strings.TrimPrefix(group, "("), ")")
	for _, item := range strings.Split(group, ";") {
		if item == "" {
			continue
		}
		name, qtyText, _ := strings.Cut(item, ":")
		qty, err := strconv.ParseInt(qtyText, 10, 64)
		if err != nil {
			return nil, p.errorf(text, "quantity of %q: %v", name, err)
		}
		if qty <= 0 {
			return nil, p.errorf(text, "quantity of %q must be positive", name)
		}
		out[name] += qty
		p.resources[name] = struct{}{}
	}
	return out, nil
}

func (p *parser) parseTarget(text, list string) error {
	var names []string
	for _, name := range strings.Split(list, ";") {
		switch name {
		case "":
		case TimeTarget:
			logrus.Warnf("line %d: optimizing for %q is not supported, ignoring it", p.line, TimeTarget)
		default:
			names = append(names, name)
		}
	}
	if len(names) > 1 {
		return fmt.Errorf("line %d: %w: %s", p.line, ErrMultipleTargets, strings.Join(names, ", "))
	}
	if len(names) == 0 {
		p.target = ""
		return nil
	}
	if p.target != "" && p.target != names[0] {
		logrus.Warnf("line %d: optimization target %q replaces %q", p.line, names[0], p.target)
	}
	p.target = names[0]
	return nil
}

func (p *parser) errorf(text, format string, args ...any) error {
	return &ParseError{Line: p.line, Text: text, Reason: fmt.Sprintf(format, args...)}
}
