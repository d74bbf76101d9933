package scheduler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flowtoy/flowtoy/internal/ast"
	"github.com/flowtoy/flowtoy/internal/template"
)

// ConfigError reports every step whose dependencies (explicit or
// inferred) name a step that doesn't exist, collected across the whole
// graph in one pass rather than failing on the first one found.
type ConfigError struct {
	Violations map[string][]string // step name -> missing dependency names
}

func (e *ConfigError) Error() string {
	names := make([]string, 0, len(e.Violations))
	for name := range e.Violations {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("invalid step dependencies:\n")
	for _, name := range names {
		missing := e.Violations[name]
		quoted := make([]string, len(missing))
		for i, m := range missing {
			quoted[i] = fmt.Sprintf("%q", m)
		}
		fmt.Fprintf(&b, "  - step %q depends on missing step(s): %s\n", name, strings.Join(quoted, ", "))
	}
	return b.String()
}

// ErrCycleDetected is returned when the dependency graph contains a cycle,
// detected up front rather than relying on the scheduler loop stalling.
type ErrCycleDetected struct {
	Remaining []string // steps that never reached in-degree zero
}

func (e *ErrCycleDetected) Error() string {
	sort.Strings(e.Remaining)
	return fmt.Sprintf("dependency cycle detected among steps: %s", strings.Join(e.Remaining, ", "))
}

// graph is the resolved dependency structure for one run.
type graph struct {
	steps      map[string]*ast.Step
	order      []string // original step order, for deterministic iteration
	dependents map[string][]string
	inDegree   map[string]int
}

// buildGraph infers each step's dependencies (explicit depends_on, plus
// implicit flows.<name>. references inside its input value/template) and
// validates that every named dependency exists, matching the original
// runner's dep_re scan over `step["input"]["value"]`/`["template"]`.
func buildGraph(steps []*ast.Step) (*graph, error) {
	byName := make(map[string]*ast.Step, len(steps))
	order := make([]string, 0, len(steps))
	for _, s := range steps {
		byName[s.Name] = s
		order = append(order, s.Name)
	}

	deps := make(map[string]map[string]struct{}, len(steps))
	for _, s := range steps {
		set := map[string]struct{}{}
		for _, d := range s.DependsOn {
			set[d] = struct{}{}
		}
		for _, ref := range extractRefs(s.Input.Value) {
			set[ref] = struct{}{}
		}
		for _, ref := range extractRefs(s.Input.Template) {
			set[ref] = struct{}{}
		}
		deps[s.Name] = set
	}

	violations := map[string][]string{}
	for name, set := range deps {
		var missing []string
		for dep := range set {
			if _, ok := byName[dep]; !ok {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			violations[name] = missing
		}
	}
	if len(violations) > 0 {
		return nil, &ConfigError{Violations: violations}
	}

	dependents := make(map[string][]string, len(steps))
	inDegree := make(map[string]int, len(steps))
	for name := range byName {
		inDegree[name] = 0
	}
	for name, set := range deps {
		inDegree[name] = len(set)
		for dep := range set {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	g := &graph{steps: byName, order: order, dependents: dependents, inDegree: inDegree}
	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}
	return g, nil
}

// checkAcyclic runs Kahn's algorithm over a copy of the in-degree map; any
// step left with in-degree > 0 afterward is part of a cycle.
func (g *graph) checkAcyclic() error {
	remaining := make(map[string]int, len(g.inDegree))
	for k, v := range g.inDegree {
		remaining[k] = v
	}

	queue := make([]string, 0)
	for _, name := range g.order {
		if remaining[name] == 0 {
			queue = append(queue, name)
		}
	}

	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range g.dependents[n] {
			remaining[dep]--
			if remaining[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if visited != len(g.steps) {
		var left []string
		for name, deg := range remaining {
			if deg > 0 {
				left = append(left, name)
			}
		}
		return &ErrCycleDetected{Remaining: left}
	}
	return nil
}

func extractRefs(v interface{}) []string {
	var refs []string
	walkStrings(v, func(s string) {
		for _, m := range template.DependencyPattern.FindAllStringSubmatch(s, -1) {
			refs = append(refs, m[1])
		}
	})
	return refs
}

func walkStrings(v interface{}, fn func(string)) {
	switch t := v.(type) {
	case string:
		fn(t)
	case map[string]interface{}:
		for _, val := range t {
			walkStrings(val, fn)
		}
	case []interface{}:
		for _, val := range t {
			walkStrings(val, fn)
		}
	}
}
