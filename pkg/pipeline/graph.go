package pipeline

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/composable-science/cli/pkg/artifact"
)

// Graph is the validated dependency graph over a pipeline's declared steps.
// Nodes are steps; an edge runs from producer to consumer whenever one of
// the producer's output globs overlaps one of the consumer's input globs at
// pattern level. The graph is built before any file I/O.
//
// Graph is immutable once built and safe for concurrent reads.
type Graph struct {
	steps []StepDeclaration

	byName   map[string]int
	children [][]int // producer index -> consumer indices, ascending
	parents  [][]int // consumer index -> producer indices, ascending
	order    []int   // topological order, declaration-order tie-break
}

// BuildGraph validates the declarations and derives edges and a stable
// topological order. Fatal conditions: duplicate step names, two steps with
// pattern-identical output sets, and dependency cycles.
func BuildGraph(steps []StepDeclaration) (*Graph, error) {
	g := &Graph{
		steps:    steps,
		byName:   make(map[string]int, len(steps)),
		children: make([][]int, len(steps)),
		parents:  make([][]int, len(steps)),
	}

	for i, s := range steps {
		if _, dup := g.byName[s.Name]; dup {
			return nil, &DuplicateStepError{Name: s.Name}
		}
		g.byName[s.Name] = i
	}

	for i := range steps {
		for j := i + 1; j < len(steps); j++ {
			if identicalPatternSet(steps[i].OutputPatterns, steps[j].OutputPatterns) {
				return nil, &DuplicateOutputError{StepA: steps[i].Name, StepB: steps[j].Name}
			}
		}
	}

	// Pattern-level edge derivation, both directions so that a declaration
	// ordered against the data flow still forms (and is caught as) a cycle.
	for from := range steps {
		for to := range steps {
			if from == to {
				continue
			}
			if patternsFeed(steps[from].OutputPatterns, steps[to].InputPatterns) {
				g.children[from] = append(g.children[from], to)
				g.parents[to] = append(g.parents[to], from)
			}
		}
	}

	order, err := g.topoSort()
	if err != nil {
		return nil, err
	}
	g.order = order

	return g, nil
}

// topoSort is Kahn's algorithm with the ready set always drained in
// declaration order, which keeps independent steps in file order and makes
// the result stable across runs.
func (g *Graph) topoSort() ([]int, error) {
	indeg := make([]int, len(g.steps))
	for to, ps := range g.parents {
		indeg[to] = len(ps)
	}

	order := make([]int, 0, len(g.steps))
	done := make([]bool, len(g.steps))

	for len(order) < len(g.steps) {
		next := -1
		for i := range g.steps {
			if !done[i] && indeg[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			var remaining []string
			for i := range g.steps {
				if !done[i] {
					remaining = append(remaining, g.steps[i].Name)
				}
			}
			return nil, &CycleError{Steps: remaining}
		}

		done[next] = true
		order = append(order, next)
		for _, child := range g.children[next] {
			indeg[child]--
		}
	}

	return order, nil
}

// Steps returns the declarations in declaration order.
func (g *Graph) Steps() []StepDeclaration {
	return g.steps
}

// Order returns the step names in execution (topological) order.
func (g *Graph) Order() []string {
	names := make([]string, len(g.order))
	for i, idx := range g.order {
		names[i] = g.steps[idx].Name
	}
	return names
}

// Step returns the declaration with the given name.
func (g *Graph) Step(name string) (StepDeclaration, bool) {
	idx, ok := g.byName[name]
	if !ok {
		return StepDeclaration{}, false
	}
	return g.steps[idx], true
}

// Parents returns the names of the steps whose outputs feed the named step.
func (g *Graph) Parents(name string) []string {
	idx, ok := g.byName[name]
	if !ok {
		return nil
	}
	parents := make([]string, 0, len(g.parents[idx]))
	for _, p := range g.parents[idx] {
		parents = append(parents, g.steps[p].Name)
	}
	return parents
}

// Children returns the names of the steps consuming the named step's outputs.
func (g *Graph) Children(name string) []string {
	idx, ok := g.byName[name]
	if !ok {
		return nil
	}
	children := make([]string, 0, len(g.children[idx]))
	for _, c := range g.children[idx] {
		children = append(children, g.steps[c].Name)
	}
	return children
}

// Closure returns the target step plus all transitive upstream dependencies,
// in topological order. An empty target means the whole pipeline.
func (g *Graph) Closure(target string) ([]string, error) {
	if target == "" {
		return g.Order(), nil
	}

	idx, ok := g.byName[target]
	if !ok {
		return nil, &UnknownStepError{Name: target}
	}

	wanted := make(map[int]struct{})
	var visit func(int)
	visit = func(i int) {
		if _, seen := wanted[i]; seen {
			return
		}
		wanted[i] = struct{}{}
		for _, p := range g.parents[i] {
			visit(p)
		}
	}
	visit(idx)

	names := make([]string, 0, len(wanted))
	for _, i := range g.order {
		if _, ok := wanted[i]; ok {
			names = append(names, g.steps[i].Name)
		}
	}
	return names, nil
}

// InputWarning flags an input pattern that no step produces and that matched
// nothing on disk when the graph was probed. Warning only: the file may be
// created out of band before the step runs.
type InputWarning struct {
	Step    string
	Pattern artifact.Pattern
}

func (w InputWarning) String() string {
	return fmt.Sprintf("step %q expects input %q but no step produces it and no matching files exist", w.Step, w.Pattern)
}

// UnsatisfiedInputs probes the filesystem for input patterns that neither an
// upstream step produces nor any existing file satisfies. This is the only
// graph operation that touches the filesystem, kept separate so the graph
// itself stays available before any file I/O.
func (g *Graph) UnsatisfiedInputs(fsys fs.FS) []InputWarning {
	var warnings []InputWarning

	for i, step := range g.steps {
		for _, in := range step.InputPatterns {
			produced := false
			for _, p := range g.parents[i] {
				if patternsFeed(g.steps[p].OutputPatterns, []artifact.Pattern{in}) {
					produced = true
					break
				}
			}
			if produced {
				continue
			}

			matches, err := in.Expand(fsys)
			if err != nil || len(matches) == 0 {
				warnings = append(warnings, InputWarning{Step: step.Name, Pattern: in})
			}
		}
	}

	return warnings
}

// patternsFeed reports whether any output pattern overlaps any input pattern.
func patternsFeed(outputs, inputs []artifact.Pattern) bool {
	for _, out := range outputs {
		for _, in := range inputs {
			if out.Overlaps(in) {
				return true
			}
		}
	}
	return false
}

func identicalPatternSet(a, b []artifact.Pattern) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}

	as := make([]string, len(a))
	bs := make([]string, len(b))
	for i := range a {
		as[i] = string(a[i])
		bs[i] = string(b[i])
	}
	sort.Strings(as)
	sort.Strings(bs)

	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
