// Package domain contains the core models of the resolution and installation pipeline.
package domain

import (
	"iter"
	"slices"

	"go.trai.ch/tea/internal/core/semver"
	"go.trai.ch/zerr"
)

// NodeID identifies a resolved package version.
type NodeID struct {
	Name    PackageName
	Version semver.Version
}

func (id NodeID) String() string {
	return id.Name.String() + "@" + id.Version.String()
}

// ResolvedNode is one selected package version and the packages it directly depends on.
type ResolvedNode struct {
	Name    PackageName
	Version semver.Version
	// Dependencies are in recipe order. Each names another node of the same plan.
	Dependencies []PackageName
}

// ID returns the identity of the node.
func (n ResolvedNode) ID() NodeID {
	return NodeID{Name: n.Name, Version: n.Version}
}

func (n ResolvedNode) String() string {
	return n.ID().String()
}

// Plan is a resolved dependency graph with at most one version per package.
type Plan struct {
	nodes map[PackageName]ResolvedNode
	roots []PackageName
	order []PackageName
}

// NewPlan creates an empty plan. roots are the packages the user asked for, in request order.
func NewPlan(roots ...PackageName) *Plan {
	return &Plan{
		nodes: make(map[PackageName]ResolvedNode),
		roots: slices.Clone(roots),
	}
}

// AddNode adds a node to the plan.
// It returns an error if the package is already present.
func (p *Plan) AddNode(n ResolvedNode) error {
	if _, exists := p.nodes[n.Name]; exists {
		return zerr.With(ErrDuplicateNode, "package", n.Name.String())
	}
	n.Dependencies = slices.Clone(n.Dependencies)
	p.nodes[n.Name] = n
	p.order = nil
	return nil
}

// Validate checks the plan for missing dependencies and cycles and fixes the install order.
// Roots are visited first in request order, then the remaining packages by name, so the
// order is stable for a given plan.
func (p *Plan) Validate() error {
	order := make([]PackageName, 0, len(p.nodes))
	visited := make(map[PackageName]int) // 0: unvisited, 1: visiting, 2: visited
	var path []PackageName

	var visit func(u PackageName) error
	visit = func(u PackageName) error {
		visited[u] = 1
		path = append(path, u)

		node := p.nodes[u]
		for _, dep := range node.Dependencies {
			if _, exists := p.nodes[dep]; !exists {
				return zerr.With(ErrMissingDependency, "dependency", u.String()+" -> "+dep.String())
			}
			if visited[dep] == 1 {
				return p.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		order = append(order, u)
		return nil
	}

	starts := make([]PackageName, 0, len(p.roots)+len(p.nodes))
	for _, r := range p.roots {
		if _, exists := p.nodes[r]; exists {
			starts = append(starts, r)
		}
	}
	starts = append(starts, p.sortedNames()...)

	for _, name := range starts {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	p.order = order
	return nil
}

func (p *Plan) buildCycleError(path []PackageName, dep PackageName) error {
	start := slices.Index(path, dep)
	cycle := make([]string, 0, len(path)-start+1)
	for _, n := range path[start:] {
		cycle = append(cycle, p.nodes[n].String())
	}
	cycle = append(cycle, p.nodes[dep].String())

	return &ResolutionError{Kind: ErrCycleDetected, Package: dep, Cycle: cycle}
}

// Walk yields nodes dependencies first.
// It assumes Validate has been called and returned nil.
func (p *Plan) Walk() iter.Seq[ResolvedNode] {
	return func(yield func(ResolvedNode) bool) {
		for _, name := range p.order {
			if !yield(p.nodes[name]) {
				return
			}
		}
	}
}

// Nodes returns the nodes dependencies first.
// It assumes Validate has been called and returned nil.
func (p *Plan) Nodes() []ResolvedNode {
	return slices.Collect(p.Walk())
}

// Node returns the node selected for name.
func (p *Plan) Node(name PackageName) (ResolvedNode, bool) {
	n, ok := p.nodes[name]
	return n, ok
}

// Len returns the number of nodes.
func (p *Plan) Len() int {
	return len(p.nodes)
}

// Roots returns the requested packages in request order.
func (p *Plan) Roots() []PackageName {
	return slices.Clone(p.roots)
}

// Dependents returns the packages that directly depend on name, sorted.
func (p *Plan) Dependents(name PackageName) []PackageName {
	var out []PackageName
	for _, n := range p.nodes {
		if slices.Contains(n.Dependencies, name) {
			out = append(out, n.Name)
		}
	}
	slices.SortFunc(out, PackageName.Compare)
	return out
}

func (p *Plan) sortedNames() []PackageName {
	names := make([]PackageName, 0, len(p.nodes))
	for name := range p.nodes {
		names = append(names, name)
	}
	slices.SortFunc(names, PackageName.Compare)
	return names
}
