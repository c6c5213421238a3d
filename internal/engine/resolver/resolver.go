// Package resolver selects one version per package for a set of requirements.
//
// Resolution is breadth-first constraint propagation. Every package carries the constraints its
// current requirers impose; the accepted range is their intersection and the newest pantry version
// inside it is selected. Re-selecting a package retracts the constraints its previous version
// contributed. A package whose constraints cannot be met waits until every requirer has settled.
// There is no backtracking: an empty intersection at that point is reported, not searched around.
package resolver

import (
	"errors"
	"maps"
	"slices"

	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/semver"
	"go.trai.ch/zerr"
)

// Resolver computes install plans. It performs no I/O and is safe for concurrent use.
type Resolver struct {
	preferInstalled bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPreferInstalled controls whether an installed version inside the accepted range is kept
// over a newer pantry version.
func WithPreferInstalled(prefer bool) Option {
	return func(r *Resolver) { r.preferInstalled = prefer }
}

// New creates a Resolver. Installed versions are preferred unless disabled.
func New(opts ...Option) *Resolver {
	r := &Resolver{preferInstalled: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve selects a version for every package reachable from reqs and returns the validated plan.
// Failures are *domain.ResolutionError, except an empty reqs which returns domain.ErrNoRequirements.
func (r *Resolver) Resolve(
	reqs []domain.Requirement,
	pantry domain.PantryIndex,
	installed domain.InstalledSet,
) (*domain.Plan, error) {
	if len(reqs) == 0 {
		return nil, domain.ErrNoRequirements
	}

	s := newState(r, pantry, installed)
	for _, req := range reqs {
		s.addSource(req.Name, source{
			ConstraintSource: domain.ConstraintSource{
				Requirer:   domain.RootRequirer,
				Range:      req.Range,
				Constraint: req.Constraint,
				Chain:      []string{domain.RootRequirer},
			},
			root: true,
		})
		if !slices.Contains(s.roots, req.Name) {
			s.roots = append(s.roots, req.Name)
		}
	}

	if err := s.run(); err != nil {
		return nil, err
	}
	return s.plan()
}

// source is an active constraint on a package.
type source struct {
	domain.ConstraintSource
	// owner is the selection that contributed the constraint. Unset for root requirements.
	owner domain.NodeID
	root  bool
}

type selection struct {
	version semver.Version
	recipe  domain.PantryVersion
}

type state struct {
	r         *Resolver
	pantry    domain.PantryIndex
	installed domain.InstalledSet

	roots    []domain.PackageName
	sources  map[domain.PackageName][]source
	selected map[domain.PackageName]selection
	changes  map[domain.PackageName]int
	queue    []domain.PackageName
	queued   map[domain.PackageName]bool
}

func newState(r *Resolver, pantry domain.PantryIndex, installed domain.InstalledSet) *state {
	return &state{
		r:         r,
		pantry:    pantry,
		installed: installed,
		sources:   make(map[domain.PackageName][]source),
		selected:  make(map[domain.PackageName]selection),
		changes:   make(map[domain.PackageName]int),
		queued:    make(map[domain.PackageName]bool),
	}
}

func (s *state) enqueue(name domain.PackageName) {
	if s.queued[name] {
		return
	}
	s.queued[name] = true
	s.queue = append(s.queue, name)
}

func (s *state) addSource(name domain.PackageName, src source) {
	s.sources[name] = append(s.sources[name], src)
	s.enqueue(name)
}

// retract removes every constraint contributed by owner and queues the affected packages.
func (s *state) retract(owner domain.NodeID) {
	names := slices.SortedFunc(maps.Keys(s.sources), domain.PackageName.Compare)
	for _, name := range names {
		srcs := s.sources[name]
		kept := slices.DeleteFunc(slices.Clone(srcs), func(src source) bool {
			return !src.root && src.owner == owner
		})
		if len(kept) != len(srcs) {
			s.sources[name] = kept
			s.enqueue(name)
		}
	}
}

func (s *state) run() error {
	for len(s.queue) > 0 {
		name := s.queue[0]
		s.queue = s.queue[1:]
		s.queued[name] = false

		if err := s.visit(name); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) visit(name domain.PackageName) error {
	srcs := s.sources[name]
	prev, wasSelected := s.selected[name]

	if len(srcs) == 0 {
		// Nothing requires the package any more.
		if wasSelected {
			delete(s.selected, name)
			s.retract(domain.NodeID{Name: name, Version: prev.version})
		}
		return nil
	}

	entry, ok := s.pantry.Entry(name)
	if !ok {
		return s.failure(domain.ErrUnknownPackage, name)
	}

	accepted := semver.Any()
	for _, src := range srcs {
		accepted = accepted.Intersect(src.Range)
	}
	if accepted.IsEmpty() {
		return s.failure(domain.ErrConflictingConstraints, name)
	}

	recipe, ok := s.choose(entry, accepted)
	if !ok {
		return s.failure(domain.ErrUnsatisfiableRange, name)
	}

	if wasSelected {
		if prev.version.Equal(recipe.Version) {
			return nil
		}
		s.changes[name]++
		if s.changes[name] > len(entry.Versions)+1 {
			return s.resolutionError(domain.ErrResolutionDiverged, name)
		}
		s.retract(domain.NodeID{Name: name, Version: prev.version})
	}

	s.selected[name] = selection{version: recipe.Version, recipe: recipe}

	owner := domain.NodeID{Name: name, Version: recipe.Version}
	chain := append(slices.Clone(srcs[0].Chain), owner.String())
	for _, dep := range recipe.Dependencies {
		s.addSource(dep.Name, source{
			ConstraintSource: domain.ConstraintSource{
				Requirer:   owner.String(),
				Range:      dep.Range,
				Constraint: dep.Constraint,
				Chain:      chain,
			},
			owner: owner,
		})
	}
	return nil
}

// choose picks the version to select inside accepted.
func (s *state) choose(entry domain.PantryEntry, accepted semver.Range) (domain.PantryVersion, bool) {
	if s.r.preferInstalled {
		if v, ok := accepted.Highest(s.installed.Versions(entry.Name)); ok {
			if recipe, ok := entry.Lookup(v); ok {
				return recipe, true
			}
		}
	}

	v, ok := accepted.Highest(entry.VersionList())
	if !ok {
		return domain.PantryVersion{}, false
	}
	return entry.Lookup(v)
}

// failure reports name as unresolvable. While a requirer of name is still queued its selection may
// change and withdraw the offending constraint, so name is revisited after it instead.
func (s *state) failure(kind error, name domain.PackageName) error {
	if s.unsettled(name) {
		s.enqueue(name)
		return nil
	}
	return s.resolutionError(kind, name)
}

func (s *state) resolutionError(kind error, name domain.PackageName) error {
	srcs := s.sources[name]
	out := make([]domain.ConstraintSource, len(srcs))
	for i, src := range srcs {
		out[i] = src.ConstraintSource
	}
	return &domain.ResolutionError{Kind: kind, Package: name, Sources: out}
}

// unsettled reports whether a constraint on name comes from a package that is still queued.
// Superseded selections have their constraints retracted, so a queued owner is the only open case.
func (s *state) unsettled(name domain.PackageName) bool {
	for _, src := range s.sources[name] {
		if !src.root && s.queued[src.owner.Name] {
			return true
		}
	}
	return false
}

func (s *state) plan() (*domain.Plan, error) {
	plan := domain.NewPlan(s.roots...)

	for name, sel := range s.selected {
		var deps []domain.PackageName
		for _, dep := range sel.recipe.Dependencies {
			if !slices.Contains(deps, dep.Name) {
				deps = append(deps, dep.Name)
			}
		}
		node := domain.ResolvedNode{Name: name, Version: sel.version, Dependencies: deps}
		if err := plan.AddNode(node); err != nil {
			return nil, zerr.Wrap(err, domain.ErrResolution.Error())
		}
	}

	if err := plan.Validate(); err != nil {
		return nil, s.withCycleSources(err)
	}
	return plan, nil
}

// withCycleSources attaches the constraints of the package that closed a cycle.
func (s *state) withCycleSources(err error) error {
	var rerr *domain.ResolutionError
	if !errors.As(err, &rerr) {
		return err
	}
	if len(rerr.Sources) == 0 {
		for _, src := range s.sources[rerr.Package] {
			rerr.Sources = append(rerr.Sources, src.ConstraintSource)
		}
	}
	return rerr
}
