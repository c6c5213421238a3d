// Package installer drives an install run from requirements to hydrated cellar entries.
package installer

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// AttrRunID tags every span of an install run.
const AttrRunID = "tea.run_id"

// Settings are the parts of the configuration an install run depends on.
type Settings struct {
	Host        domain.Host
	Compression domain.Compression
	// Concurrency bounds both the fetches and the hydrations in flight.
	Concurrency int
}

// Installer resolves requirements and installs the resulting plan.
type Installer struct {
	pantry    ports.PantryLoader
	inventory ports.Inventory
	resolver  ports.Resolver
	cache     ports.ArtifactCache
	hydrator  ports.Hydrator
	tracer    ports.Tracer
	logger    ports.Logger
	settings  Settings
	newRunID  func() string
}

// New creates an Installer.
func New(
	pantry ports.PantryLoader,
	inventory ports.Inventory,
	resolver ports.Resolver,
	cache ports.ArtifactCache,
	hydrator ports.Hydrator,
	tracer ports.Tracer,
	logger ports.Logger,
	settings Settings,
) *Installer {
	if settings.Concurrency < 1 {
		settings.Concurrency = 1
	}
	return &Installer{
		pantry:    pantry,
		inventory: inventory,
		resolver:  resolver,
		cache:     cache,
		hydrator:  hydrator,
		tracer:    tracer,
		logger:    logger,
		settings:  settings,
		newRunID:  uuid.NewString,
	}
}

// resolution is a plan together with the inputs it was resolved from.
type resolution struct {
	plan      *domain.Plan
	snapshot  *domain.PantrySnapshot
	installed map[domain.NodeID]domain.CellarEntry
}

// Resolve returns the plan for reqs without installing anything.
func (i *Installer) Resolve(ctx context.Context, reqs []domain.Requirement) (*domain.Plan, error) {
	res, err := i.resolve(ctx, reqs)
	if err != nil {
		return nil, err
	}
	return res.plan, nil
}

func (i *Installer) resolve(ctx context.Context, reqs []domain.Requirement) (*resolution, error) {
	if len(reqs) == 0 {
		return nil, domain.ErrNoRequirements
	}

	_, span := i.tracer.Start(ctx, "resolve")
	defer span.End()

	snapshot, err := i.pantry.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	entries, err := i.inventory.Installed(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	installed := make(map[domain.NodeID]domain.CellarEntry, len(entries))
	for _, e := range entries {
		installed[e.ID()] = e
	}

	plan, err := i.resolver.Resolve(reqs, snapshot, domain.NewInstalledSet(entries...))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttribute("tea.pantry_digest", snapshot.Digest())
	span.SetAttribute("tea.plan_size", plan.Len())
	i.logger.Info(fmt.Sprintf("resolved %d packages against pantry %s", plan.Len(), snapshot.Digest()))

	return &resolution{plan: plan, snapshot: snapshot, installed: installed}, nil
}

// Install resolves reqs and makes every planned node present in the cellar.
// Nodes whose exact version is already hydrated are reported without fetching or hydrating them.
// The first failure stops scheduling; nodes hydrated before it stay in the cellar and are reported.
// Failures are returned as *domain.InstallError together with the partial result.
func (i *Installer) Install(ctx context.Context, reqs []domain.Requirement) (*domain.InstallResult, error) {
	res, err := i.resolve(ctx, reqs)
	if err != nil {
		return nil, err
	}

	result := &domain.InstallResult{
		RunID:    i.newRunID(),
		Plan:     res.plan,
		Outcomes: make([]domain.NodeOutcome, 0, res.plan.Len()),
	}

	ids := make([]string, 0, res.plan.Len())
	for node := range res.plan.Walk() {
		ids = append(ids, node.String())
		result.Outcomes = append(result.Outcomes, domain.NodeOutcome{Node: node, Status: domain.NodeStatusPending})
	}
	i.tracer.EmitPlan(ctx, ids)

	var pending []domain.ResolvedNode
	for idx := range result.Outcomes {
		outcome := &result.Outcomes[idx]
		entry, ok := res.installed[outcome.Node.ID()]
		if !ok {
			pending = append(pending, outcome.Node)
			continue
		}
		outcome.Status = domain.NodeStatusAlreadyInstalled
		outcome.Entry = entry
		_, span := i.tracer.Start(ctx, "hydrate "+outcome.Node.String(),
			ports.WithAttribute(AttrRunID, result.RunID),
			ports.WithAttribute(ports.AttrCached, true))
		span.End()
	}

	if len(pending) == 0 {
		return result, nil
	}

	failures := i.newRun(ctx, res, result, pending).execute()
	if len(failures) > 0 {
		return result, &domain.InstallError{Failures: failures}
	}
	return result, nil
}

type eventKind int

const (
	fetched eventKind = iota
	hydrated
)

type event struct {
	kind     eventKind
	name     domain.PackageName
	artifact domain.Artifact
	entry    domain.CellarEntry
	err      error
}

// run schedules the pending nodes of one install. Fetches start immediately in plan order;
// a node is hydrated once its own artifact is verified and all its pending dependencies are hydrated.
type run struct {
	i      *Installer
	res    *resolution
	runID  string
	ctx    context.Context
	cancel context.CancelFunc

	outcomes  map[domain.PackageName]*domain.NodeOutcome
	pending   []domain.ResolvedNode
	inDegree  map[domain.PackageName]int
	artifacts map[domain.PackageName]domain.Artifact
	ready     []domain.PackageName
	fetching  int
	active    int
	aborted   bool
	failures  []error
	events    chan event
}

func (i *Installer) newRun(
	ctx context.Context,
	res *resolution,
	result *domain.InstallResult,
	pending []domain.ResolvedNode,
) *run {
	ctx, cancel := context.WithCancel(ctx)
	r := &run{
		i:         i,
		res:       res,
		runID:     result.RunID,
		ctx:       ctx,
		cancel:    cancel,
		outcomes:  make(map[domain.PackageName]*domain.NodeOutcome, len(result.Outcomes)),
		pending:   pending,
		inDegree:  make(map[domain.PackageName]int, len(pending)),
		artifacts: make(map[domain.PackageName]domain.Artifact, len(pending)),
		fetching:  len(pending),
		events:    make(chan event, 2*len(pending)),
	}

	for idx := range result.Outcomes {
		r.outcomes[result.Outcomes[idx].Node.Name] = &result.Outcomes[idx]
	}
	for _, node := range pending {
		r.inDegree[node.Name] = 0
	}
	for _, node := range pending {
		for _, dep := range node.Dependencies {
			if _, ok := r.inDegree[dep]; ok {
				r.inDegree[node.Name]++
			}
		}
	}
	for _, node := range pending {
		if r.inDegree[node.Name] == 0 {
			r.ready = append(r.ready, node.Name)
		}
	}
	return r
}

func (r *run) execute() []error {
	defer r.cancel()

	fetchDone := make(chan struct{})
	go r.prefetch(fetchDone)

	for !r.isDone() {
		r.schedule()
		if r.isDone() {
			break
		}
		r.handle(<-r.events)
	}
	<-fetchDone

	for _, node := range r.pending {
		if outcome := r.outcomes[node.Name]; outcome.Status == domain.NodeStatusPending {
			outcome.Status = domain.NodeStatusAborted
			outcome.Err = domain.ErrInstallAborted
		}
	}
	return r.failures
}

// prefetch obtains every pending artifact with bounded concurrency and reports each as an event.
func (r *run) prefetch(done chan<- struct{}) {
	defer close(done)

	g, ctx := errgroup.WithContext(r.ctx)
	g.SetLimit(r.i.settings.Concurrency)
	for _, node := range r.pending {
		g.Go(func() error {
			artifact, err := r.fetch(ctx, node)
			r.events <- event{kind: fetched, name: node.Name, artifact: artifact, err: err}
			return err
		})
	}
	_ = g.Wait()
}

func (r *run) fetch(ctx context.Context, node domain.ResolvedNode) (domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return domain.Artifact{}, err
	}

	ctx, span := r.i.tracer.Start(ctx, "fetch "+node.String(), ports.WithAttribute(AttrRunID, r.runID))
	defer span.End()

	artifact, err := r.i.cache.Obtain(ctx, r.request(node))
	if err != nil {
		span.RecordError(err)
		return domain.Artifact{}, err
	}
	span.SetAttribute(ports.AttrCached, artifact.Cached)
	return artifact, nil
}

// request names the bottle of node for this host, with the checksum the pantry declares for it.
func (r *run) request(node domain.ResolvedNode) domain.ArtifactRequest {
	req := domain.ArtifactRequest{
		Name:        node.Name,
		Version:     node.Version,
		Host:        r.i.settings.Host,
		Compression: r.i.settings.Compression,
	}
	if entry, ok := r.res.snapshot.Entry(node.Name); ok {
		if pv, ok := entry.Lookup(node.Version); ok {
			req.Checksum, _ = pv.Checksum(req.Host.Platform(), req.Compression)
		}
	}
	return req
}

func (r *run) isDone() bool {
	return r.active == 0 && r.fetching == 0 && (r.aborted || len(r.ready) == 0)
}

// schedule starts the hydration of every ready node whose artifact has arrived.
func (r *run) schedule() {
	if r.aborted {
		return
	}

	waiting := r.ready[:0]
	for _, name := range r.ready {
		artifact, ok := r.artifacts[name]
		if !ok || r.active >= r.i.settings.Concurrency {
			waiting = append(waiting, name)
			continue
		}

		r.active++
		node, _ := r.res.plan.Node(name)
		go func() {
			entry, err := r.hydrate(node, artifact)
			r.events <- event{kind: hydrated, name: name, entry: entry, err: err}
		}()
	}
	r.ready = waiting
}

func (r *run) hydrate(node domain.ResolvedNode, artifact domain.Artifact) (domain.CellarEntry, error) {
	ctx, span := r.i.tracer.Start(r.ctx, "hydrate "+node.String(), ports.WithAttribute(AttrRunID, r.runID))
	defer span.End()

	entry, err := r.i.hydrator.Hydrate(ctx, node, artifact)
	if err != nil {
		span.RecordError(err)
		return domain.CellarEntry{}, err
	}
	return entry, nil
}

func (r *run) handle(ev event) {
	outcome := r.outcomes[ev.name]

	switch ev.kind {
	case fetched:
		r.fetching--
		if ev.err != nil {
			r.fail(outcome, ev.err)
			return
		}
		r.artifacts[ev.name] = ev.artifact
		outcome.Cached = ev.artifact.Cached

	case hydrated:
		r.active--
		if ev.err != nil {
			r.fail(outcome, ev.err)
			return
		}
		outcome.Status = domain.NodeStatusInstalled
		outcome.Entry = ev.entry
		r.i.logger.Done("installed " + outcome.Node.String())

		for _, dependent := range r.res.plan.Dependents(ev.name) {
			if _, ok := r.inDegree[dependent]; !ok {
				continue
			}
			r.inDegree[dependent]--
			if r.inDegree[dependent] == 0 {
				r.ready = append(r.ready, dependent)
			}
		}
	}
}

// fail records a node failure and aborts the run. Work that was already in flight when the run
// aborted is marked aborted; its own error stays on the outcome.
func (r *run) fail(outcome *domain.NodeOutcome, err error) {
	if r.aborted {
		outcome.Status = domain.NodeStatusAborted
		outcome.Err = errors.Join(domain.ErrInstallAborted, err)
		return
	}

	outcome.Status = domain.NodeStatusFailed
	outcome.Err = err
	r.failures = append(r.failures, err)
	r.aborted = true
	r.cancel()
	r.i.logger.Warn(zerr.With(zerr.Wrap(err, "aborting install"), "package", outcome.Node.String()).Error())
}

// Entries returns the satisfied cellar entries of the packages named by roots, in plan order.
// Without roots it returns every satisfied entry.
func Entries(result *domain.InstallResult, roots ...domain.PackageName) []domain.CellarEntry {
	entries := result.Entries()
	if len(roots) == 0 {
		return entries
	}
	return slices.DeleteFunc(entries, func(e domain.CellarEntry) bool {
		return !slices.Contains(roots, e.Name)
	})
}
