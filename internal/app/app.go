// Package app implements the application layer for tea.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
	"go.trai.ch/tea/internal/engine/installer"
	"go.trai.ch/tea/internal/engine/shellenv"
	"go.trai.ch/zerr"
)

// StaleTempAge is how old a temporary file must be before clean removes it.
const StaleTempAge = time.Hour

// Installer is the install pipeline the application drives.
type Installer interface {
	Resolve(ctx context.Context, reqs []domain.Requirement) (*domain.Plan, error)
	Install(ctx context.Context, reqs []domain.Requirement) (*domain.InstallResult, error)
}

// Verifier checks hydrated entries against their manifest.
type Verifier interface {
	Verify(ctx context.Context, entry domain.CellarEntry) (bool, error)
}

// Sweeper removes stale temporary files.
type Sweeper interface {
	Sweep(ctx context.Context, olderThan time.Duration, roots ...string) ([]string, error)
}

// App represents the main application logic.
type App struct {
	cfg       domain.Config
	installer Installer
	inventory ports.Inventory
	verifier  Verifier
	linker    ports.Linker
	syncer    ports.PantrySyncer
	runner    ports.CommandRunner
	sweeper   Sweeper
	logger    ports.Logger
}

// New creates a new App instance.
func New(
	cfg domain.Config,
	inst Installer,
	inventory ports.Inventory,
	verifier Verifier,
	linker ports.Linker,
	syncer ports.PantrySyncer,
	runner ports.CommandRunner,
	sweeper Sweeper,
	log ports.Logger,
) *App {
	return &App{
		cfg:       cfg,
		installer: inst,
		inventory: inventory,
		verifier:  verifier,
		linker:    linker,
		syncer:    syncer,
		runner:    runner,
		sweeper:   sweeper,
		logger:    log,
	}
}

// InstallOptions configuration for the Install method.
type InstallOptions struct {
	// NoLink skips linking the requested packages after installing them.
	NoLink bool
}

// Install installs the packages named by args and, unless disabled, links the requested ones.
func (a *App) Install(ctx context.Context, args []string, opts InstallOptions) (*domain.InstallResult, error) {
	reqs, err := parseRequirements(args)
	if err != nil {
		return nil, err
	}

	result, err := a.installer.Install(ctx, reqs)
	if err != nil {
		return result, err
	}
	a.logger.Info(fmt.Sprintf("%d installed, %d already installed (run %s)",
		result.Count(domain.NodeStatusInstalled),
		result.Count(domain.NodeStatusAlreadyInstalled),
		result.RunID))

	if opts.NoLink {
		return result, nil
	}
	if _, err := a.link(ctx, installer.Entries(result, result.Plan.Roots()...)); err != nil {
		return result, err
	}
	return result, nil
}

// Resolve returns the plan for args without installing anything.
func (a *App) Resolve(ctx context.Context, args []string) (*domain.Plan, error) {
	reqs, err := parseRequirements(args)
	if err != nil {
		return nil, err
	}
	return a.installer.Resolve(ctx, reqs)
}

// Link links the newest installed version matching each requirement in args.
func (a *App) Link(ctx context.Context, args []string) (domain.LinkResult, error) {
	reqs, err := parseRequirements(args)
	if err != nil {
		return domain.LinkResult{}, err
	}

	installed, err := a.inventory.Installed(ctx)
	if err != nil {
		return domain.LinkResult{}, err
	}

	entries := make([]domain.CellarEntry, 0, len(reqs))
	for _, req := range reqs {
		entry, ok := newestMatching(installed, req)
		if !ok {
			return domain.LinkResult{}, zerr.With(domain.ErrNotInstalled, "package", req.String())
		}
		entries = append(entries, entry)
	}
	return a.link(ctx, entries)
}

func (a *App) link(ctx context.Context, entries []domain.CellarEntry) (domain.LinkResult, error) {
	result, err := a.linker.Link(ctx, entries)
	if err != nil {
		return result, err
	}
	for _, s := range result.Shadowed {
		a.logger.Warn(fmt.Sprintf("%s no longer points into %s", s.Shortcut, s.Entry))
	}
	if len(result.Linked) > 0 {
		a.logger.Done(fmt.Sprintf("linked %d shortcuts into %s", len(result.Linked), domain.BinDir(a.cfg.Prefix)))
	}
	return result, nil
}

// Unlink removes the shortcuts of every package named by names.
func (a *App) Unlink(ctx context.Context, names []string) ([]domain.LinkEntry, error) {
	if len(names) == 0 {
		return nil, domain.ErrNoRequirements
	}

	var removed []domain.LinkEntry
	for _, name := range names {
		entries, err := a.linker.Unlink(ctx, domain.NewPackageName(name))
		removed = append(removed, entries...)
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// ListItem is one hydrated package version.
type ListItem struct {
	Entry domain.CellarEntry
	// Verified reports whether the tree was checked against its manifest; Intact is the result.
	Verified bool
	Intact   bool
}

// List returns the hydrated package versions, optionally verifying their trees.
func (a *App) List(ctx context.Context, verify bool) ([]ListItem, error) {
	entries, err := a.inventory.Installed(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, 0, len(entries))
	for _, entry := range entries {
		item := ListItem{Entry: entry}
		if verify {
			intact, err := a.verifier.Verify(ctx, entry)
			if err != nil {
				return items, err
			}
			item.Verified, item.Intact = true, intact
			if !intact {
				a.logger.Warn(entry.String() + " differs from its manifest")
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Env installs args without linking and returns the environment exposing them.
func (a *App) Env(ctx context.Context, args []string) (domain.Env, error) {
	result, err := a.Install(ctx, args, InstallOptions{NoLink: true})
	if err != nil {
		return domain.Env{}, err
	}
	return shellenv.Build(result.Entries()), nil
}

// Run installs args without linking and runs argv with them on the search paths.
func (a *App) Run(ctx context.Context, args, argv []string) error {
	if len(argv) == 0 {
		return domain.ErrNoCommand
	}
	env, err := a.Env(ctx, args)
	if err != nil {
		return err
	}
	return a.runner.Run(ctx, "", argv, env)
}

// Sync updates the pantry from its remote.
func (a *App) Sync(ctx context.Context) error {
	if err := a.syncer.Sync(ctx); err != nil {
		return err
	}
	a.logger.Done("pantry is up to date")
	return nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Cache bool
	Temp  bool
}

// Clean removes downloaded bottles or stale temporary files.
func (a *App) Clean(ctx context.Context, options CleanOptions) error {
	var errs error

	if options.Temp {
		removed, err := a.sweeper.Sweep(ctx, StaleTempAge, a.cfg.Prefix, a.cfg.CacheDir)
		for _, path := range removed {
			a.logger.Info("removed " + path)
		}
		errs = errors.Join(errs, err)
	}

	if options.Cache {
		a.logger.Info("removing artifact cache...")
		if err := os.RemoveAll(a.cfg.CacheDir); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", a.cfg.CacheDir))
		} else {
			a.logger.Done("removed artifact cache")
		}
	}

	return errs
}

func parseRequirements(args []string) ([]domain.Requirement, error) {
	if len(args) == 0 {
		return nil, domain.ErrNoRequirements
	}

	reqs := make([]domain.Requirement, 0, len(args))
	for _, arg := range args {
		req, err := domain.ParseRequirement(arg)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func newestMatching(installed []domain.CellarEntry, req domain.Requirement) (domain.CellarEntry, bool) {
	var candidates []domain.CellarEntry
	for _, e := range installed {
		if e.Name == req.Name && req.Range.Contains(e.Version) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return domain.CellarEntry{}, false
	}
	return slices.MaxFunc(candidates, func(x, y domain.CellarEntry) int {
		return x.Version.Compare(y.Version)
	}), true
}
