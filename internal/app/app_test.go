package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tea/internal/adapters/fs"
	"go.trai.ch/tea/internal/app"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports/mocks"
	"go.trai.ch/tea/internal/core/semver"
	"go.uber.org/mock/gomock"
)

type fakeInstaller struct {
	result *domain.InstallResult
	err    error
	reqs   []domain.Requirement
}

func (f *fakeInstaller) Resolve(_ context.Context, reqs []domain.Requirement) (*domain.Plan, error) {
	f.reqs = reqs
	if f.result == nil {
		return nil, f.err
	}
	return f.result.Plan, f.err
}

func (f *fakeInstaller) Install(_ context.Context, reqs []domain.Requirement) (*domain.InstallResult, error) {
	f.reqs = reqs
	return f.result, f.err
}

type fakeVerifier map[string]bool

func (f fakeVerifier) Verify(_ context.Context, entry domain.CellarEntry) (bool, error) {
	return f[entry.String()], nil
}

type fixture struct {
	cfg       domain.Config
	installer *fakeInstaller
	inventory *mocks.MockInventory
	linker    *mocks.MockLinker
	syncer    *mocks.MockPantrySyncer
	runner    *mocks.MockCommandRunner
	logger    *mocks.MockLogger
	verifier  fakeVerifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	prefix := t.TempDir()
	cfg := domain.NewConfig([]string{domain.DefaultPantryPath(prefix)})
	cfg.Prefix = prefix
	cfg.CacheDir = domain.DefaultCachePath(prefix)

	f := &fixture{
		cfg:       cfg,
		installer: &fakeInstaller{},
		inventory: mocks.NewMockInventory(ctrl),
		linker:    mocks.NewMockLinker(ctrl),
		syncer:    mocks.NewMockPantrySyncer(ctrl),
		runner:    mocks.NewMockCommandRunner(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
		verifier:  fakeVerifier{},
	}
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	f.logger.EXPECT().Done(gomock.Any()).AnyTimes()
	return f
}

func (f *fixture) app() *app.App {
	return app.New(f.cfg, f.installer, f.inventory, f.verifier, f.linker, f.syncer, f.runner, fs.NewSweeper(), f.logger)
}

func entry(prefix, name, version string) domain.CellarEntry {
	e := domain.CellarEntry{Name: domain.NewPackageName(name), Version: semver.MustParse(version)}
	e.Path = domain.VersionDir(prefix, e.Name, e.Version)
	return e
}

// installed builds a result where root was hydrated by the run and deps were already present.
func installed(t *testing.T, root domain.CellarEntry, deps ...domain.CellarEntry) *domain.InstallResult {
	t.Helper()

	plan := domain.NewPlan(root.Name)
	rootNode := domain.ResolvedNode{Name: root.Name, Version: root.Version}
	result := &domain.InstallResult{RunID: "run-1", Plan: plan}
	for _, d := range deps {
		node := domain.ResolvedNode{Name: d.Name, Version: d.Version}
		rootNode.Dependencies = append(rootNode.Dependencies, d.Name)
		require.NoError(t, plan.AddNode(node))
		result.Outcomes = append(result.Outcomes, domain.NodeOutcome{Node: node, Status: domain.NodeStatusAlreadyInstalled, Entry: d})
	}
	require.NoError(t, plan.AddNode(rootNode))
	require.NoError(t, plan.Validate())
	result.Outcomes = append(result.Outcomes, domain.NodeOutcome{Node: rootNode, Status: domain.NodeStatusInstalled, Entry: root})
	return result
}

func TestApp_Install_LinksRequestedPackages(t *testing.T) {
	f := newFixture(t)
	wget := entry(f.cfg.Prefix, "gnu.org/wget", "1.21.4")
	openssl := entry(f.cfg.Prefix, "openssl.org", "1.1.1")
	f.installer.result = installed(t, wget, openssl)

	f.linker.EXPECT().Link(gomock.Any(), []domain.CellarEntry{wget}).Return(domain.LinkResult{
		Linked:   []domain.LinkEntry{{Shortcut: "wget", Entry: wget.ID()}},
		Shadowed: []domain.LinkEntry{{Shortcut: "wget", Entry: entry(f.cfg.Prefix, "gnu.org/wget", "1.20.0").ID()}},
	}, nil)
	f.logger.EXPECT().Warn("wget no longer points into gnu.org/wget@1.20.0")

	result, err := f.app().Install(t.Context(), []string{"gnu.org/wget@1.21"}, app.InstallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)
	require.Len(t, f.installer.reqs, 1)
	assert.Equal(t, "gnu.org/wget@1.21", f.installer.reqs[0].String())
}

func TestApp_Install_NoLink(t *testing.T) {
	f := newFixture(t)
	f.installer.result = installed(t, entry(f.cfg.Prefix, "gnu.org/wget", "1.21.4"))

	_, err := f.app().Install(t.Context(), []string{"gnu.org/wget"}, app.InstallOptions{NoLink: true})
	require.NoError(t, err)
}

func TestApp_Install_Errors(t *testing.T) {
	t.Run("invalid requirement", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.app().Install(t.Context(), []string{"wget@banana"}, app.InstallOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrInvalidRequirement.Error())
	})

	t.Run("no requirements", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.app().Install(t.Context(), nil, app.InstallOptions{})
		require.ErrorIs(t, err, domain.ErrNoRequirements)
	})

	t.Run("install failure is not linked", func(t *testing.T) {
		f := newFixture(t)
		failure := &domain.InstallError{Failures: []error{&domain.FetchError{Err: domain.ErrDownloadFailed}}}
		f.installer.result = installed(t, entry(f.cfg.Prefix, "gnu.org/wget", "1.21.4"))
		f.installer.err = failure

		result, err := f.app().Install(t.Context(), []string{"gnu.org/wget"}, app.InstallOptions{})
		require.ErrorIs(t, err, domain.ErrFetch)
		assert.NotNil(t, result, "partial results are returned")
	})
}

func TestApp_Resolve(t *testing.T) {
	f := newFixture(t)
	f.installer.result = installed(t, entry(f.cfg.Prefix, "gnu.org/wget", "1.21.4"))

	plan, err := f.app().Resolve(t.Context(), []string{"gnu.org/wget"})
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Len())
}

func TestApp_Link(t *testing.T) {
	f := newFixture(t)
	a10 := entry(f.cfg.Prefix, "a.org", "1.0.0")
	a15 := entry(f.cfg.Prefix, "a.org", "1.5.0")
	a20 := entry(f.cfg.Prefix, "a.org", "2.0.0")
	f.inventory.EXPECT().Installed(gomock.Any()).Return([]domain.CellarEntry{a10, a15, a20}, nil).Times(2)

	f.linker.EXPECT().Link(gomock.Any(), []domain.CellarEntry{a15}).Return(domain.LinkResult{}, nil)
	_, err := f.app().Link(t.Context(), []string{"a.org^1"})
	require.NoError(t, err)

	_, err = f.app().Link(t.Context(), []string{"a.org^3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrNotInstalled.Error())
}

func TestApp_Unlink(t *testing.T) {
	f := newFixture(t)
	f.linker.EXPECT().Unlink(gomock.Any(), domain.NewPackageName("a.org")).Return([]domain.LinkEntry{{Shortcut: "a"}}, nil)
	f.linker.EXPECT().Unlink(gomock.Any(), domain.NewPackageName("b.org")).Return(nil, nil)

	removed, err := f.app().Unlink(t.Context(), []string{"a.org", "b.org"})
	require.NoError(t, err)
	assert.Equal(t, []domain.LinkEntry{{Shortcut: "a"}}, removed)

	_, err = f.app().Unlink(t.Context(), nil)
	require.ErrorIs(t, err, domain.ErrNoRequirements)
}

func TestApp_List(t *testing.T) {
	f := newFixture(t)
	good := entry(f.cfg.Prefix, "a.org", "1.0.0")
	bad := entry(f.cfg.Prefix, "b.org", "1.0.0")
	f.verifier[good.String()] = true
	f.inventory.EXPECT().Installed(gomock.Any()).Return([]domain.CellarEntry{good, bad}, nil).Times(2)
	f.logger.EXPECT().Warn("b.org@1.0.0 differs from its manifest")

	items, err := f.app().List(t.Context(), false)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.False(t, items[0].Verified)

	items, err = f.app().List(t.Context(), true)
	require.NoError(t, err)
	assert.True(t, items[0].Verified)
	assert.True(t, items[0].Intact)
	assert.False(t, items[1].Intact)
}

func TestApp_EnvAndRun(t *testing.T) {
	f := newFixture(t)
	wget := entry(f.cfg.Prefix, "gnu.org/wget", "1.21.4")
	require.NoError(t, os.MkdirAll(wget.BinPath(), domain.DirPerm))
	f.installer.result = installed(t, wget)

	env, err := f.app().Env(t.Context(), []string{"gnu.org/wget"})
	require.NoError(t, err)
	assert.Equal(t, []string{wget.BinPath()}, env.Get("PATH"))

	f.runner.EXPECT().Run(gomock.Any(), "", []string{"wget", "--version"}, env).Return(nil)
	require.NoError(t, f.app().Run(t.Context(), []string{"gnu.org/wget"}, []string{"wget", "--version"}))

	err = f.app().Run(t.Context(), []string{"gnu.org/wget"}, nil)
	require.ErrorIs(t, err, domain.ErrNoCommand)
}

func TestApp_Sync(t *testing.T) {
	f := newFixture(t)
	f.syncer.EXPECT().Sync(gomock.Any()).Return(nil)
	require.NoError(t, f.app().Sync(t.Context()))

	f.syncer.EXPECT().Sync(gomock.Any()).Return(domain.ErrPantrySyncFailed)
	require.ErrorIs(t, f.app().Sync(t.Context()), domain.ErrPantrySyncFailed)
}

func TestApp_Clean(t *testing.T) {
	f := newFixture(t)

	stale := filepath.Join(f.cfg.Prefix, "a.org", ".tmp-v1.0.0-123")
	fresh := filepath.Join(f.cfg.Prefix, "a.org", ".tmp-v2.0.0-456")
	require.NoError(t, os.MkdirAll(stale, domain.DirPerm))
	require.NoError(t, os.MkdirAll(fresh, domain.DirPerm))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	bottle := filepath.Join(f.cfg.CacheDir, "a.org", "1.0.0", "linux-x86-64.tar.gz")
	require.NoError(t, os.MkdirAll(filepath.Dir(bottle), domain.DirPerm))
	require.NoError(t, os.WriteFile(bottle, []byte("bottle"), domain.FilePerm))

	require.NoError(t, f.app().Clean(t.Context(), app.CleanOptions{Temp: true}))
	assert.NoDirExists(t, stale)
	assert.DirExists(t, fresh)
	assert.FileExists(t, bottle)

	require.NoError(t, f.app().Clean(t.Context(), app.CleanOptions{Cache: true}))
	assert.NoDirExists(t, f.cfg.CacheDir)
}

func TestComponents_Close(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := mocks.NewMockTelemetry(ctrl)
	rec.EXPECT().Close().Return(errors.New("flush failed"))

	c := &app.Components{Telemetry: rec}
	require.EqualError(t, c.Close(), "flush failed")
	require.NoError(t, (&app.Components{}).Close())
}
