package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tea/cmd/tea/commands"
	"go.trai.ch/tea/internal/app"
	"go.trai.ch/tea/internal/build"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/semver"
)

type mockApp struct {
	installFunc func(ctx context.Context, args []string, opts app.InstallOptions) (*domain.InstallResult, error)
	resolveFunc func(ctx context.Context, args []string) (*domain.Plan, error)
	listFunc    func(ctx context.Context, verify bool) ([]app.ListItem, error)
	envFunc     func(ctx context.Context, args []string) (domain.Env, error)
	runFunc     func(ctx context.Context, args, argv []string) error
	cleanFunc   func(ctx context.Context, options app.CleanOptions) error
	linked      []string
	unlinked    []string
	synced      bool
}

func (m *mockApp) Install(ctx context.Context, args []string, opts app.InstallOptions) (*domain.InstallResult, error) {
	return m.installFunc(ctx, args, opts)
}

func (m *mockApp) Resolve(ctx context.Context, args []string) (*domain.Plan, error) {
	return m.resolveFunc(ctx, args)
}

func (m *mockApp) Link(_ context.Context, args []string) (domain.LinkResult, error) {
	m.linked = args
	return domain.LinkResult{Linked: []domain.LinkEntry{{Shortcut: "wget", Entry: id("gnu.org/wget", "1.21.4")}}}, nil
}

func (m *mockApp) Unlink(_ context.Context, names []string) ([]domain.LinkEntry, error) {
	m.unlinked = names
	return []domain.LinkEntry{{Shortcut: "wget"}}, nil
}

func (m *mockApp) List(ctx context.Context, verify bool) ([]app.ListItem, error) {
	return m.listFunc(ctx, verify)
}

func (m *mockApp) Env(ctx context.Context, args []string) (domain.Env, error) {
	return m.envFunc(ctx, args)
}

func (m *mockApp) Run(ctx context.Context, args, argv []string) error {
	return m.runFunc(ctx, args, argv)
}

func (m *mockApp) Sync(_ context.Context) error {
	m.synced = true
	return nil
}

func (m *mockApp) Clean(ctx context.Context, options app.CleanOptions) error {
	return m.cleanFunc(ctx, options)
}

func id(name, version string) domain.NodeID {
	return domain.NodeID{Name: domain.NewPackageName(name), Version: semver.MustParse(version)}
}

func node(name, version string, deps ...string) domain.ResolvedNode {
	n := domain.ResolvedNode{Name: domain.NewPackageName(name), Version: semver.MustParse(version)}
	for _, d := range deps {
		n.Dependencies = append(n.Dependencies, domain.NewPackageName(d))
	}
	return n
}

func wgetPlan(t *testing.T) *domain.Plan {
	t.Helper()
	plan := domain.NewPlan(domain.NewPackageName("gnu.org/wget"))
	for _, n := range []domain.ResolvedNode{
		node("gnu.org/wget", "1.21.4", "openssl.org", "zlib.net"),
		node("openssl.org", "1.1.1", "zlib.net"),
		node("zlib.net", "1.3.0"),
	} {
		require.NoError(t, plan.AddNode(n))
	}
	require.NoError(t, plan.Validate())
	return plan
}

func execute(t *testing.T, m *mockApp, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	cli := commands.New(m)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Resolve(t *testing.T) {
	m := &mockApp{
		resolveFunc: func(_ context.Context, args []string) (*domain.Plan, error) {
			assert.Equal(t, []string{"gnu.org/wget@1.21"}, args)
			return wgetPlan(t), nil
		},
	}

	out, err := execute(t, m, "resolve", "gnu.org/wget@1.21")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "resolve_plan", []byte(out))
}

func TestCommands_Install(t *testing.T) {
	t.Run("renders outcomes and wires flags", func(t *testing.T) {
		var captured app.InstallOptions
		m := &mockApp{
			installFunc: func(_ context.Context, _ []string, opts app.InstallOptions) (*domain.InstallResult, error) {
				captured = opts
				plan := wgetPlan(t)
				return &domain.InstallResult{
					RunID: "run-1",
					Plan:  plan,
					Outcomes: []domain.NodeOutcome{
						{Node: node("zlib.net", "1.3.0"), Status: domain.NodeStatusAlreadyInstalled},
						{Node: node("openssl.org", "1.1.1", "zlib.net"), Status: domain.NodeStatusInstalled, Cached: true},
						{Node: node("gnu.org/wget", "1.21.4", "openssl.org", "zlib.net"), Status: domain.NodeStatusInstalled},
					},
				}, nil
			},
		}

		out, err := execute(t, m, "install", "gnu.org/wget", "--no-link")
		require.NoError(t, err)
		assert.True(t, captured.NoLink)

		g := goldie.New(t)
		g.Assert(t, "install_result", []byte(out))
	})

	t.Run("renders partial result on failure", func(t *testing.T) {
		failure := &domain.InstallError{Failures: []error{&domain.FetchError{
			Package: domain.NewPackageName("openssl.org"),
			Version: semver.MustParse("1.1.1"),
			Err:     domain.ErrDownloadFailed,
		}}}
		m := &mockApp{
			installFunc: func(_ context.Context, _ []string, _ app.InstallOptions) (*domain.InstallResult, error) {
				return &domain.InstallResult{
					Plan: wgetPlan(t),
					Outcomes: []domain.NodeOutcome{
						{Node: node("zlib.net", "1.3.0"), Status: domain.NodeStatusInstalled},
						{Node: node("openssl.org", "1.1.1", "zlib.net"), Status: domain.NodeStatusFailed},
						{Node: node("gnu.org/wget", "1.21.4", "openssl.org", "zlib.net"), Status: domain.NodeStatusAborted},
					},
				}, failure
			},
		}

		out, err := execute(t, m, "install", "gnu.org/wget")
		require.ErrorIs(t, err, domain.ErrFetch)

		g := goldie.New(t)
		g.Assert(t, "install_partial", []byte(out))
	})

	t.Run("shows usage without packages", func(t *testing.T) {
		out, err := execute(t, &mockApp{}, "install")
		require.NoError(t, err)
		assert.Contains(t, out, "Usage:")
	})
}

func TestCommands_List(t *testing.T) {
	var verified bool
	m := &mockApp{
		listFunc: func(_ context.Context, verify bool) ([]app.ListItem, error) {
			verified = verify
			return []app.ListItem{
				{Entry: domain.CellarEntry{Name: domain.NewPackageName("gnu.org/wget"), Version: semver.MustParse("1.21.4"), Path: "/opt/tea/gnu.org/wget/v1.21.4"}, Verified: true, Intact: true},
				{Entry: domain.CellarEntry{Name: domain.NewPackageName("zlib.net"), Version: semver.MustParse("1.3.0"), Path: "/opt/tea/zlib.net/v1.3.0"}, Verified: true},
			}, nil
		},
	}

	out, err := execute(t, m, "list", "--verify")
	require.NoError(t, err)
	assert.True(t, verified)

	g := goldie.New(t)
	g.Assert(t, "list_verify", []byte(out))
}

func TestCommands_LinkUnlink(t *testing.T) {
	m := &mockApp{}

	out, err := execute(t, m, "link", "gnu.org/wget@1")
	require.NoError(t, err)
	assert.Equal(t, []string{"gnu.org/wget@1"}, m.linked)
	assert.Equal(t, "✓ wget → gnu.org/wget@1.21.4\n", out)

	out, err = execute(t, m, "unlink", "gnu.org/wget")
	require.NoError(t, err)
	assert.Equal(t, []string{"gnu.org/wget"}, m.unlinked)
	assert.Equal(t, "✗ wget\n", out)
}

func TestCommands_Env(t *testing.T) {
	m := &mockApp{
		envFunc: func(_ context.Context, _ []string) (domain.Env, error) {
			var env domain.Env
			env.Add("PATH", "/opt/tea/gnu.org/wget/v1.21.4/bin")
			return env, nil
		},
	}

	out, err := execute(t, m, "env", "gnu.org/wget")
	require.NoError(t, err)
	assert.Equal(t, "export PATH=/opt/tea/gnu.org/wget/v1.21.4/bin\"${PATH:+:$PATH}\"\n", out)
}

func TestCommands_Run(t *testing.T) {
	t.Run("splits packages from the command", func(t *testing.T) {
		var gotArgs, gotArgv []string
		m := &mockApp{
			runFunc: func(_ context.Context, args, argv []string) error {
				gotArgs, gotArgv = args, argv
				return nil
			},
		}

		_, err := execute(t, m, "run", "nodejs.org@18", "npm", "--", "node", "--version")
		require.NoError(t, err)
		assert.Equal(t, []string{"nodejs.org@18", "npm"}, gotArgs)
		assert.Equal(t, []string{"node", "--version"}, gotArgv)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		m := &mockApp{
			runFunc: func(_ context.Context, _, _ []string) error {
				return errors.New("simulated error")
			},
		}

		_, err := execute(t, m, "run", "nodejs.org", "--", "node")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("shows usage without a command", func(t *testing.T) {
		out, err := execute(t, &mockApp{}, "run", "nodejs.org", "node")
		require.NoError(t, err)
		assert.Contains(t, out, "Usage:")
	})
}

func TestCommands_Clean(t *testing.T) {
	tests := []struct {
		args []string
		want app.CleanOptions
	}{
		{args: nil, want: app.CleanOptions{Temp: true}},
		{args: []string{"--cache"}, want: app.CleanOptions{Cache: true}},
		{args: []string{"--cache", "--temp"}, want: app.CleanOptions{Cache: true, Temp: true}},
	}

	for _, tt := range tests {
		var got app.CleanOptions
		m := &mockApp{
			cleanFunc: func(_ context.Context, options app.CleanOptions) error {
				got = options
				return nil
			},
		}

		_, err := execute(t, m, append([]string{"clean"}, tt.args...)...)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v", tt.args)
	}
}

func TestCommands_Sync(t *testing.T) {
	m := &mockApp{}
	_, err := execute(t, m, "sync")
	require.NoError(t, err)
	assert.True(t, m.synced)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)
}
