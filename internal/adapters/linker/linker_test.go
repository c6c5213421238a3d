package linker_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tea/internal/adapters/linker"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
	"go.trai.ch/tea/internal/core/semver"
)

// install fakes a hydrated cellar entry providing the given executables.
func install(t *testing.T, prefix, name, version string, bins ...string) domain.CellarEntry {
	t.Helper()
	entry := domain.CellarEntry{
		Name:    domain.NewPackageName(name),
		Version: semver.MustParse(version),
	}
	entry.Path = domain.VersionDir(prefix, entry.Name, entry.Version)
	require.NoError(t, os.MkdirAll(entry.BinPath(), domain.DirPerm))
	for _, b := range bins {
		require.NoError(t, os.WriteFile(filepath.Join(entry.BinPath(), b), []byte("#!/bin/sh\necho "+name+"@"+version+"\n"), domain.ExecPerm))
	}
	return entry
}

func resolve(t *testing.T, path string) string {
	t.Helper()
	got, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return got
}

func TestLinker_Link(t *testing.T) {
	var _ ports.Linker = (*linker.Linker)(nil)

	prefix := t.TempDir()
	wget := install(t, prefix, "gnu.org/wget", "1.21.4", "wget")
	require.NoError(t, os.WriteFile(filepath.Join(wget.BinPath(), "README"), []byte("docs"), domain.FilePerm))

	l := linker.New(prefix)
	result, err := l.Link(t.Context(), []domain.CellarEntry{wget})
	require.NoError(t, err)

	require.Len(t, result.Linked, 1)
	assert.Equal(t, "wget", result.Linked[0].Shortcut)
	assert.Equal(t, wget.ID(), result.Linked[0].Entry)
	assert.Empty(t, result.Shadowed)

	shortcut := filepath.Join(prefix, "bin", "wget")
	target, err := os.Readlink(shortcut)
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(target), "shortcuts are relative so the prefix can move")
	assert.Equal(t, resolve(t, filepath.Join(wget.BinPath(), "wget")), resolve(t, shortcut))

	for _, alias := range []string{"v1", "v*"} {
		assert.Equal(t, resolve(t, wget.Path), resolve(t, filepath.Join(prefix, "gnu.org", "wget", alias)))
	}

	again, err := l.Link(t.Context(), []domain.CellarEntry{wget})
	require.NoError(t, err)
	assert.Empty(t, again.Shadowed, "relinking the same entry displaces nothing")
}

func TestLinker_NewerVersionShadowsOlder(t *testing.T) {
	prefix := t.TempDir()
	a1 := install(t, prefix, "a.org", "1.0.0", "a")
	a2 := install(t, prefix, "a.org", "2.0.0", "a")
	shortcut := filepath.Join(prefix, "bin", "a")

	l := linker.New(prefix)
	_, err := l.Link(t.Context(), []domain.CellarEntry{a1})
	require.NoError(t, err)

	result, err := l.Link(t.Context(), []domain.CellarEntry{a2})
	require.NoError(t, err)
	require.Len(t, result.Shadowed, 1)
	assert.Equal(t, a1.ID(), result.Shadowed[0].Entry)
	assert.Equal(t, resolve(t, filepath.Join(a2.BinPath(), "a")), resolve(t, shortcut))
	assert.DirExists(t, a1.Path, "shadowed entries stay in the cellar")

	assert.Equal(t, resolve(t, a2.Path), resolve(t, filepath.Join(prefix, "a.org", "v*")))
	assert.Equal(t, resolve(t, a2.Path), resolve(t, filepath.Join(prefix, "a.org", "v2")))
	assert.Equal(t, resolve(t, a1.Path), resolve(t, filepath.Join(prefix, "a.org", "v1")))

	rollback, err := l.Link(t.Context(), []domain.CellarEntry{a1})
	require.NoError(t, err)
	require.Len(t, rollback.Shadowed, 1)
	assert.Equal(t, a2.ID(), rollback.Shadowed[0].Entry)
	assert.Equal(t, resolve(t, filepath.Join(a1.BinPath(), "a")), resolve(t, shortcut))
}

func TestLinker_LaterEntriesWin(t *testing.T) {
	prefix := t.TempDir()
	gnu := install(t, prefix, "gnu.org/coreutils", "9.4.0", "ls", "cat")
	bsd := install(t, prefix, "freebsd.org/ls", "1.0.0", "ls")

	result, err := linker.New(prefix).Link(t.Context(), []domain.CellarEntry{gnu, bsd})
	require.NoError(t, err)

	assert.Len(t, result.Linked, 3)
	require.Len(t, result.Shadowed, 1)
	assert.Equal(t, "ls", result.Shadowed[0].Shortcut)
	assert.Equal(t, gnu.ID(), result.Shadowed[0].Entry)
	assert.Equal(t, resolve(t, filepath.Join(bsd.BinPath(), "ls")), resolve(t, filepath.Join(prefix, "bin", "ls")))
	assert.Equal(t, resolve(t, filepath.Join(gnu.BinPath(), "cat")), resolve(t, filepath.Join(prefix, "bin", "cat")))
}

func TestLinker_Conflicts(t *testing.T) {
	tests := map[string]func(t *testing.T, path string){
		"regular file": func(t *testing.T, path string) {
			require.NoError(t, os.WriteFile(path, []byte("mine"), domain.ExecPerm))
		},
		"directory": func(t *testing.T, path string) {
			require.NoError(t, os.Mkdir(path, domain.DirPerm))
		},
		"foreign symlink": func(t *testing.T, path string) {
			require.NoError(t, os.Symlink("/usr/bin/wget", path))
		},
	}

	for name, occupy := range tests {
		t.Run(name, func(t *testing.T) {
			prefix := t.TempDir()
			wget := install(t, prefix, "gnu.org/wget", "1.21.4", "wget")
			require.NoError(t, os.MkdirAll(filepath.Join(prefix, "bin"), domain.DirPerm))
			path := filepath.Join(prefix, "bin", "wget")
			occupy(t, path)

			_, err := linker.New(prefix).Link(t.Context(), []domain.CellarEntry{wget})
			require.Error(t, err)

			var linkErr *domain.LinkError
			require.ErrorAs(t, err, &linkErr)
			assert.Equal(t, "wget", linkErr.Shortcut)
			assert.ErrorIs(t, err, domain.ErrLink)
			assert.ErrorIs(t, err, domain.ErrLinkConflict)
		})
	}
}

func TestLinker_NotInstalled(t *testing.T) {
	prefix := t.TempDir()
	ghost := domain.CellarEntry{Name: domain.NewPackageName("ghost.org"), Version: semver.MustParse("1.0.0")}
	ghost.Path = domain.VersionDir(prefix, ghost.Name, ghost.Version)

	_, err := linker.New(prefix).Link(t.Context(), []domain.CellarEntry{ghost})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLink)
	assert.Contains(t, err.Error(), domain.ErrNotInstalled.Error())
}

func TestLinker_Unlink(t *testing.T) {
	prefix := t.TempDir()
	wget := install(t, prefix, "gnu.org/wget", "1.21.4", "wget", "wget-ssl")
	curl := install(t, prefix, "curl.se", "8.5.0", "curl")

	l := linker.New(prefix)
	_, err := l.Link(t.Context(), []domain.CellarEntry{wget, curl})
	require.NoError(t, err)

	removed, err := l.Unlink(t.Context(), wget.Name)
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.Equal(t, "wget", removed[0].Shortcut)
	assert.Equal(t, "wget-ssl", removed[1].Shortcut)
	assert.Equal(t, wget.ID(), removed[0].Entry)

	assert.NoFileExists(t, filepath.Join(prefix, "bin", "wget"))
	_, err = os.Lstat(filepath.Join(prefix, "bin", "curl"))
	assert.NoError(t, err)
	assert.DirExists(t, wget.Path)

	none, err := linker.New(t.TempDir()).Unlink(t.Context(), wget.Name)
	require.NoError(t, err)
	assert.Empty(t, none)
}
