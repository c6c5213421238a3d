package pantry_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tea/internal/adapters/pantry"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
	"go.trai.ch/tea/internal/core/semver"
)

func writeRecipe(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, domain.ProjectsDirName, filepath.FromSlash(name), domain.RecipeFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
}

const wgetRecipe = `
provides: [bin/wget]
versions:
  - version: 1.21.4
    dependencies:
      openssl.org: ^1.1
      zlib.net: 1.2
      gnu.org/libidn2: "*"
    checksums:
      linux/x86-64/gz: aaaa
      linux/x86-64/xz: bbbb
  - version: 1.20.3
`

func TestLoader_Load(t *testing.T) {
	var _ ports.PantryLoader = (*pantry.Loader)(nil)

	root := t.TempDir()
	writeRecipe(t, root, "gnu.org/wget", wgetRecipe)
	writeRecipe(t, root, "zlib.net", "versions:\n  - version: 1.2.13\n  - version: 1.3.0\n    dependencies:\n")

	snapshot, err := pantry.NewLoader([]string{root}).Load(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.Len())
	assert.Len(t, snapshot.Digest(), 16)

	wget, ok := snapshot.Entry(domain.NewPackageName("gnu.org/wget"))
	require.True(t, ok)
	assert.Equal(t, []string{"bin/wget"}, wget.Provides)
	assert.Equal(t, []semver.Version{semver.MustParse("1.20.3"), semver.MustParse("1.21.4")}, wget.VersionList())

	v, ok := wget.Lookup(semver.MustParse("1.21.4"))
	require.True(t, ok)
	require.Len(t, v.Dependencies, 3)
	assert.Equal(t, "openssl.org", v.Dependencies[0].Name.String(), "recipe order is kept")
	assert.Equal(t, "zlib.net", v.Dependencies[1].Name.String())
	assert.Equal(t, "gnu.org/libidn2", v.Dependencies[2].Name.String())
	assert.True(t, v.Dependencies[1].Range.Contains(semver.MustParse("1.2.13")))

	sum, ok := v.Checksum("linux/x86-64", domain.CompressionXZ)
	require.True(t, ok)
	assert.Equal(t, "bbbb", sum)

	zlib, ok := snapshot.Entry(domain.NewPackageName("zlib.net"))
	require.True(t, ok)
	latest, ok := zlib.Lookup(semver.MustParse("1.3.0"))
	require.True(t, ok)
	assert.Empty(t, latest.Dependencies)
}

func TestLoader_FirstSourceWins(t *testing.T) {
	primary, secondary := t.TempDir(), t.TempDir()
	writeRecipe(t, primary, "zlib.net", "versions:\n  - version: 1.3.0\n")
	writeRecipe(t, secondary, "zlib.net", "versions:\n  - version: 9.9.9\n")
	writeRecipe(t, secondary, "openssl.org", "versions:\n  - version: 3.1.0\n")

	missing := filepath.Join(t.TempDir(), "missing")
	snapshot, err := pantry.NewLoader([]string{missing, primary, secondary}).Load(t.Context())
	require.NoError(t, err)

	zlib, ok := snapshot.Entry(domain.NewPackageName("zlib.net"))
	require.True(t, ok)
	assert.Equal(t, []semver.Version{semver.MustParse("1.3.0")}, zlib.VersionList())

	_, ok = snapshot.Entry(domain.NewPackageName("openssl.org"))
	assert.True(t, ok)
}

func TestLoader_DigestTracksContent(t *testing.T) {
	root := t.TempDir()
	writeRecipe(t, root, "zlib.net", "versions:\n  - version: 1.3.0\n")

	loader := pantry.NewLoader([]string{root})
	first, err := loader.Load(t.Context())
	require.NoError(t, err)
	again, err := loader.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, first.Digest(), again.Digest())

	writeRecipe(t, root, "zlib.net", "versions:\n  - version: 1.3.1\n")
	changed, err := loader.Load(t.Context())
	require.NoError(t, err)
	assert.NotEqual(t, first.Digest(), changed.Digest())
}

func TestLoader_Errors(t *testing.T) {
	tests := map[string]string{
		"invalid yaml":       "versions: [",
		"invalid version":    "versions:\n  - version: banana\n",
		"invalid range":      "versions:\n  - version: 1.0.0\n    dependencies:\n      zlib.net: ^banana\n",
		"dependency list":    "versions:\n  - version: 1.0.0\n    dependencies: [zlib.net]\n",
		"duplicate versions": "versions:\n  - version: 1.0.0\n  - version: 1.0.0\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			writeRecipe(t, root, "broken.org", content)

			_, err := pantry.NewLoader([]string{root}).Load(t.Context())
			require.Error(t, err)
			assert.Contains(t, err.Error(), domain.ErrPantryParseFailed.Error())
		})
	}
}

func TestLoader_NotFound(t *testing.T) {
	_, err := pantry.NewLoader([]string{filepath.Join(t.TempDir(), "nope")}).Load(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrPantryNotFound.Error())
}

func TestLoader_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeRecipe(t, root, "zlib.net", "versions:\n  - version: 1.3.0\n")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := pantry.NewLoader([]string{root}).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
