package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tea/internal/adapters/fs"
	"go.trai.ch/tea/internal/core/domain"
)

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
}

func TestWalker_WalkFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "config"), "git config", domain.FilePerm)
	writeFile(t, filepath.Join(root, ".tmp-v1.0.0-123", "bin", "a"), "partial", domain.FilePerm)
	writeFile(t, filepath.Join(root, "ignored", "file"), "ignored", domain.FilePerm)
	writeFile(t, filepath.Join(root, "bin", "wget"), "#!/bin/sh", domain.ExecPerm)
	writeFile(t, filepath.Join(root, "README.md"), "# Readme", domain.FilePerm)

	var files []string
	for path, err := range fs.NewWalker().WalkFiles(root, []string{"ignored"}) {
		require.NoError(t, err)
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		files = append(files, filepath.ToSlash(rel))
	}

	assert.Equal(t, []string{"README.md", "bin/wget"}, files)
}

func TestWalker_MissingRoot(t *testing.T) {
	var errs int
	for _, err := range fs.NewWalker().WalkFiles(filepath.Join(t.TempDir(), "missing"), nil) {
		if err != nil {
			errs++
		}
	}
	assert.Equal(t, 1, errs)
}

func TestHasher_ComputeFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	writeFile(t, path, "hello world", domain.FilePerm)

	hasher := fs.NewHasher(fs.NewWalker())

	hash1, err := hasher.ComputeFileHash(path)
	require.NoError(t, err)
	assert.NotZero(t, hash1)

	hash2, err := hasher.ComputeFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)

	_, err = hasher.ComputeFileHash(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestHasher_ComputeTreeHash(t *testing.T) {
	hasher := fs.NewHasher(fs.NewWalker())

	build := func(t *testing.T) string {
		t.Helper()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "bin", "wget"), "#!/bin/sh\necho wget\n", domain.ExecPerm)
		writeFile(t, filepath.Join(root, "share", "man", "wget.1"), "manual", domain.FilePerm)
		require.NoError(t, os.Symlink("wget", filepath.Join(root, "bin", "wget2")))
		return root
	}

	a, b := build(t), build(t)
	hashA, err := hasher.ComputeTreeHash(a)
	require.NoError(t, err)
	hashB, err := hasher.ComputeTreeHash(b)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB, "identical trees in different places")
	assert.Len(t, hashA, 16)

	writeFile(t, filepath.Join(a, domain.ManifestFileName), `{"name":"wget"}`, domain.FilePerm)
	withManifest, err := hasher.ComputeTreeHash(a)
	require.NoError(t, err)
	assert.Equal(t, hashA, withManifest, "manifest is excluded")

	require.NoError(t, os.Chmod(filepath.Join(b, "share", "man", "wget.1"), domain.ExecPerm))
	modeChanged, err := hasher.ComputeTreeHash(b)
	require.NoError(t, err)
	assert.NotEqual(t, hashA, modeChanged)

	writeFile(t, filepath.Join(a, "bin", "wget"), "tampered", domain.ExecPerm)
	tampered, err := hasher.ComputeTreeHash(a)
	require.NoError(t, err)
	assert.NotEqual(t, hashA, tampered)
}

func TestSweeper_Sweep(t *testing.T) {
	prefix := t.TempDir()
	cache := t.TempDir()
	old := time.Now().Add(-2 * time.Hour)

	staleDir := filepath.Join(prefix, "gnu.org", "wget", ".tmp-v1.21.4-1")
	freshDir := filepath.Join(prefix, "gnu.org", "wget", ".tmp-v1.21.5-2")
	staleLink := filepath.Join(prefix, "bin", ".tmp-wget-3")
	stalePartial := filepath.Join(cache, "gnu.org", "wget", "1.21.4", "linux-x86-64.tar.gz.partial")
	packaged := filepath.Join(prefix, "gnu.org", "wget", "v1.21.4", "share", "x.partial")
	kept := filepath.Join(cache, "gnu.org", "wget", "1.21.4", "linux-x86-64.tar.gz")

	writeFile(t, filepath.Join(staleDir, "bin", "wget"), "x", domain.ExecPerm)
	writeFile(t, filepath.Join(freshDir, "bin", "wget"), "x", domain.ExecPerm)
	writeFile(t, staleLink, "x", domain.FilePerm)
	writeFile(t, stalePartial, "x", domain.FilePerm)
	writeFile(t, packaged, "x", domain.FilePerm)
	writeFile(t, kept, "x", domain.FilePerm)

	for _, p := range []string{staleDir, staleLink, stalePartial, packaged, kept} {
		require.NoError(t, os.Chtimes(p, old, old))
	}

	removed, err := fs.NewSweeper().Sweep(t.Context(), time.Hour, prefix, cache, filepath.Join(prefix, "missing"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{staleDir, staleLink, stalePartial}, removed)

	assert.NoDirExists(t, staleDir)
	assert.NoFileExists(t, staleLink)
	assert.NoFileExists(t, stalePartial)
	assert.DirExists(t, freshDir)
	assert.FileExists(t, packaged)
	assert.FileExists(t, kept)
}

func TestIsTemporary(t *testing.T) {
	assert.True(t, fs.IsTemporary(".tmp-v1.0.0-42"))
	assert.True(t, fs.IsTemporary("linux-x86-64.tar.xz.partial"))
	assert.False(t, fs.IsTemporary("v1.0.0"))
}
