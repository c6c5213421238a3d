package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/zerr"
)

// Hasher computes content digests of files and directory trees.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// ComputeTreeHash digests every file below root: its path relative to root, its executable bit
// and its content. Symlinks contribute their target instead of content. The manifest file is
// excluded so the digest can be stored inside the tree it describes.
func (h *Hasher) ComputeTreeHash(root string) (string, error) {
	hasher := xxhash.New()

	for path, err := range h.walker.WalkFiles(root, []string{domain.ManifestFileName}) {
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to walk tree"), "path", root)
		}
		if err := h.hashEntry(root, path, hasher); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func (h *Hasher) hashEntry(root, path string, mainHasher io.Writer) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to relativize path"), "path", path)
	}
	_, _ = mainHasher.Write([]byte(filepath.ToSlash(rel)))
	_, _ = mainHasher.Write([]byte{0})

	info, err := os.Lstat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read symlink"), "path", path)
		}
		_, _ = mainHasher.Write([]byte{'l'})
		_, _ = mainHasher.Write([]byte(target))
		_, _ = mainHasher.Write([]byte{0})
		return nil
	case info.Mode()&0o111 != 0:
		_, _ = mainHasher.Write([]byte{'x'})
	default:
		_, _ = mainHasher.Write([]byte{'f'})
	}

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}
	if err := binary.Write(mainHasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}
