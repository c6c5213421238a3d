// Package cellar unpacks bottles into the prefix and reports what is installed there.
package cellar

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/semver"
	"go.trai.ch/zerr"
)

// TreeHasher digests an extracted directory tree.
type TreeHasher interface {
	ComputeTreeHash(root string) (string, error)
}

// Store implements ports.Hydrator and ports.Inventory on a prefix directory.
type Store struct {
	prefix       string
	hasher       TreeHasher
	maxEntrySize int64
	now          func() time.Time
}

// NewStore creates a Store for the cellar under prefix.
func NewStore(prefix string, hasher TreeHasher) *Store {
	return &Store{
		prefix:       filepath.Clean(prefix),
		hasher:       hasher,
		maxEntrySize: DefaultMaxEntrySize,
		now:          time.Now,
	}
}

// Hydrate unpacks artifact into <prefix>/<name>/v<version>. Hydrating the same artifact twice
// returns the existing entry without touching it. A concurrent hydrator winning the final rename
// with the same artifact is treated the same way.
func (s *Store) Hydrate(ctx context.Context, node domain.ResolvedNode, artifact domain.Artifact) (domain.CellarEntry, error) {
	dir := domain.VersionDir(s.prefix, node.Name, node.Version)
	fail := func(err error) (domain.CellarEntry, error) {
		return domain.CellarEntry{}, &domain.HydrateError{Package: node.Name, Version: node.Version, Path: dir, Err: err}
	}

	if entry, ok, err := s.existing(node, dir, artifact.Checksum); err != nil || ok {
		if err != nil {
			return fail(err)
		}
		return entry, nil
	}

	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, domain.DirPerm); err != nil {
		return fail(zerr.With(zerr.Wrap(err, domain.ErrCellarWriteFailed.Error()), "path", parent))
	}
	tmp, err := os.MkdirTemp(parent, domain.TempPrefix+domain.VersionDirName(node.Version)+"-*")
	if err != nil {
		return fail(zerr.With(zerr.Wrap(err, domain.ErrCellarWriteFailed.Error()), "path", parent))
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(tmp)
		}
	}()

	x := &extractor{
		dest:    tmp,
		strip:   path.Join(node.Name.String(), domain.VersionDirName(node.Version)),
		maxSize: s.maxEntrySize,
	}
	if err := x.extract(ctx, artifact.Path, artifact.Compression); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmp, domain.ExecPerm); err != nil {
		return fail(zerr.With(zerr.Wrap(err, domain.ErrCellarWriteFailed.Error()), "path", tmp))
	}

	digest, err := s.hasher.ComputeTreeHash(tmp)
	if err != nil {
		return fail(err)
	}

	manifest := domain.Manifest{
		Name:        node.Name.String(),
		Version:     node.Version.String(),
		Checksum:    artifact.Checksum,
		Compression: artifact.Compression,
		TreeDigest:  digest,
		InstallID:   uuid.NewString(),
		InstalledAt: s.now().UTC(),
	}
	if err := writeManifest(tmp, manifest); err != nil {
		return fail(err)
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		// Another hydrator may have won the rename.
		if entry, ok, existErr := s.existing(node, dir, artifact.Checksum); existErr == nil && ok {
			return entry, nil
		} else if existErr != nil {
			return fail(existErr)
		}
		return fail(zerr.With(zerr.Wrap(err, domain.ErrCellarWriteFailed.Error()), "path", dir))
	}
	committed = true

	return domain.CellarEntry{Name: node.Name, Version: node.Version, Path: dir, Manifest: manifest}, nil
}

// existing returns the entry at dir when it holds checksum. An entry holding anything else is a conflict.
func (s *Store) existing(node domain.ResolvedNode, dir, checksum string) (domain.CellarEntry, bool, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return domain.CellarEntry{}, false, nil
	}

	manifest, err := readManifest(dir)
	if err != nil {
		return domain.CellarEntry{}, false, zerr.With(zerr.Wrap(err, domain.ErrCellarEntryConflict.Error()), "path", dir)
	}
	if !strings.EqualFold(manifest.Checksum, checksum) {
		return domain.CellarEntry{}, false, zerr.With(zerr.With(zerr.With(domain.ErrCellarEntryConflict,
			"path", dir), "installed", manifest.Checksum), "requested", checksum)
	}
	return domain.CellarEntry{Name: node.Name, Version: node.Version, Path: dir, Manifest: manifest}, true, nil
}

// Installed returns every hydrated package version, sorted by name and version.
func (s *Store) Installed(ctx context.Context) ([]domain.CellarEntry, error) {
	var entries []domain.CellarEntry

	err := filepath.WalkDir(s.prefix, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.prefix && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() || p == s.prefix {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") || (filepath.Dir(p) == s.prefix && (name == domain.BinDirName || name == domain.TeaDirName)) {
			return filepath.SkipDir
		}

		version, ok := strings.CutPrefix(name, "v")
		if !ok {
			return nil
		}
		v, err := semver.Parse(version)
		if err != nil {
			return nil
		}

		manifest, err := readManifest(p)
		if errors.Is(err, fs.ErrNotExist) {
			return filepath.SkipDir
		}
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(s.prefix, filepath.Dir(p))
		if err != nil {
			return err
		}
		entries = append(entries, domain.CellarEntry{
			Name:     domain.NewPackageName(filepath.ToSlash(rel)),
			Version:  v,
			Path:     p,
			Manifest: manifest,
		})
		return filepath.SkipDir
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCellarReadFailed.Error()), "path", s.prefix)
	}

	slices.SortFunc(entries, func(a, b domain.CellarEntry) int {
		if c := a.Name.Compare(b.Name); c != 0 {
			return c
		}
		return a.Version.Compare(b.Version)
	})
	return entries, nil
}

// Lookup returns the entry of an exact version.
func (s *Store) Lookup(_ context.Context, name domain.PackageName, v semver.Version) (domain.CellarEntry, bool, error) {
	dir := domain.VersionDir(s.prefix, name, v)
	manifest, err := readManifest(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.CellarEntry{}, false, nil
	}
	if err != nil {
		return domain.CellarEntry{}, false, err
	}
	return domain.CellarEntry{Name: name, Version: v, Path: dir, Manifest: manifest}, true, nil
}

// Verify recomputes the tree digest of entry and compares it with its manifest.
func (s *Store) Verify(_ context.Context, entry domain.CellarEntry) (bool, error) {
	if entry.Manifest.TreeDigest == "" {
		return false, zerr.With(domain.ErrManifestReadFailed, "path", entry.Path)
	}
	digest, err := s.hasher.ComputeTreeHash(entry.Path)
	if err != nil {
		return false, err
	}
	return digest == entry.Manifest.TreeDigest, nil
}

func readManifest(dir string) (domain.Manifest, error) {
	p := filepath.Join(dir, domain.ManifestFileName)
	data, err := os.ReadFile(p) //nolint:gosec // Path is inside the cellar
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Manifest{}, err
		}
		return domain.Manifest{}, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", p)
	}

	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.Manifest{}, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", p)
	}
	return m, nil
}

func writeManifest(dir string, m domain.Manifest) error {
	p := filepath.Join(dir, domain.ManifestFileName)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}
	if err := os.WriteFile(p, append(data, '\n'), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", p)
	}
	return nil
}
