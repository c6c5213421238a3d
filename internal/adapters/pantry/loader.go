// Package pantry loads package recipes from local pantry checkouts and keeps them up to date.
package pantry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/semver"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// recipe is the on-disk shape of projects/<name>/package.yml.
type recipe struct {
	Provides []string        `yaml:"provides"`
	Versions []recipeVersion `yaml:"versions"`
}

type recipeVersion struct {
	Version string `yaml:"version"`
	// Dependencies is a mapping node so recipe order survives decoding.
	Dependencies yaml.Node         `yaml:"dependencies"`
	Checksums    map[string]string `yaml:"checksums"`
}

// Loader implements ports.PantryLoader over a list of pantry directories.
type Loader struct {
	paths []string
}

// NewLoader creates a Loader. Earlier paths take precedence when several declare the same package.
func NewLoader(paths []string) *Loader {
	return &Loader{paths: slices.Clone(paths)}
}

type recipeFile struct {
	name string
	path string
}

// Load reads every recipe of every pantry into an immutable snapshot.
func (l *Loader) Load(ctx context.Context) (*domain.PantrySnapshot, error) {
	var files []recipeFile
	found := false
	for _, root := range l.paths {
		projects := filepath.Join(root, domain.ProjectsDirName)
		if _, err := os.Stat(projects); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, zerr.With(zerr.Wrap(err, domain.ErrPantryReadFailed.Error()), "path", projects)
		}
		found = true

		list, err := collectRecipes(ctx, projects)
		if err != nil {
			return nil, err
		}
		files = append(files, list...)
	}
	if !found {
		return nil, zerr.With(domain.ErrPantryNotFound, "paths", strings.Join(l.paths, string(os.PathListSeparator)))
	}

	entries := make([]domain.PantryEntry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry, err := parseRecipe(f)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := domain.NewPantrySnapshot(entries, "")
	return domain.NewPantrySnapshot(entries, digest(snapshot)), nil
}

// collectRecipes lists the recipes below projects in lexical order.
func collectRecipes(ctx context.Context, projects string) ([]recipeFile, error) {
	var files []recipeFile
	err := filepath.WalkDir(projects, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || d.Name() != domain.RecipeFileName {
			return nil
		}

		rel, err := filepath.Rel(projects, filepath.Dir(path))
		if err != nil {
			return err
		}
		files = append(files, recipeFile{name: filepath.ToSlash(rel), path: path})
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPantryReadFailed.Error()), "path", projects)
	}
	return files, nil
}

func parseRecipe(f recipeFile) (domain.PantryEntry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return domain.PantryEntry{}, zerr.With(zerr.Wrap(err, domain.ErrPantryReadFailed.Error()), "file", f.path)
	}

	var r recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return domain.PantryEntry{}, parseError(err, f.path)
	}

	entry := domain.PantryEntry{
		Name:     domain.NewPackageName(f.name),
		Provides: r.Provides,
		Versions: make([]domain.PantryVersion, 0, len(r.Versions)),
	}

	for _, rv := range r.Versions {
		v, err := semver.Parse(rv.Version)
		if err != nil {
			return domain.PantryEntry{}, parseError(err, f.path)
		}
		if slices.ContainsFunc(entry.Versions, func(pv domain.PantryVersion) bool { return pv.Version.Equal(v) }) {
			return domain.PantryEntry{}, zerr.With(zerr.With(domain.ErrPantryParseFailed, "file", f.path), "version", v.String())
		}

		deps, err := parseDependencies(&rv.Dependencies)
		if err != nil {
			return domain.PantryEntry{}, parseError(err, f.path)
		}

		entry.Versions = append(entry.Versions, domain.PantryVersion{
			Version:      v,
			Dependencies: deps,
			Checksums:    rv.Checksums,
		})
	}

	return entry, nil
}

func parseDependencies(node *yaml.Node) ([]domain.Requirement, error) {
	if node.Kind == 0 || node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: dependencies must be a mapping", node.Line)
	}

	deps := make([]domain.Requirement, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		req, err := domain.NewRequirement(key.Value, value.Value)
		if err != nil {
			return nil, zerr.With(err, "line", key.Line)
		}
		deps = append(deps, req)
	}
	return deps, nil
}

func parseError(err error, path string) error {
	return zerr.With(zerr.Wrap(err, domain.ErrPantryParseFailed.Error()), "file", path)
}

// digest hashes the canonical content of s: names, versions, dependencies and checksums in a fixed order.
func digest(s *domain.PantrySnapshot) string {
	hasher := xxhash.New()
	sep := func() { _, _ = hasher.Write([]byte{0}) }

	for _, name := range s.Names() {
		entry, _ := s.Entry(name)
		_, _ = hasher.WriteString(name.String())
		sep()
		for _, p := range entry.Provides {
			_, _ = hasher.WriteString(p)
			sep()
		}
		for _, v := range entry.Versions {
			_, _ = hasher.WriteString(v.Version.String())
			sep()
			for _, d := range v.Dependencies {
				_, _ = hasher.WriteString(d.Name.String() + " " + d.Range.String())
				sep()
			}
			keys := make([]string, 0, len(v.Checksums))
			for k := range v.Checksums {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				_, _ = hasher.WriteString(k + "=" + v.Checksums[k])
				sep()
			}
		}
		sep()
	}

	return fmt.Sprintf("%016x", hasher.Sum64())
}
