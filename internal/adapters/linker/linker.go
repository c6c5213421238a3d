// Package linker projects cellar entries into the prefix's shortcut directory.
package linker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/semver"
	"go.trai.ch/zerr"
)

// Linker implements ports.Linker with relative symlinks.
type Linker struct {
	prefix string
	locks  sync.Map // shortcut path -> *sync.Mutex
}

// New creates a Linker for prefix.
func New(prefix string) *Linker {
	return &Linker{prefix: filepath.Clean(prefix)}
}

// Link creates or atomically replaces the shortcuts of every entry, in order, so later entries win.
// It also points the entry's v<major> and v* aliases at it. Linking stops at the first failure;
// the shortcuts created until then are reported.
func (l *Linker) Link(ctx context.Context, entries []domain.CellarEntry) (domain.LinkResult, error) {
	var result domain.LinkResult
	bin := domain.BinDir(l.prefix)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := os.Stat(entry.Path); err != nil {
			return result, &domain.LinkError{Shortcut: entry.String(), Path: entry.Path, Err: zerr.Wrap(err, domain.ErrNotInstalled.Error())}
		}

		shortcuts, err := executables(entry.BinPath())
		if err != nil {
			return result, &domain.LinkError{Shortcut: entry.String(), Path: entry.BinPath(), Err: err}
		}
		if len(shortcuts) > 0 {
			if err := os.MkdirAll(bin, domain.DirPerm); err != nil {
				return result, &domain.LinkError{Shortcut: entry.String(), Path: bin, Err: zerr.Wrap(err, domain.ErrLinkFailed.Error())}
			}
		}

		for _, name := range shortcuts {
			link := domain.LinkEntry{
				Shortcut: name,
				Path:     filepath.Join(bin, name),
				Target:   filepath.Join(entry.BinPath(), name),
				Entry:    entry.ID(),
			}
			shadowed, err := l.place(link)
			if err != nil {
				return result, err
			}
			result.Linked = append(result.Linked, link)
			if shadowed != nil {
				result.Shadowed = append(result.Shadowed, *shadowed)
			}
		}

		if err := l.alias(entry); err != nil {
			return result, err
		}
	}

	return result, nil
}

// place points link.Path at link.Target and returns the shortcut it displaced, if any.
func (l *Linker) place(link domain.LinkEntry) (*domain.LinkEntry, error) {
	mu := l.lock(link.Path)
	mu.Lock()
	defer mu.Unlock()

	var shadowed *domain.LinkEntry
	previous, managed, err := l.current(link.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, &domain.LinkError{Shortcut: link.Shortcut, Path: link.Path, Err: err}
	case !managed:
		return nil, &domain.LinkError{Shortcut: link.Shortcut, Path: link.Path, Err: domain.ErrLinkConflict}
	case previous != link.Target:
		shadowed = &domain.LinkEntry{Shortcut: link.Shortcut, Path: link.Path, Target: previous}
		if id, ok := l.owner(previous); ok {
			shadowed.Entry = id
		}
	default:
		return nil, nil
	}

	if err := replaceSymlink(link.Path, link.Target); err != nil {
		return nil, &domain.LinkError{Shortcut: link.Shortcut, Path: link.Path, Err: err}
	}
	return shadowed, nil
}

// alias points <name>/v<major> and <name>/v* at the entry's version directory.
func (l *Linker) alias(entry domain.CellarEntry) error {
	dir := filepath.Dir(entry.Path)
	for _, alias := range []string{domain.MajorAliasName(entry.Version.Major), domain.LatestAliasName} {
		path := filepath.Join(dir, alias)
		if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink == 0 {
			return &domain.LinkError{Shortcut: alias, Path: path, Err: domain.ErrLinkConflict}
		}

		mu := l.lock(path)
		mu.Lock()
		err := replaceSymlink(path, entry.Path)
		mu.Unlock()
		if err != nil {
			return &domain.LinkError{Shortcut: alias, Path: path, Err: err}
		}
	}
	return nil
}

// Unlink removes every shortcut pointing into name's cellar directory.
func (l *Linker) Unlink(ctx context.Context, name domain.PackageName) ([]domain.LinkEntry, error) {
	bin := domain.BinDir(l.prefix)
	dirEntries, err := os.ReadDir(bin)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLinkFailed.Error()), "path", bin)
	}

	cellar := domain.CellarDir(l.prefix, name) + string(filepath.Separator)
	var removed []domain.LinkEntry
	for _, d := range dirEntries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if d.Type()&os.ModeSymlink == 0 || strings.HasPrefix(d.Name(), domain.TempPrefix) {
			continue
		}

		path := filepath.Join(bin, d.Name())
		target, managed, err := l.current(path)
		if err != nil || !managed || !strings.HasPrefix(target, cellar) {
			continue
		}
		id, ok := l.owner(target)
		if !ok || id.Name != name {
			continue
		}

		mu := l.lock(path)
		mu.Lock()
		err = os.Remove(path)
		mu.Unlock()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, &domain.LinkError{Shortcut: d.Name(), Path: path, Err: zerr.Wrap(err, domain.ErrLinkFailed.Error())}
		}
		removed = append(removed, domain.LinkEntry{Shortcut: d.Name(), Path: path, Target: target, Entry: id})
	}
	return removed, nil
}

func (l *Linker) lock(path string) *sync.Mutex {
	mu, _ := l.locks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex) //nolint:forcetypeassert // Only mutexes are stored
}

// current returns the absolute target of the symlink at path and whether tea manages it,
// that is whether it points into the prefix.
func (l *Linker) current(path string) (string, bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", false, err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return "", false, nil
	}

	target, err := os.Readlink(path)
	if err != nil {
		return "", false, zerr.With(zerr.Wrap(err, domain.ErrLinkFailed.Error()), "path", path)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	target = filepath.Clean(target)
	return target, strings.HasPrefix(target, l.prefix+string(filepath.Separator)), nil
}

// owner derives the cellar entry a shortcut target belongs to: <prefix>/<name>/v<version>/bin/<x>.
func (l *Linker) owner(target string) (domain.NodeID, bool) {
	rel, err := filepath.Rel(l.prefix, target)
	if err != nil {
		return domain.NodeID{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i := len(parts) - 1; i > 0; i-- {
		version, ok := strings.CutPrefix(parts[i], "v")
		if !ok {
			continue
		}
		v, err := semver.Parse(version)
		if err != nil {
			continue
		}
		return domain.NodeID{Name: domain.NewPackageName(strings.Join(parts[:i], "/")), Version: v}, true
	}
	return domain.NodeID{}, false
}

// executables lists the names of the executables directly inside dir.
func executables(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLinkFailed.Error()), "path", dir)
	}

	var names []string
	for _, d := range dirEntries {
		if strings.HasPrefix(d.Name(), ".") {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, d.Name()))
		if err != nil || info.IsDir() || info.Mode()&0o111 == 0 {
			continue
		}
		names = append(names, d.Name())
	}
	slices.Sort(names)
	return names, nil
}

// replaceSymlink points path at target through a temporary sibling and a rename,
// so path never stops resolving.
func replaceSymlink(path, target string) error {
	rel, err := filepath.Rel(filepath.Dir(path), target)
	if err != nil {
		rel = target
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), domain.TempPrefix+filepath.Base(path)+"-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLinkFailed.Error()), "path", path)
	}
	tmp := tmpFile.Name()
	_ = tmpFile.Close()
	_ = os.Remove(tmp)

	if err := os.Symlink(rel, tmp); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLinkFailed.Error()), "path", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(zerr.Wrap(err, domain.ErrLinkFailed.Error()), "path", path)
	}
	return nil
}
