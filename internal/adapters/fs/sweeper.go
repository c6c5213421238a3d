package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/zerr"
)

// Sweeper removes temporary files and directories left behind by interrupted runs.
type Sweeper struct {
	now func() time.Time
}

// NewSweeper creates a new Sweeper.
func NewSweeper() *Sweeper {
	return &Sweeper{now: time.Now}
}

// IsTemporary reports whether name is a temporary file or directory created by tea.
func IsTemporary(name string) bool {
	return strings.HasPrefix(name, domain.TempPrefix) || strings.HasSuffix(name, domain.PartialSuffix)
}

// Sweep removes temporary entries below each root that were last modified more than olderThan ago.
// Missing roots are ignored. It returns the removed paths.
func (s *Sweeper) Sweep(ctx context.Context, olderThan time.Duration, roots ...string) ([]string, error) {
	cutoff := s.now().Add(-olderThan)
	var removed []string

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if path == root {
				return nil
			}
			if !IsTemporary(d.Name()) {
				if d.IsDir() && (d.Name() == ".git" || isVersionDir(d.Name())) {
					return filepath.SkipDir
				}
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.ModTime().After(cutoff) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if err := os.RemoveAll(path); err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", path)
			}
			removed = append(removed, path)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		})
		if err != nil {
			return removed, err
		}
	}

	return removed, nil
}

// isVersionDir reports whether name is a hydrated cellar entry or one of its aliases.
// Their contents belong to the package and are never swept.
func isVersionDir(name string) bool {
	if name == domain.LatestAliasName {
		return true
	}
	return len(name) > 1 && name[0] == 'v' && name[1] >= '0' && name[1] <= '9'
}
