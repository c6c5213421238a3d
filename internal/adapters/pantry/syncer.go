package pantry

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
	"go.trai.ch/zerr"
)

// Syncer implements ports.PantrySyncer with git.
type Syncer struct {
	path   string
	remote string
	tools  ports.ToolLocator
	runner ports.CommandRunner
	logger ports.Logger
}

// NewSyncer creates a Syncer that keeps the pantry at path in step with remote.
func NewSyncer(path, remote string, tools ports.ToolLocator, runner ports.CommandRunner, logger ports.Logger) *Syncer {
	return &Syncer{path: path, remote: remote, tools: tools, runner: runner, logger: logger}
}

// Sync fast-forwards the pantry checkout, cloning it first when it does not exist.
func (s *Syncer) Sync(ctx context.Context) error {
	git, ok := s.tools.ResolveTrustedTool("git")
	if !ok {
		return zerr.With(domain.ErrToolNotFound, "tool", "git")
	}

	var noEnv domain.Env
	_, err := os.Stat(filepath.Join(s.path, ".git"))
	switch {
	case err == nil:
		s.logger.Info("updating pantry at " + s.path)
		err = s.runner.Run(ctx, s.path, []string{git, "pull", "--ff-only", "--quiet"}, noEnv)
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("cloning pantry from " + s.remote)
		parent := filepath.Dir(s.path)
		if mkErr := os.MkdirAll(parent, domain.DirPerm); mkErr != nil {
			return zerr.With(zerr.Wrap(mkErr, domain.ErrPantrySyncFailed.Error()), "path", parent)
		}
		err = s.runner.Run(ctx, parent, []string{git, "clone", "--depth=1", "--quiet", s.remote, s.path}, noEnv)
	}

	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPantrySyncFailed.Error()), "path", s.path)
	}
	return nil
}
