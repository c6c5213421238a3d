package ports

import (
	"context"

	"go.trai.ch/tea/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks

// CommandRunner runs an external program to completion.
type CommandRunner interface {
	// Run executes argv in dir. env entries are prepended to the inherited variables of the same name.
	Run(ctx context.Context, dir string, argv []string, env domain.Env) error
}
