package ports

import (
	"context"

	"go.trai.ch/tea/internal/core/domain"
)

// Linker exposes cellar entries through the shared prefix.
//
//go:generate go run go.uber.org/mock/mockgen -source=linker.go -destination=mocks/mock_linker.go -package=mocks
type Linker interface {
	// Link creates or replaces the shortcuts of entries. Later entries win.
	Link(ctx context.Context, entries []domain.CellarEntry) (domain.LinkResult, error)
	// Unlink removes the shortcuts pointing into name and returns them.
	Unlink(ctx context.Context, name domain.PackageName) ([]domain.LinkEntry, error)
}
