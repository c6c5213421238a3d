package ports

import (
	"context"

	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/semver"
)

// Inventory reports what is already hydrated in the cellar.
//
//go:generate go run go.uber.org/mock/mockgen -source=inventory.go -destination=mocks/mock_inventory.go -package=mocks
type Inventory interface {
	// Installed returns every hydrated package version.
	Installed(ctx context.Context) ([]domain.CellarEntry, error)
	// Lookup returns the entry of an exact version. ok is false when it is not installed.
	Lookup(ctx context.Context, name domain.PackageName, v semver.Version) (entry domain.CellarEntry, ok bool, err error)
}
