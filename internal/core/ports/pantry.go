package ports

import (
	"context"

	"go.trai.ch/tea/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=pantry.go -destination=mocks/mock_pantry.go -package=mocks

// PantryLoader reads the recipe repository.
type PantryLoader interface {
	// Load returns an immutable snapshot of every configured pantry.
	Load(ctx context.Context) (*domain.PantrySnapshot, error)
}

// PantrySyncer updates the local pantry from its remote.
type PantrySyncer interface {
	Sync(ctx context.Context) error
}
