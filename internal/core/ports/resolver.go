package ports

import "go.trai.ch/tea/internal/core/domain"

// Resolver turns requirements into a plan.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type Resolver interface {
	// Resolve selects one version per package. Failures are *domain.ResolutionError.
	Resolve(reqs []domain.Requirement, pantry domain.PantryIndex, installed domain.InstalledSet) (*domain.Plan, error)
}
