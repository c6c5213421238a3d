package ports

import "go.trai.ch/tea/internal/core/domain"

// ConfigLoader builds the process configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	Load() (domain.Config, error)
}
