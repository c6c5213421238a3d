package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tea/internal/adapters/logger"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
)

// NodeID is the unique identifier for the configuration Graft node.
const NodeID graft.ID = "adapter.config"

func init() {
	graft.Register(graft.Node[domain.Config]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (domain.Config, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return domain.Config{}, err
			}

			var loader ports.ConfigLoader = NewLoader(log)
			return loader.Load()
		},
	})
}
