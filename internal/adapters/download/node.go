package download

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tea/internal/adapters/config"
	"go.trai.ch/tea/internal/adapters/logger"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
)

// NodeID is the unique identifier for the downloader Graft node.
const NodeID graft.ID = "adapter.download"

func init() {
	graft.Register(graft.Node[ports.Downloader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Downloader, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewClient(cfg.DistURL, log, WithToken(cfg.Token)), nil
		},
	})
}
