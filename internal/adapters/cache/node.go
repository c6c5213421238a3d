package cache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tea/internal/adapters/config"
	"go.trai.ch/tea/internal/adapters/download"
	"go.trai.ch/tea/internal/adapters/logger"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
)

// NodeID is the unique identifier for the artifact cache Graft node.
const NodeID graft.ID = "adapter.artifact_cache"

func init() {
	graft.Register(graft.Node[ports.ArtifactCache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, download.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.ArtifactCache, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			downloader, err := graft.Dep[ports.Downloader](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(cfg.CacheDir, downloader, log), nil
		},
	})
}
