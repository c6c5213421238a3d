package pantry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tea/internal/adapters/config"
	"go.trai.ch/tea/internal/adapters/host"
	"go.trai.ch/tea/internal/adapters/logger"
	"go.trai.ch/tea/internal/adapters/shell"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
)

const (
	// LoaderNodeID is the unique identifier for the pantry loader Graft node.
	LoaderNodeID graft.ID = "adapter.pantry.loader"
	// SyncerNodeID is the unique identifier for the pantry syncer Graft node.
	SyncerNodeID graft.ID = "adapter.pantry.syncer"
)

func init() {
	graft.Register(graft.Node[ports.PantryLoader]{
		ID:        LoaderNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.PantryLoader, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(cfg.Pantries()), nil
		},
	})

	graft.Register(graft.Node[ports.PantrySyncer]{
		ID:        SyncerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, host.ToolsNodeID, shell.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.PantrySyncer, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			tools, err := graft.Dep[ports.ToolLocator](ctx)
			if err != nil {
				return nil, err
			}
			runner, err := graft.Dep[*shell.Runner](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewSyncer(cfg.Pantries()[0], cfg.PantryURL, tools, runner, log), nil
		},
	})
}
