package host

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tea/internal/adapters/config"
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
)

const (
	// DetectorNodeID is the unique identifier for the host detector Graft node.
	DetectorNodeID graft.ID = "adapter.host"
	// ToolsNodeID is the unique identifier for the trusted tool locator Graft node.
	ToolsNodeID graft.ID = "adapter.tools"
)

func init() {
	graft.Register(graft.Node[*Detector]{
		ID:        DetectorNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (*Detector, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return NewDetector(cfg.CI), nil
		},
	})

	graft.Register(graft.Node[ports.ToolLocator]{
		ID:        ToolsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.ToolLocator, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return NewToolLocator(cfg.Prefix), nil
		},
	})
}
