package cellar

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tea/internal/adapters/config"
	"go.trai.ch/tea/internal/adapters/fs"
	"go.trai.ch/tea/internal/core/domain"
)

// NodeID is the unique identifier for the cellar Graft node.
const NodeID graft.ID = "adapter.cellar"

func init() {
	graft.Register(graft.Node[*Store]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, fs.HasherNodeID},
		Run: func(ctx context.Context) (*Store, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			hasher, err := graft.Dep[*fs.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(cfg.Prefix, hasher), nil
		},
	})
}
