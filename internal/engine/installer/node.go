package installer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tea/internal/adapters/cache"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/tea/internal/adapters/cellar"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/tea/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/tea/internal/adapters/host"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/tea/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/tea/internal/adapters/pantry"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/tea/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
	"go.trai.ch/tea/internal/engine/resolver"
)

// NodeID is the unique identifier for the installer Graft node.
const NodeID graft.ID = "engine.installer"

func init() {
	graft.Register(graft.Node[*Installer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			host.DetectorNodeID,
			pantry.LoaderNodeID,
			cellar.NodeID,
			resolver.NodeID,
			cache.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Installer, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}

			detector, err := graft.Dep[*host.Detector](ctx)
			if err != nil {
				return nil, err
			}

			loader, err := graft.Dep[ports.PantryLoader](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[*cellar.Store](ctx)
			if err != nil {
				return nil, err
			}

			res, err := graft.Dep[ports.Resolver](ctx)
			if err != nil {
				return nil, err
			}

			artifacts, err := graft.Dep[ports.ArtifactCache](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, store, res, artifacts, store, tracer, log, Settings{
				Host:        detector.Detect(),
				Compression: cfg.Compression,
				Concurrency: cfg.Concurrency,
			}), nil
		},
	})
}
