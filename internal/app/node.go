package app

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/tea/internal/adapters/cellar"             //nolint:depguard // Wired in app layer
	"go.trai.ch/tea/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/tea/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/tea/internal/adapters/host"               //nolint:depguard // Wired in app layer
	"go.trai.ch/tea/internal/adapters/linker"             //nolint:depguard // Wired in app layer
	"go.trai.ch/tea/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/tea/internal/adapters/pantry"             //nolint:depguard // Wired in app layer
	"go.trai.ch/tea/internal/adapters/shell"              //nolint:depguard // Wired in app layer
	"go.trai.ch/tea/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/tea/internal/core/domain"
	"go.trai.ch/tea/internal/core/ports"
	"go.trai.ch/tea/internal/engine/installer"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			installer.NodeID,
			cellar.NodeID,
			linker.NodeID,
			pantry.SyncerNodeID,
			shell.NodeID,
			fs.SweeperNodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			config.NodeID,
			host.DetectorNodeID,
			logger.NodeID,
			progrock.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	cfg, err := graft.Dep[domain.Config](ctx)
	if err != nil {
		return nil, err
	}

	inst, err := graft.Dep[*installer.Installer](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[*cellar.Store](ctx)
	if err != nil {
		return nil, err
	}

	lnk, err := graft.Dep[ports.Linker](ctx)
	if err != nil {
		return nil, err
	}

	syncer, err := graft.Dep[ports.PantrySyncer](ctx)
	if err != nil {
		return nil, err
	}

	runner, err := graft.Dep[*shell.Runner](ctx)
	if err != nil {
		return nil, err
	}

	sweeper, err := graft.Dep[*fs.Sweeper](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	// tea run hands the terminal to the child process.
	interactive := runner.WithStdio(os.Stdin, os.Stdout, os.Stderr)

	return New(cfg, inst, store, store, lnk, syncer, interactive, sweeper, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := graft.Dep[domain.Config](ctx)
	if err != nil {
		return nil, err
	}

	detector, err := graft.Dep[*host.Detector](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	rec, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	if l, ok := log.(*logger.Logger); ok && cfg.CI && !detector.Interactive(os.Stderr) {
		l.SetJSON(true)
	}

	return &Components{
		App:       a,
		Logger:    log,
		Telemetry: rec,
	}, nil
}
