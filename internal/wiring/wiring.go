// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/tea/internal/adapters/cache"
	_ "go.trai.ch/tea/internal/adapters/cellar"
	_ "go.trai.ch/tea/internal/adapters/config"
	_ "go.trai.ch/tea/internal/adapters/download"
	_ "go.trai.ch/tea/internal/adapters/fs"
	_ "go.trai.ch/tea/internal/adapters/host"
	_ "go.trai.ch/tea/internal/adapters/linker"
	_ "go.trai.ch/tea/internal/adapters/logger"
	_ "go.trai.ch/tea/internal/adapters/pantry"
	_ "go.trai.ch/tea/internal/adapters/shell"
	_ "go.trai.ch/tea/internal/adapters/telemetry"
	_ "go.trai.ch/tea/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.trai.ch/tea/internal/app"
	_ "go.trai.ch/tea/internal/engine/installer"
	_ "go.trai.ch/tea/internal/engine/resolver"
)
