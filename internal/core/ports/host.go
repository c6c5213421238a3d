package ports

import "go.trai.ch/tea/internal/core/domain"

//go:generate go run go.uber.org/mock/mockgen -source=host.go -destination=mocks/mock_host.go -package=mocks

// HostDetector describes the machine tea runs on.
type HostDetector interface {
	Detect() domain.Host
}

// ToolLocator finds executables tea may run on the user's behalf.
type ToolLocator interface {
	// ResolveTrustedTool returns the path of a trusted executable for name.
	ResolveTrustedTool(name string) (string, bool)
}
