// Package host describes the machine tea runs on and locates the tools it may execute.
package host

import (
	"os"
	"runtime"

	"golang.org/x/term"
	"go.trai.ch/tea/internal/core/domain"
)

// archNames maps Go architecture names to the tags used by the pantry and the artifact server.
var archNames = map[string]string{
	"amd64": "x86-64",
	"arm64": "aarch64",
}

// Detector implements ports.HostDetector from the running binary's platform.
type Detector struct {
	goos   string
	goarch string
	ci     bool
}

// NewDetector creates a Detector for the running process. ci is the configured CI flag.
func NewDetector(ci bool) *Detector {
	return &Detector{goos: runtime.GOOS, goarch: runtime.GOARCH, ci: ci}
}

// Detect returns the host platform.
func (d *Detector) Detect() domain.Host {
	arch, ok := archNames[d.goarch]
	if !ok {
		arch = d.goarch
	}
	return domain.Host{OS: d.goos, Arch: arch}
}

// Interactive reports whether output goes to a terminal a person is watching.
func (d *Detector) Interactive(f *os.File) bool {
	if d.ci || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
