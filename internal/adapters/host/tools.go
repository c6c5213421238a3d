package host

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"go.trai.ch/tea/internal/core/domain"
)

// gitPackage is the pantry name of git.
const gitPackage = "git-scm.org"

// darwinDevTools are the installations that make /usr/bin/git a real git rather than an installer stub.
var darwinDevTools = []string{
	"/Library/Developer/CommandLineTools/usr/bin/git",
	"/Applications/Xcode.app",
}

// ToolLocator implements ports.ToolLocator.
type ToolLocator struct {
	prefix   string
	goos     string
	path     func() string
	usrBin   string
	devTools []string
}

// NewToolLocator creates a ToolLocator that trusts tools installed under prefix and the system's own.
func NewToolLocator(prefix string) *ToolLocator {
	return &ToolLocator{
		prefix:   prefix,
		goos:     runtime.GOOS,
		path:     func() string { return os.Getenv("PATH") },
		usrBin:   "/usr/bin",
		devTools: darwinDevTools,
	}
}

// ResolveTrustedTool returns the path of a trusted executable for name.
//
// git is taken from the tea-installed git-scm.org first, then from /usr/bin when that directory is
// on PATH. On darwin /usr/bin/git is only trusted once the developer tools are installed. Any other
// tool is the first PATH match outside the prefix's shortcut directory.
func (l *ToolLocator) ResolveTrustedTool(name string) (string, bool) {
	if name == "git" {
		return l.resolveGit()
	}

	bin := domain.BinDir(l.prefix)
	for _, dir := range filepath.SplitList(l.path()) {
		if dir == "" || filepath.Clean(dir) == bin {
			continue
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (l *ToolLocator) resolveGit() (string, bool) {
	own := filepath.Join(domain.CellarDir(l.prefix, domain.NewPackageName(gitPackage)),
		domain.LatestAliasName, domain.BinDirName, "git")
	if isExecutable(own) {
		return own, true
	}

	if !slices.Contains(filepath.SplitList(l.path()), l.usrBin) {
		return "", false
	}
	system := filepath.Join(l.usrBin, "git")
	if !isExecutable(system) {
		return "", false
	}
	if l.goos == "darwin" && !slices.ContainsFunc(l.devTools, exists) {
		return "", false
	}
	return system, true
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Mode()&0o111 != 0
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
