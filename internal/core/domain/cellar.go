package domain

import (
	"maps"
	"path/filepath"
	"slices"
	"time"

	"go.trai.ch/tea/internal/core/semver"
)

// Manifest is written into every cellar entry when it is hydrated and never changes afterwards.
type Manifest struct {
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Checksum    string      `json:"checksum"`
	Compression Compression `json:"compression,omitzero"`
	// TreeDigest is an xxhash digest over the extracted files.
	TreeDigest  string    `json:"tree_digest,omitzero"`
	InstallID   string    `json:"install_id,omitzero"`
	InstalledAt time.Time `json:"installed_at,omitzero"`
}

// CellarEntry is one hydrated package version.
type CellarEntry struct {
	Name    PackageName
	Version semver.Version
	// Path is the version directory, <prefix>/<name>/v<version>.
	Path     string
	Manifest Manifest
}

// ID returns the identity of the entry.
func (e CellarEntry) ID() NodeID {
	return NodeID{Name: e.Name, Version: e.Version}
}

func (e CellarEntry) String() string {
	return e.ID().String()
}

// BinPath returns the directory holding the entry's executables.
func (e CellarEntry) BinPath() string {
	return filepath.Join(e.Path, BinDirName)
}

// InstalledSet is a snapshot of the versions present in the cellar.
type InstalledSet struct {
	versions map[PackageName][]semver.Version
}

// NewInstalledSet builds a set from cellar entries.
func NewInstalledSet(entries ...CellarEntry) InstalledSet {
	s := InstalledSet{versions: make(map[PackageName][]semver.Version)}
	for _, e := range entries {
		if !slices.ContainsFunc(s.versions[e.Name], e.Version.Equal) {
			s.versions[e.Name] = append(s.versions[e.Name], e.Version)
		}
	}
	for name := range s.versions {
		semver.Sort(s.versions[name])
	}
	return s
}

// Versions returns the installed versions of name, ascending.
func (s InstalledSet) Versions(name PackageName) []semver.Version {
	return slices.Clone(s.versions[name])
}

// Has reports whether the exact version of name is installed.
func (s InstalledSet) Has(name PackageName, v semver.Version) bool {
	return slices.ContainsFunc(s.versions[name], v.Equal)
}

// Names returns the installed packages, sorted.
func (s InstalledSet) Names() []PackageName {
	return slices.SortedFunc(maps.Keys(s.versions), PackageName.Compare)
}

// Len returns the number of installed package versions.
func (s InstalledSet) Len() int {
	n := 0
	for _, vs := range s.versions {
		n += len(vs)
	}
	return n
}
