package domain

import (
	"strings"

	"go.trai.ch/tea/internal/core/semver"
	"go.trai.ch/zerr"
)

// Compression is the archive format of a bottle.
type Compression string

const (
	// CompressionGzip is a gzip-compressed tarball.
	CompressionGzip Compression = "gz"
	// CompressionXZ is an xz-compressed tarball.
	CompressionXZ Compression = "xz"
)

// ParseCompression converts a configuration value into a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gz", "gzip":
		return CompressionGzip, nil
	case "xz":
		return CompressionXZ, nil
	default:
		return "", zerr.With(ErrUnsupportedCompression, "compression", s)
	}
}

// Ext returns the file extension of the tarball, e.g. "tar.gz".
func (c Compression) Ext() string {
	return "tar." + string(c)
}

// ArtifactRequest names the exact bottle a node needs.
type ArtifactRequest struct {
	Name        PackageName
	Version     semver.Version
	Host        Host
	Compression Compression
	// Checksum is the hex sha256 digest the pantry declares for this variant.
	Checksum string
}

// ID returns the node the artifact belongs to.
func (r ArtifactRequest) ID() NodeID {
	return NodeID{Name: r.Name, Version: r.Version}
}

// Key identifies the cache slot of the request.
func (r ArtifactRequest) Key() string {
	return r.Name.String() + "/" + r.Version.String() + "/" + r.Host.CacheTag() + "." + r.Compression.Ext()
}

// Artifact is a verified bottle in the local cache.
type Artifact struct {
	Path        string
	Checksum    string
	Compression Compression
	// Cached reports whether the artifact was already in the cache.
	Cached bool
}

// Host describes the machine artifacts are installed for.
type Host struct {
	// OS is one of "darwin", "linux" or "windows".
	OS string
	// Arch is one of "x86-64" or "aarch64".
	Arch string
}

// Platform returns the pantry platform tag, e.g. "linux/x86-64".
func (h Host) Platform() string {
	return h.OS + "/" + h.Arch
}

// CacheTag returns the platform tag used in file names, e.g. "linux-x86-64".
func (h Host) CacheTag() string {
	return h.OS + "-" + h.Arch
}
