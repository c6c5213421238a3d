package domain

import (
	"path/filepath"
	"strconv"

	"go.trai.ch/tea/internal/core/semver"
)

const (
	// TeaDirName is the directory under the prefix holding tea's own state.
	TeaDirName = "tea.xyz"

	// BinDirName is the name of the shortcut directory under the prefix.
	BinDirName = "bin"

	// VarDirName is the name of the variable data directory.
	VarDirName = "var"

	// PantryDirName is the name of the default pantry directory.
	PantryDirName = "pantry"

	// CacheDirName is the name of the default artifact cache directory.
	CacheDirName = "www"

	// EtcDirName is the name of the configuration directory.
	EtcDirName = "etc"

	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = "config.yaml"

	// ManifestFileName is the name of the manifest written into every cellar entry.
	ManifestFileName = ".tea-manifest.json"

	// TempPrefix starts the name of every temporary directory or file tea creates next to its target.
	TempPrefix = ".tmp-"

	// PartialSuffix ends the name of an artifact download in progress.
	PartialSuffix = ".partial"

	// RecipeFileName is the name of a package recipe inside a pantry.
	RecipeFileName = "package.yml"

	// ProjectsDirName is the directory of a pantry holding one directory per package.
	ProjectsDirName = "projects"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// ExecPerm is the permission for extracted executables (rwxr-xr-x).
	ExecPerm = 0o755

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// CellarDir returns the directory holding every installed version of name.
func CellarDir(prefix string, name PackageName) string {
	return filepath.Join(prefix, filepath.FromSlash(name.String()))
}

// VersionDirName returns the directory name of an installed version, e.g. "v1.2.3".
func VersionDirName(v semver.Version) string {
	return "v" + v.String()
}

// MajorAliasName returns the directory name of a major version alias, e.g. "v1".
func MajorAliasName(major int) string {
	return "v" + strconv.Itoa(major)
}

// LatestAliasName is the alias pointing at the linked version of a package.
const LatestAliasName = "v*"

// VersionDir returns the cellar directory of one installed version.
func VersionDir(prefix string, name PackageName, v semver.Version) string {
	return filepath.Join(CellarDir(prefix, name), VersionDirName(v))
}

// BinDir returns the shortcut directory of prefix.
func BinDir(prefix string) string {
	return filepath.Join(prefix, BinDirName)
}

// DefaultPantryPath returns the default pantry location under prefix.
func DefaultPantryPath(prefix string) string {
	return filepath.Join(prefix, TeaDirName, VarDirName, PantryDirName)
}

// DefaultCachePath returns the default artifact cache location under prefix.
func DefaultCachePath(prefix string) string {
	return filepath.Join(prefix, TeaDirName, VarDirName, CacheDirName)
}

// ConfigFilePath returns the location of the optional configuration file under prefix.
func ConfigFilePath(prefix string) string {
	return filepath.Join(prefix, TeaDirName, EtcDirName, ConfigFileName)
}
