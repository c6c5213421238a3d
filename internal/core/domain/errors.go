package domain

import "go.trai.ch/zerr"

// Kind sentinels. Every typed pipeline error unwraps to exactly one of these.
var (
	// ErrResolution classifies failures of the resolver.
	ErrResolution = zerr.New("resolution failed")

	// ErrFetch classifies failures to obtain a verified artifact.
	ErrFetch = zerr.New("fetch failed")

	// ErrHydrate classifies failures to unpack an artifact into the cellar.
	ErrHydrate = zerr.New("hydrate failed")

	// ErrLink classifies failures to project an installation into the shared prefix.
	ErrLink = zerr.New("link failed")

	// ErrInstall classifies an install run that did not complete every planned node.
	ErrInstall = zerr.New("install failed")
)

var (
	// ErrUnknownPackage is returned when a requirement names a package the pantry does not know.
	ErrUnknownPackage = zerr.New("unknown package")

	// ErrUnsatisfiableRange is returned when no pantry version satisfies the accepted range.
	ErrUnsatisfiableRange = zerr.New("no version satisfies the requested range")

	// ErrConflictingConstraints is returned when requirements on the same package have an empty intersection.
	ErrConflictingConstraints = zerr.New("conflicting version constraints")

	// ErrCycleDetected is returned when the selected dependency graph contains a cycle.
	ErrCycleDetected = zerr.New("dependency cycle detected")

	// ErrResolutionDiverged is returned when constraint propagation does not reach a fixpoint.
	ErrResolutionDiverged = zerr.New("resolution did not converge")

	// ErrInvalidRequirement is returned when a requirement string cannot be parsed.
	ErrInvalidRequirement = zerr.New("invalid requirement, expected name[@range]")

	// ErrNoRequirements is returned when an operation is invoked without any requirement.
	ErrNoRequirements = zerr.New("no requirements specified")

	// ErrDuplicateNode is returned when a plan receives the same package twice.
	ErrDuplicateNode = zerr.New("package already present in plan")

	// ErrMissingDependency is returned when a plan node references a package absent from the plan.
	ErrMissingDependency = zerr.New("missing dependency")
)

var (
	// ErrPantryNotFound is returned when none of the configured pantry paths exist.
	ErrPantryNotFound = zerr.New("no pantry found")

	// ErrPantryReadFailed is returned when a pantry file cannot be read.
	ErrPantryReadFailed = zerr.New("failed to read pantry")

	// ErrPantryParseFailed is returned when a package recipe cannot be parsed.
	ErrPantryParseFailed = zerr.New("failed to parse package recipe")

	// ErrPantrySyncFailed is returned when updating the pantry from its remote fails.
	ErrPantrySyncFailed = zerr.New("failed to sync pantry")
)

var (
	// ErrDownloadFailed is returned when an artifact could not be downloaded after all retries.
	ErrDownloadFailed = zerr.New("failed to download artifact")

	// ErrDownloadStatus is returned when the artifact server answers with an unexpected status.
	ErrDownloadStatus = zerr.New("unexpected response from artifact server")

	// ErrArtifactNotFound is returned when the artifact server has no such artifact.
	ErrArtifactNotFound = zerr.New("artifact not found")

	// ErrChecksumMismatch is returned when an artifact does not match its declared checksum.
	ErrChecksumMismatch = zerr.New("checksum mismatch")

	// ErrChecksumUndeclared is returned when the pantry declares no checksum for the requested artifact.
	ErrChecksumUndeclared = zerr.New("no checksum declared for artifact")

	// ErrCacheCreateFailed is returned when the artifact cache directory cannot be created.
	ErrCacheCreateFailed = zerr.New("failed to create artifact cache directory")

	// ErrCacheReadFailed is returned when a cached artifact cannot be read.
	ErrCacheReadFailed = zerr.New("failed to read cached artifact")

	// ErrCacheWriteFailed is returned when an artifact cannot be written into the cache.
	ErrCacheWriteFailed = zerr.New("failed to write artifact to cache")
)

var (
	// ErrUnsupportedCompression is returned for an unknown compression format.
	ErrUnsupportedCompression = zerr.New("unsupported compression, expected 'xz' or 'gz'")

	// ErrArchiveCorrupt is returned when an artifact archive cannot be decoded.
	ErrArchiveCorrupt = zerr.New("corrupt archive")

	// ErrArchiveUnsafePath is returned when an archive entry escapes its destination.
	ErrArchiveUnsafePath = zerr.New("archive entry escapes destination")

	// ErrArchiveTooLarge is returned when an archive entry exceeds the extraction limit.
	ErrArchiveTooLarge = zerr.New("archive entry exceeds size limit")

	// ErrCellarWriteFailed is returned when the cellar cannot be written.
	ErrCellarWriteFailed = zerr.New("failed to write cellar entry")

	// ErrCellarReadFailed is returned when the cellar cannot be read.
	ErrCellarReadFailed = zerr.New("failed to read cellar")

	// ErrCellarEntryConflict is returned when a version directory already holds a different artifact.
	ErrCellarEntryConflict = zerr.New("cellar entry exists with a different checksum")

	// ErrManifestReadFailed is returned when a cellar manifest cannot be read or decoded.
	ErrManifestReadFailed = zerr.New("failed to read cellar manifest")

	// ErrManifestWriteFailed is returned when a cellar manifest cannot be written.
	ErrManifestWriteFailed = zerr.New("failed to write cellar manifest")
)

var (
	// ErrLinkConflict is returned when a shortcut path is occupied by something tea does not manage.
	ErrLinkConflict = zerr.New("shortcut path is not managed by tea")

	// ErrLinkFailed is returned when a shortcut cannot be created or replaced.
	ErrLinkFailed = zerr.New("failed to create shortcut")

	// ErrNotInstalled is returned when linking a package version that is not in the cellar.
	ErrNotInstalled = zerr.New("package version is not installed")
)

var (
	// ErrInstallAborted is recorded for planned nodes that were not attempted after another node failed.
	ErrInstallAborted = zerr.New("install aborted before this node ran")

	// ErrConfigReadFailed is returned when the configuration file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigInvalid is returned when a configuration value is invalid.
	ErrConfigInvalid = zerr.New("invalid configuration value")

	// ErrHomeDirUnavailable is returned when no prefix is configured and the home directory is unknown.
	ErrHomeDirUnavailable = zerr.New("cannot determine home directory for default prefix")

	// ErrToolNotFound is returned when no trusted executable can be located for a tool.
	ErrToolNotFound = zerr.New("trusted tool not found")

	// ErrCleanFailed is returned when removing a cache or temporary path fails.
	ErrCleanFailed = zerr.New("failed to clean path")

	// ErrNoCommand is returned when tea run is given no command to execute.
	ErrNoCommand = zerr.New("no command specified")
)
