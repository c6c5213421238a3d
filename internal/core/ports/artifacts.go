package ports

import (
	"context"
	"io"

	"go.trai.ch/tea/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=artifacts.go -destination=mocks/mock_artifacts.go -package=mocks

// ArtifactCache returns verified bottles, downloading them when needed.
type ArtifactCache interface {
	// Obtain returns the verified artifact for req. Failures are *domain.FetchError.
	Obtain(ctx context.Context, req domain.ArtifactRequest) (domain.Artifact, error)
}

// Downloader transfers bottles from the artifact server.
type Downloader interface {
	// URL returns the location of the bottle for req.
	URL(req domain.ArtifactRequest) string
	// Download streams the resource at url into w.
	Download(ctx context.Context, url string, w io.Writer) error
}

// Hydrator unpacks verified bottles into the cellar.
type Hydrator interface {
	// Hydrate installs artifact as node. Failures are *domain.HydrateError.
	Hydrate(ctx context.Context, node domain.ResolvedNode, artifact domain.Artifact) (domain.CellarEntry, error)
}
