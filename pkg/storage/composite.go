package storage

import (
	"context"

	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
)

// ArtifactLister lists WBS artifacts from an external store.
type ArtifactLister interface {
	Artifacts(ctx context.Context, projectIDs []string) ([]wbs.Artifact, error)
}

// CompositeSource serves every snapshot signal from the workspace except WBS
// artifacts, which come from an external store such as PostgreSQL.
type CompositeSource struct {
	*FilesystemRepository
	artifacts ArtifactLister
}

// NewCompositeSource combines repo with an external artifact store.
func NewCompositeSource(repo *FilesystemRepository, artifacts ArtifactLister) *CompositeSource {
	return &CompositeSource{FilesystemRepository: repo, artifacts: artifacts}
}

// Artifacts delegates to the external store.
func (c *CompositeSource) Artifacts(ctx context.Context, projectIDs []string) ([]wbs.Artifact, error) {
	return c.artifacts.Artifacts(ctx, projectIDs)
}
