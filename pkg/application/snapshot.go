package application

import (
	"context"

	"github.com/felixgeelhaar/pulse/pkg/domain/activity"
	"github.com/felixgeelhaar/pulse/pkg/domain/flow"
	"github.com/felixgeelhaar/pulse/pkg/domain/wbs"
)

// ArtifactSource lists the WBS documents of a set of projects.
type ArtifactSource interface {
	Artifacts(ctx context.Context, projectIDs []string) ([]wbs.Artifact, error)
}

// SnapshotSource provides every upstream signal a report is built from.
// Implementations return raw data; the service owns degradation.
type SnapshotSource interface {
	ArtifactSource
	ProjectIDs(ctx context.Context) ([]string, error)
	FlowSignals(ctx context.Context, days int) (flow.Signals, error)
	PendingApprovals(ctx context.Context, days int) (activity.Approvals, error)
	Activity(ctx context.Context) (activity.Feed, error)
	ChangeRequests(ctx context.Context) (activity.ChangeRequests, error)
}
