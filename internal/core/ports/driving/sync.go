package driving

import (
	"context"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
)

// ConnectorKind distinguishes the two connector families of the registry.
type ConnectorKind string

const (
	// KindSource selects the source connector registry.
	KindSource ConnectorKind = "sources"
	// KindDestination selects the destination connector registry.
	KindDestination ConnectorKind = "destinations"
)

// SyncEngine is the central orchestration surface: configured sources and
// destinations, the live connector cache, and the transfer pipeline.
type SyncEngine interface {
	// Connectors lists the registered connector definitions of one kind,
	// sorted by title for display.
	Connectors(kind ConnectorKind) []domain.ConnectorDefinition

	// GetSource returns the live connector instance for a source id,
	// building and caching it on first use.
	GetSource(ctx context.Context, id string) (driven.SourceConnector, error)

	// GetDestination builds a destination connector instance.
	GetDestination(ctx context.Context, id string) (driven.DestinationConnector, error)

	// SaveSourceParameters validates submitted values against the source's
	// parameter fields, applies them to the live instance, and persists
	// them for resume.
	SaveSourceParameters(ctx context.Context, id string, params domain.ConnectorParameters) error

	// RunJob executes the transfer pipeline for one pending job. Items are
	// processed independently; partial completion is normal and the job
	// stays active until every item is terminal.
	RunJob(ctx context.Context, jobID string) error

	// RunPending executes every job that is neither started nor completed.
	RunPending(ctx context.Context) error

	// RetryFailed re-queues only the errored items of a job and runs it
	// again.
	RetryFailed(ctx context.Context, jobID string) error

	// OnJobCompleted registers a listener notified after a job completes,
	// e.g. to refresh a remote resource counter.
	OnJobCompleted(fn func(job domain.SyncJob))
}
