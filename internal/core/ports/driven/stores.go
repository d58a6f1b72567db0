package driven

import (
	"context"

	"github.com/nuclia/sync-agent/internal/core/domain"
)

// TokenStore persists per-connector OAuth credential pairs under a stable
// key. Semantics are last-writer-wins; only one authorization flow per
// connector is ever in flight, so no further coordination is needed.
type TokenStore interface {
	// Save stores or overwrites the token for a connector.
	Save(ctx context.Context, connectorID string, token domain.Token) error

	// Get retrieves the token for a connector. Returns domain.ErrNotFound
	// when none is stored.
	Get(ctx context.Context, connectorID string) (*domain.Token, error)

	// Delete removes the token for a connector. Deleting a missing token
	// is not an error.
	Delete(ctx context.Context, connectorID string) error
}

// ParamsStore caches per-connector configuration values (bucket names,
// client ids) so a configured connector can be resumed across restarts.
type ParamsStore interface {
	Save(ctx context.Context, connectorID string, params domain.ConnectorParameters) error
	Get(ctx context.Context, connectorID string) (domain.ConnectorParameters, error)
	Delete(ctx context.Context, connectorID string) error
}

// JobStore persists the sync job queue durably across restarts.
type JobStore interface {
	// Save stores or updates a job keyed by its ID.
	Save(ctx context.Context, job domain.SyncJob) error

	// List returns all stored jobs ordered by creation date.
	List(ctx context.Context) ([]domain.SyncJob, error)

	// Delete removes a job by ID.
	Delete(ctx context.Context, id string) error
}
