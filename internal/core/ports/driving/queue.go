package driving

import (
	"context"

	"github.com/nuclia/sync-agent/internal/core/domain"
)

// JobQueue records enqueued sync jobs and derives progress views.
type JobQueue interface {
	// Enqueue creates a pending job from a confirmed file selection.
	// Started and Completed are left unset; the transfer pipeline owns them.
	Enqueue(ctx context.Context, source string, dest domain.JobDestination, files []domain.SyncItem) (*domain.SyncJob, error)

	// Get returns one job by ID.
	Get(ctx context.Context, id string) (*domain.SyncJob, error)

	// Jobs returns every recorded job ordered by creation date.
	Jobs(ctx context.Context) ([]domain.SyncJob, error)

	// ByState filters jobs on their derived state.
	ByState(ctx context.Context, state domain.JobState) ([]domain.SyncJob, error)

	// ClearCompleted drops completed jobs from the queue.
	ClearCompleted(ctx context.Context) error
}
