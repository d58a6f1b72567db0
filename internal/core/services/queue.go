package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/core/ports/driving"
	"github.com/nuclia/sync-agent/internal/logger"
)

// Ensure Queue implements the interface.
var _ driving.JobQueue = (*Queue)(nil)

// Queue records sync jobs and keeps them durable through a JobStore. Jobs
// interrupted by a restart come back pending: a job persisted as started
// but not completed has its start flag cleared on load so the pipeline
// picks it up again.
type Queue struct {
	store driven.JobStore

	mu   sync.Mutex
	jobs map[string]*domain.SyncJob
}

// NewQueue creates a job queue backed by the given store and loads the
// persisted jobs.
func NewQueue(ctx context.Context, store driven.JobStore) (*Queue, error) {
	q := &Queue{
		store: store,
		jobs:  make(map[string]*domain.SyncJob),
	}
	persisted, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load job queue: %w", err)
	}
	for i := range persisted {
		job := persisted[i]
		if job.Completed == nil && job.Started != nil {
			job.Started = nil
			if err := store.Save(ctx, job); err != nil {
				return nil, fmt.Errorf("reset interrupted job %s: %w", job.ID, err)
			}
			logger.Info("Job %s was interrupted; back to pending", job.ID)
		}
		q.jobs[job.ID] = &job
	}
	return q, nil
}

// Enqueue creates a pending job from a confirmed selection. The files
// snapshot is copied; Started and Completed stay unset.
func (q *Queue) Enqueue(
	ctx context.Context, source string, dest domain.JobDestination, files []domain.SyncItem,
) (*domain.SyncJob, error) {
	if source == "" || dest.ID == "" {
		return nil, fmt.Errorf("%w: job needs a source and a destination", domain.ErrInvalidInput)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: job needs at least one file", domain.ErrInvalidInput)
	}

	job := domain.SyncJob{
		ID:          uuid.NewString(),
		Date:        time.Now().UTC(),
		Source:      source,
		Destination: dest,
		Files:       append([]domain.SyncItem(nil), files...),
	}
	if err := q.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}

	q.mu.Lock()
	q.jobs[job.ID] = &job
	q.mu.Unlock()

	logger.Debug("Enqueued job %s: %d items from %s to %s", job.ID, len(job.Files), source, dest.ID)
	snapshot := job
	return &snapshot, nil
}

// Get returns one job by ID.
func (q *Queue) Get(_ context.Context, id string) (*domain.SyncJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", domain.ErrNotFound, id)
	}
	snapshot := *job
	return &snapshot, nil
}

// Jobs returns every recorded job ordered by creation date.
func (q *Queue) Jobs(_ context.Context) ([]domain.SyncJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sortedLocked(), nil
}

// ByState filters jobs on their derived state.
func (q *Queue) ByState(_ context.Context, state domain.JobState) ([]domain.SyncJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []domain.SyncJob
	for _, job := range q.sortedLocked() {
		if job.State() == state {
			out = append(out, job)
		}
	}
	return out, nil
}

// ClearCompleted drops completed jobs from the queue and the store.
func (q *Queue) ClearCompleted(ctx context.Context) error {
	q.mu.Lock()
	var done []string
	for id, job := range q.jobs {
		if job.State() == domain.JobCompleted {
			done = append(done, id)
		}
	}
	for _, id := range done {
		delete(q.jobs, id)
	}
	q.mu.Unlock()

	for _, id := range done {
		if err := q.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete job %s: %w", id, err)
		}
	}
	return nil
}

// update persists a mutated job. Internal to the transfer pipeline, which
// owns Started, Completed and the per-item statuses.
func (q *Queue) update(ctx context.Context, job *domain.SyncJob) error {
	q.mu.Lock()
	q.jobs[job.ID] = job
	snapshot := *job
	q.mu.Unlock()
	return q.store.Save(ctx, snapshot)
}

// mutate applies fn to the live job under the queue lock and persists the
// result. fn errors abort without persisting.
func (q *Queue) mutate(ctx context.Context, id string, fn func(job *domain.SyncJob) error) (*domain.SyncJob, error) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return nil, fmt.Errorf("%w: job %s", domain.ErrNotFound, id)
	}
	if err := fn(job); err != nil {
		q.mu.Unlock()
		return nil, err
	}
	snapshot := *job
	q.mu.Unlock()

	if err := q.store.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persist job %s: %w", id, err)
	}
	return &snapshot, nil
}

func (q *Queue) sortedLocked() []domain.SyncJob {
	out := make([]domain.SyncJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
