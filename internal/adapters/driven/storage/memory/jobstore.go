package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// JobStore is an in-memory implementation of driven.JobStore.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.SyncJob
}

// NewJobStore creates a new in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]domain.SyncJob),
	}
}

// Save stores or updates a job keyed by its ID.
func (s *JobStore) Save(_ context.Context, job domain.SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

// List returns all stored jobs ordered by creation date.
func (s *JobStore) List(_ context.Context) ([]domain.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.SyncJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		result = append(result, job)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// Delete removes a job by ID.
func (s *JobStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}
