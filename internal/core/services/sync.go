package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/core/ports/driving"
	"github.com/nuclia/sync-agent/internal/logger"
)

// Ensure Service implements the interface.
var _ driving.SyncEngine = (*Service)(nil)

// DefaultTransferWorkers bounds per-job transfer concurrency.
const DefaultTransferWorkers = 6

// Service is the central orchestration point of the sync engine. It owns
// the connector registry, the cache of live source connector instances,
// and the job queue; it runs the transfer pipeline and notifies listeners
// when jobs complete.
type Service struct {
	queue  *Queue
	params driven.ParamsStore

	mu           sync.Mutex
	sources      map[string]SourceDefinition
	destinations map[string]DestinationDefinition
	instances    map[string]driven.SourceConnector

	workers int64

	lmu       sync.Mutex
	listeners []func(domain.SyncJob)
}

// NewService creates the orchestration service. The queue and the params
// store are owned exclusively by the service; connector definitions are
// registered afterwards, dynamic ones possibly at runtime.
func NewService(queue *Queue, params driven.ParamsStore) *Service {
	return &Service{
		queue:        queue,
		params:       params,
		sources:      make(map[string]SourceDefinition),
		destinations: make(map[string]DestinationDefinition),
		instances:    make(map[string]driven.SourceConnector),
		workers:      DefaultTransferWorkers,
	}
}

// SetTransferWorkers overrides the transfer pool size. Values below one
// are ignored.
func (s *Service) SetTransferWorkers(n int) {
	if n >= 1 {
		s.workers = int64(n)
	}
}

// Queue exposes the job queue to presentation surfaces.
func (s *Service) Queue() driving.JobQueue {
	return s.queue
}

// RegisterSource adds a source definition to the registry. Registering an
// existing id replaces the definition and drops any cached instance, which
// is how dynamic connectors are (re)loaded.
func (s *Service) RegisterSource(def SourceDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[def.ID] = def
	delete(s.instances, def.ID)
}

// RegisterDestination adds a destination definition to the registry.
func (s *Service) RegisterDestination(def DestinationDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destinations[def.ID] = def
}

// Connectors lists the registered definitions of one kind, sorted by title.
func (s *Service) Connectors(kind driving.ConnectorKind) []domain.ConnectorDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kind == driving.KindDestination {
		return sortedDefinitions(s.destinations)
	}
	return sortedDefinitions(s.sources)
}

// GetSource returns the live connector for a source id, building it on
// first use and re-applying any persisted parameters so a previously
// configured connector resumes where it left off. The instance cache is
// mutated only here.
func (s *Service) GetSource(ctx context.Context, id string) (driven.SourceConnector, error) {
	s.mu.Lock()
	if inst, ok := s.instances[id]; ok {
		s.mu.Unlock()
		return inst, nil
	}
	def, ok := s.sources[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: source connector %s", domain.ErrNotFound, id)
	}

	inst, err := def.Factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("build source connector %s: %w", id, err)
	}
	if s.params != nil {
		if stored, err := s.params.Get(ctx, id); err == nil && len(stored) > 0 {
			if err := inst.ApplyParameters(stored); err != nil {
				logger.Warn("Stored parameters for %s no longer apply: %v", id, err)
			}
		}
	}

	s.mu.Lock()
	s.instances[id] = inst
	s.mu.Unlock()
	return inst, nil
}

// DropSource evicts a cached connector instance, forcing a rebuild on the
// next GetSource.
func (s *Service) DropSource(id string) {
	s.mu.Lock()
	delete(s.instances, id)
	s.mu.Unlock()
}

// SaveSourceParameters validates submitted values against the connector's
// fields, applies them to the live instance, and persists them for resume.
func (s *Service) SaveSourceParameters(ctx context.Context, id string, params domain.ConnectorParameters) error {
	inst, err := s.GetSource(ctx, id)
	if err != nil {
		return err
	}
	fields, err := inst.Parameters(ctx)
	if err != nil {
		return fmt.Errorf("fetch parameter fields for %s: %w", id, err)
	}
	if err := domain.ValidateParams(fields, params); err != nil {
		return err
	}
	if err := inst.ApplyParameters(params); err != nil {
		return err
	}
	if s.params != nil {
		if err := s.params.Save(ctx, id, params); err != nil {
			return fmt.Errorf("persist parameters for %s: %w", id, err)
		}
	}
	return nil
}

// GetDestination builds a destination connector instance. Destinations are
// cheap to construct and carry per-job settings, so they are not cached.
func (s *Service) GetDestination(ctx context.Context, id string) (driven.DestinationConnector, error) {
	s.mu.Lock()
	def, ok := s.destinations[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: destination connector %s", domain.ErrNotFound, id)
	}
	inst, err := def.Factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("build destination connector %s: %w", id, err)
	}
	return inst, nil
}

// OnJobCompleted registers a listener called after a job completes.
func (s *Service) OnJobCompleted(fn func(job domain.SyncJob)) {
	s.lmu.Lock()
	s.listeners = append(s.listeners, fn)
	s.lmu.Unlock()
}

func (s *Service) notifyCompleted(job domain.SyncJob) {
	s.lmu.Lock()
	listeners := append([]func(domain.SyncJob){}, s.listeners...)
	s.lmu.Unlock()
	for _, fn := range listeners {
		fn(job)
	}
}
