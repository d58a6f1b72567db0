package memory

import (
	"context"
	"sync"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
)

// Ensure ParamsStore implements the interface.
var _ driven.ParamsStore = (*ParamsStore)(nil)

// ParamsStore is an in-memory implementation of driven.ParamsStore.
type ParamsStore struct {
	mu     sync.RWMutex
	params map[string]domain.ConnectorParameters
}

// NewParamsStore creates a new in-memory parameter store.
func NewParamsStore() *ParamsStore {
	return &ParamsStore{
		params: make(map[string]domain.ConnectorParameters),
	}
}

// Save stores or replaces the parameters for a connector.
func (s *ParamsStore) Save(_ context.Context, connectorID string, params domain.ConnectorParameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(domain.ConnectorParameters, len(params))
	for k, v := range params {
		copied[k] = v
	}
	s.params[connectorID] = copied
	return nil
}

// Get retrieves the parameters for a connector.
func (s *ParamsStore) Get(_ context.Context, connectorID string) (domain.ConnectorParameters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	params, ok := s.params[connectorID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := make(domain.ConnectorParameters, len(params))
	for k, v := range params {
		copied[k] = v
	}
	return copied, nil
}

// Delete removes the parameters for a connector.
func (s *ParamsStore) Delete(_ context.Context, connectorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.params, connectorID)
	return nil
}
