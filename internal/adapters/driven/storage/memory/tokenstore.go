// Package memory provides in-memory store implementations used in tests
// and for ephemeral runs without persistence.
package memory

import (
	"context"
	"sync"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore is an in-memory implementation of driven.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]domain.Token
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]domain.Token),
	}
}

// Save stores or overwrites the token for a connector.
func (s *TokenStore) Save(_ context.Context, connectorID string, token domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[connectorID] = token
	return nil
}

// Get retrieves the token for a connector.
func (s *TokenStore) Get(_ context.Context, connectorID string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[connectorID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &token, nil
}

// Delete removes the token for a connector.
func (s *TokenStore) Delete(_ context.Context, connectorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, connectorID)
	return nil
}
