package driven

import (
	"context"

	"github.com/nuclia/sync-agent/internal/core/domain"
)

// Authorizer drives the external authorization lifecycle on behalf of OAuth
// connectors: opening the provider page, waiting for the redirect, redeeming
// codes, persisting and refreshing tokens.
type Authorizer interface {
	// GoToOAuth opens the provider authorization page for the connector,
	// clearing any stored token first when reset is set. Returns
	// domain.ErrAuthInProgress if a flow for this connector is already
	// running.
	GoToOAuth(ctx context.Context, connectorID string, cfg domain.OAuthConfig, reset bool) error

	// Authenticate emits true once a usable token is held for the
	// connector, false when the flow fails or times out. The channel is
	// closed after the first value.
	Authenticate(ctx context.Context, connectorID string, cfg domain.OAuthConfig) <-chan bool

	// Token returns the stored token for the connector, refreshing it via
	// the persisted refresh endpoint when forceRefresh is set.
	Token(ctx context.Context, connectorID string, forceRefresh bool) (*domain.Token, error)

	// Reset clears the stored token, returning the connector to the
	// unauthenticated state.
	Reset(ctx context.Context, connectorID string) error
}
