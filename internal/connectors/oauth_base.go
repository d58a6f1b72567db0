// Package connectors provides source and destination connector
// implementations for the sync engine.
package connectors

import (
	"context"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
)

// ConfigFunc builds the provider OAuth configuration from the connector's
// current parameters, letting users supply their own OAuth app credentials.
type ConfigFunc func(params domain.ConnectorParameters) domain.OAuthConfig

// OAuthBase carries the authorization plumbing shared by every OAuth-backed
// source connector. Embed it and implement the listing and download methods;
// parameter storage, the external flow and token access come for free.
type OAuthBase struct {
	connectorID string
	authorizer  driven.Authorizer
	config      ConfigFunc
	params      domain.ConnectorParameters
}

// NewOAuthBase wires the shared plumbing for one connector.
func NewOAuthBase(connectorID string, authorizer driven.Authorizer, config ConfigFunc) OAuthBase {
	return OAuthBase{
		connectorID: connectorID,
		authorizer:  authorizer,
		config:      config,
		params:      domain.ConnectorParameters{},
	}
}

// ApplyParameters stores the submitted values.
func (b *OAuthBase) ApplyParameters(params domain.ConnectorParameters) error {
	b.params = params
	return nil
}

// ParameterValues returns the currently stored values.
func (b *OAuthBase) ParameterValues() domain.ConnectorParameters {
	return b.params
}

// GoToOAuth opens the provider's authorization page through the authorizer.
func (b *OAuthBase) GoToOAuth(ctx context.Context, reset bool) error {
	return b.authorizer.GoToOAuth(ctx, b.connectorID, b.config(b.params), reset)
}

// Authenticate resolves once the authorizer holds a usable token.
func (b *OAuthBase) Authenticate(ctx context.Context) <-chan bool {
	return b.authorizer.Authenticate(ctx, b.connectorID, b.config(b.params))
}

// AccessToken returns the current access token, refreshing on demand.
func (b *OAuthBase) AccessToken(ctx context.Context) (string, error) {
	token, err := b.authorizer.Token(ctx, b.connectorID, false)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// Authorizer exposes the underlying authorizer for adapters that need the
// full token lifecycle, such as oauth2.TokenSource bridges.
func (b *OAuthBase) Authorizer() driven.Authorizer {
	return b.authorizer
}

// ConnectorID returns the identifier the token is stored under.
func (b *OAuthBase) ConnectorID() string {
	return b.connectorID
}
