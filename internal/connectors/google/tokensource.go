package google

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/nuclia/sync-agent/internal/core/ports/driven"
)

// TokenSourceAdapter bridges the stored-token lifecycle to oauth2.TokenSource
// so Google API clients can pull credentials from the connector's authorizer.
type TokenSourceAdapter struct {
	auth        driven.Authorizer
	connectorID string
	ctx         context.Context
}

// NewTokenSource creates an oauth2.TokenSource backed by the authorizer's
// stored token for one connector. The returned TokenSource can be used with
// option.WithTokenSource() when creating Google API services.
func NewTokenSource(ctx context.Context, auth driven.Authorizer, connectorID string) oauth2.TokenSource {
	return &TokenSourceAdapter{
		auth:        auth,
		connectorID: connectorID,
		ctx:         ctx,
	}
}

// Token implements oauth2.TokenSource. Called by Google API clients when
// they need an access token.
func (t *TokenSourceAdapter) Token() (*oauth2.Token, error) {
	token, err := t.auth.Token(t.ctx, t.connectorID, false)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
	}, nil
}
