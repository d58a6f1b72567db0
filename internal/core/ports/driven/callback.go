package driven

import "context"

// CallbackParams are the query parameters returned by a provider through
// the application's deep-link/callback surface after an external
// authorization redirect. Consumed once and not replayed.
type CallbackParams struct {
	// Code is the authorization code of code/PKCE flows.
	Code string

	// AccessToken and RefreshToken are delivered directly by implicit flows.
	AccessToken  string
	RefreshToken string

	// State echoes the CSRF state sent with the authorization request.
	State string

	// Error carries the provider error, empty on success.
	Error string
}

// CallbackSource is the single well-defined channel the OAuth flow
// controller waits on for authorization redirects. Implementations are
// cancellable through the context; no interval polling.
type CallbackSource interface {
	// RedirectURI is the redirect target to embed in authorization URLs.
	RedirectURI() string

	// WaitForCallback blocks until the next callback arrives or the
	// context is done. Each callback is delivered to exactly one waiter.
	WaitForCallback(ctx context.Context) (*CallbackParams, error)
}

// BrowserOpener opens the external authorization page. Embedded
// applications substitute their external-open mechanism.
type BrowserOpener func(url string) error
