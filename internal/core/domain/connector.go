package domain

// ConnectorDefinition is the static descriptor of a supported provider.
// Definitions are immutable; the full set is built once at process start
// from a fixed registry, one per provider.
type ConnectorDefinition struct {
	// ID is the stable connector identifier (e.g. "gdrive", "s3").
	ID string

	// Title is the human-readable provider name.
	Title string

	// Description is a one-line summary shown in selection lists.
	Description string

	// Logo is the asset path of the provider logo.
	Logo string

	// HelpURL links to provider-specific setup documentation.
	HelpURL string

	// PermanentSyncOnly marks providers that only make sense as a
	// continuously watched source (e.g. sitemaps) rather than a one-shot
	// file selection.
	PermanentSyncOnly bool
}

// OAuthConfig describes how a provider's authorization endpoint is driven.
type OAuthConfig struct {
	// AuthURL is the provider's authorize endpoint.
	AuthURL string

	// TokenURL is the provider's token endpoint. Used for code exchange and
	// refresh; persisted alongside tokens as the refresh endpoint.
	TokenURL string

	// ClientID identifies the application at the provider.
	ClientID string

	// ClientSecret is the confidential client secret, empty for public
	// clients relying on PKCE.
	ClientSecret string

	// Scopes are the authorization scopes to request.
	Scopes []string

	// Implicit selects the implicit grant (token in the redirect) instead of
	// the authorization code flow.
	Implicit bool

	// UsePKCE adds a code challenge to code flows. Required by providers
	// that mandate proof-of-possession for public clients.
	UsePKCE bool
}

// Link is a direct, credential-bearing download URL returned by providers
// that support pre-signed or authenticated links, avoiding a local
// download/re-upload round trip.
type Link struct {
	URI          string
	ExtraHeaders map[string]string
}
