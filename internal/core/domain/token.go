package domain

// Token is a persisted OAuth credential pair for one connector. Created on
// first successful authorization, overwritten on refresh, deleted on
// explicit disconnect. The token store is last-writer-wins; no locking is
// needed because only one authorization flow per connector is ever in
// flight.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`

	// RefreshEndpoint is the provider token URL used to redeem the refresh
	// token.
	RefreshEndpoint string `json:"refresh_endpoint,omitempty"`
}

// Valid reports whether the token carries a usable access token.
func (t *Token) Valid() bool {
	return t != nil && t.AccessToken != ""
}

// Refreshable reports whether the token can be renewed without user
// interaction.
func (t *Token) Refreshable() bool {
	return t != nil && t.RefreshToken != "" && t.RefreshEndpoint != ""
}
