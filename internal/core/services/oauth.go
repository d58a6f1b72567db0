package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/logger"
)

// Ensure OAuthFlow implements the interface.
var _ driven.Authorizer = (*OAuthFlow)(nil)

// DefaultAuthTimeout bounds how long the controller waits for the external
// redirect to come back.
const DefaultAuthTimeout = 5 * time.Minute

// pendingAuth is the in-flight authorization state for one connector.
// Its presence is the single latch guaranteeing at most one flow per
// connector.
type pendingAuth struct {
	state    string
	verifier string
}

// OAuthFlow drives external authorization for OAuth connectors: it opens
// the provider page, waits for the callback on a single cancellable
// channel, redeems authorization codes (with PKCE when required), and
// persists the resulting token pair.
type OAuthFlow struct {
	tokens    driven.TokenStore
	callbacks driven.CallbackSource
	open      driven.BrowserOpener
	client    *http.Client
	timeout   time.Duration

	mu      sync.Mutex
	pending map[string]*pendingAuth
}

// NewOAuthFlow creates an OAuth flow controller.
func NewOAuthFlow(tokens driven.TokenStore, callbacks driven.CallbackSource, open driven.BrowserOpener) *OAuthFlow {
	return &OAuthFlow{
		tokens:    tokens,
		callbacks: callbacks,
		open:      open,
		client:    &http.Client{Timeout: 30 * time.Second},
		timeout:   DefaultAuthTimeout,
	}
}

// SetTimeout overrides the callback wait timeout.
func (f *OAuthFlow) SetTimeout(d time.Duration) {
	f.timeout = d
}

// GoToOAuth opens the provider authorization page. With reset, the stored
// token is cleared first. When a valid token is already held this is a
// no-op; Authenticate will resolve immediately.
func (f *OAuthFlow) GoToOAuth(ctx context.Context, connectorID string, cfg domain.OAuthConfig, reset bool) error {
	if reset {
		if err := f.Reset(ctx, connectorID); err != nil {
			return err
		}
	}

	if tok, err := f.tokens.Get(ctx, connectorID); err == nil && tok.Valid() {
		return nil
	}

	f.mu.Lock()
	if _, inFlight := f.pending[connectorID]; inFlight {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrAuthInProgress, connectorID)
	}
	state, err := generateState()
	if err != nil {
		f.mu.Unlock()
		return err
	}
	p := &pendingAuth{state: state}
	if cfg.UsePKCE && !cfg.Implicit {
		verifier, err := generateCodeVerifier()
		if err != nil {
			f.mu.Unlock()
			return err
		}
		p.verifier = verifier
	}
	if f.pending == nil {
		f.pending = make(map[string]*pendingAuth)
	}
	f.pending[connectorID] = p
	f.mu.Unlock()

	authURL := buildAuthURL(cfg, f.callbacks.RedirectURI(), p)
	logger.Debug("Opening authorization page for %s", connectorID)
	if err := f.open(authURL); err != nil {
		f.clearPending(connectorID)
		return fmt.Errorf("open authorization page: %w", err)
	}
	return nil
}

// Authenticate emits true once the connector holds a usable credential.
// For a pending flow it waits for the external redirect, redeems the code
// when needed, and persists the token. Emits false on failure or timeout.
func (f *OAuthFlow) Authenticate(ctx context.Context, connectorID string, cfg domain.OAuthConfig) <-chan bool {
	ch := make(chan bool, 1)
	go func() {
		defer close(ch)
		ch <- f.waitAuthenticated(ctx, connectorID, cfg)
	}()
	return ch
}

func (f *OAuthFlow) waitAuthenticated(ctx context.Context, connectorID string, cfg domain.OAuthConfig) bool {
	if tok, err := f.tokens.Get(ctx, connectorID); err == nil && tok.Valid() {
		return true
	}

	f.mu.Lock()
	p := f.pending[connectorID]
	f.mu.Unlock()
	if p == nil {
		// No flow was started; nothing to wait for.
		return false
	}
	defer f.clearPending(connectorID)

	wctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	params, err := f.callbacks.WaitForCallback(wctx)
	if err != nil {
		logger.Warn("Authorization wait for %s failed: %v", connectorID, err)
		return false
	}
	if params.Error != "" {
		logger.Warn("Provider rejected authorization for %s: %s", connectorID, params.Error)
		return false
	}
	// The redirect must echo the state this flow generated; a missing
	// state is as suspect as a wrong one.
	if params.State != p.state {
		logger.Warn("Authorization state mismatch for %s", connectorID)
		return false
	}

	token, err := f.resolveToken(ctx, cfg, params, p)
	if err != nil {
		logger.Warn("Authorization for %s failed: %v", connectorID, err)
		return false
	}
	if err := f.tokens.Save(ctx, connectorID, *token); err != nil {
		logger.Error("Persisting token for %s failed: %v", connectorID, err)
		return false
	}
	logger.Info("Connector %s authenticated", connectorID)
	return true
}

// resolveToken turns callback parameters into a credential pair: implicit
// flows carry the token directly, code flows redeem it at the token
// endpoint with the PKCE verifier.
func (f *OAuthFlow) resolveToken(
	ctx context.Context, cfg domain.OAuthConfig, params *driven.CallbackParams, p *pendingAuth,
) (*domain.Token, error) {
	if params.AccessToken != "" {
		return &domain.Token{
			AccessToken:     params.AccessToken,
			RefreshToken:    params.RefreshToken,
			RefreshEndpoint: cfg.TokenURL,
		}, nil
	}
	if params.Code == "" {
		return nil, fmt.Errorf("%w: callback carried neither token nor code", domain.ErrAuthInvalid)
	}
	resp, err := exchangeCode(ctx, f.client, cfg, params.Code, f.callbacks.RedirectURI(), p.verifier)
	if err != nil {
		return nil, err
	}
	return &domain.Token{
		AccessToken:     resp.AccessToken,
		RefreshToken:    resp.RefreshToken,
		RefreshEndpoint: cfg.TokenURL,
	}, nil
}

// Token returns the stored credential pair, refreshing it first when asked.
func (f *OAuthFlow) Token(ctx context.Context, connectorID string, forceRefresh bool) (*domain.Token, error) {
	tok, err := f.tokens.Get(ctx, connectorID)
	if err != nil {
		return nil, err
	}
	if !forceRefresh {
		return tok, nil
	}
	if !tok.Refreshable() {
		return nil, fmt.Errorf("%w: no refresh token for %s", domain.ErrTokenRefreshFailed, connectorID)
	}
	resp, err := refreshToken(ctx, f.client, tok.RefreshEndpoint, tok.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenRefreshFailed, err)
	}
	renewed := domain.Token{
		AccessToken:     resp.AccessToken,
		RefreshToken:    resp.RefreshToken,
		RefreshEndpoint: tok.RefreshEndpoint,
	}
	if renewed.RefreshToken == "" {
		// Providers may omit the refresh token on renewal; keep the old one.
		renewed.RefreshToken = tok.RefreshToken
	}
	if err := f.tokens.Save(ctx, connectorID, renewed); err != nil {
		return nil, err
	}
	return &renewed, nil
}

// Reset clears the stored token and returns the connector to the
// unauthenticated state.
func (f *OAuthFlow) Reset(ctx context.Context, connectorID string) error {
	f.clearPending(connectorID)
	return f.tokens.Delete(ctx, connectorID)
}

func (f *OAuthFlow) clearPending(connectorID string) {
	f.mu.Lock()
	delete(f.pending, connectorID)
	f.mu.Unlock()
}

// buildAuthURL assembles the provider authorization URL.
func buildAuthURL(cfg domain.OAuthConfig, redirectURI string, p *pendingAuth) string {
	q := url.Values{}
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", p.state)
	if len(cfg.Scopes) > 0 {
		q.Set("scope", strings.Join(cfg.Scopes, " "))
	}
	if cfg.Implicit {
		q.Set("response_type", "token")
	} else {
		q.Set("response_type", "code")
		if p.verifier != "" {
			q.Set("code_challenge", generateCodeChallenge(p.verifier))
			q.Set("code_challenge_method", "S256")
		}
	}
	sep := "?"
	if strings.Contains(cfg.AuthURL, "?") {
		sep = "&"
	}
	return cfg.AuthURL + sep + q.Encode()
}
