// Package onedrive syncs files out of a OneDrive account through the
// Microsoft Graph REST API. Microsoft's consumer endpoints hand tokens back
// in the redirect fragment, so the connector uses the implicit grant.
package onedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nuclia/sync-agent/internal/connectors"
	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/core/services"
)

// DefaultPageSize bounds one listing page when the caller does not choose.
const DefaultPageSize = 50

const (
	authURL = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"
	apiBase = "https://graph.microsoft.com/v1.0"
)

var scopes = []string{"Files.Read.All"}

// Connector lists and reads files from the authenticated OneDrive account.
type Connector struct {
	connectors.OAuthBase
	client *http.Client
}

var (
	_ driven.SourceConnector = (*Connector)(nil)
	_ driven.LinkProvider    = (*Connector)(nil)
)

// New returns a OneDrive connector bound to the given authorizer.
func New(authorizer driven.Authorizer) *Connector {
	return &Connector{
		OAuthBase: connectors.NewOAuthBase("onedrive", authorizer, oauthConfig),
		client:    http.DefaultClient,
	}
}

// Definition describes the OneDrive provider for registration.
func Definition(authorizer driven.Authorizer) services.SourceDefinition {
	return services.SourceDefinition{
		ConnectorDefinition: domain.ConnectorDefinition{
			ID:          "onedrive",
			Title:       "OneDrive",
			Description: "Upload files from Microsoft OneDrive",
			Logo:        "onedrive.svg",
		},
		Factory: func(ctx context.Context) (driven.SourceConnector, error) {
			return New(authorizer), nil
		},
	}
}

func oauthConfig(params domain.ConnectorParameters) domain.OAuthConfig {
	return domain.OAuthConfig{
		AuthURL:  authURL,
		ClientID: params["client_id"],
		Scopes:   scopes,
		Implicit: true,
	}
}

// Parameters implements driven.SourceConnector.
func (c *Connector) Parameters(_ context.Context) ([]domain.Field, error) {
	return []domain.Field{
		{ID: "client_id", Label: "Application (client) ID", Type: domain.FieldText, Required: true},
	}, nil
}

// driveItem is the subset of the Graph drive item resource the connector
// reads.
type driveItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DownloadURL string          `json:"@microsoft.graph.downloadUrl"`
	Folder      json.RawMessage `json:"folder"`
}

type driveItemList struct {
	Value    []driveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

// GetFiles implements driven.SourceConnector. Queries go through the Graph
// search endpoint; plain listings enumerate the drive root.
func (c *Connector) GetFiles(ctx context.Context, query string, pageSize int) (*domain.SearchResults, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var endpoint string
	if query != "" {
		endpoint = fmt.Sprintf("%s/me/drive/root/search(q='%s')?$top=%d",
			apiBase, url.PathEscape(strings.ReplaceAll(query, "'", "''")), pageSize)
	} else {
		endpoint = fmt.Sprintf("%s/me/drive/root/children?$top=%d", apiBase, pageSize)
	}
	return c.listPage(ctx, endpoint)
}

func (c *Connector) listPage(ctx context.Context, endpoint string) (*domain.SearchResults, error) {
	var list driveItemList
	if err := c.getJSON(ctx, endpoint, &list); err != nil {
		return nil, err
	}

	page := &domain.SearchResults{Items: listItems(list)}
	if list.NextLink != "" {
		next := list.NextLink
		page.NextPage = func(ctx context.Context) (*domain.SearchResults, error) {
			return c.listPage(ctx, next)
		}
	}
	return page, nil
}

// listItems keeps file entries only; Graph marks folders with a folder facet.
func listItems(list driveItemList) []domain.SyncItem {
	items := make([]domain.SyncItem, 0, len(list.Value))
	for _, entry := range list.Value {
		if entry.Folder != nil {
			continue
		}
		items = append(items, domain.NewSyncItem(entry.ID, entry.Name))
	}
	return items
}

// Download implements driven.SourceConnector.
func (c *Connector) Download(ctx context.Context, item domain.SyncItem) (io.ReadCloser, error) {
	endpoint := fmt.Sprintf("%s/me/drive/items/%s/content", apiBase, item.OriginalID)
	resp, err := c.do(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, item.OriginalID)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: status %d", item.OriginalID, resp.StatusCode)
	}
}

// GetLink implements driven.LinkProvider. Graph exposes a short-lived
// pre-authenticated download URL on the item resource.
func (c *Connector) GetLink(ctx context.Context, item domain.SyncItem) (*domain.Link, error) {
	endpoint := fmt.Sprintf("%s/me/drive/items/%s?$select=id,@microsoft.graph.downloadUrl", apiBase, item.OriginalID)
	var entry driveItem
	if err := c.getJSON(ctx, endpoint, &entry); err != nil {
		return nil, err
	}
	if entry.DownloadURL == "" {
		return nil, fmt.Errorf("%w: item %s has no download url", domain.ErrNotSupported, item.OriginalID)
	}
	return &domain.Link{URI: entry.DownloadURL}, nil
}

func (c *Connector) do(ctx context.Context, endpoint string) (*http.Response, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph request: %w", err)
	}
	return resp, nil
}

func (c *Connector) getJSON(ctx context.Context, endpoint string, out any) error {
	resp, err := c.do(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrItemNotFound, endpoint)
	case http.StatusUnauthorized:
		return fmt.Errorf("graph request: %w", domain.ErrAuthInvalid)
	default:
		return fmt.Errorf("graph request %s: status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode graph response: %w", err)
	}
	return nil
}
