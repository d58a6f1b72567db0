// Package gdrive syncs files out of Google Drive. Native Google Workspace
// documents have no raw bytes, so they are exported to PDF on download.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/nuclia/sync-agent/internal/connectors"
	"github.com/nuclia/sync-agent/internal/connectors/google"
	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/core/services"
)

// DefaultPageSize bounds one listing page when the caller does not choose.
const DefaultPageSize = 50

// Google Workspace MIME types.
const (
	mimePrefixGoogleApps = "application/vnd.google-apps"
	mimeFolder           = "application/vnd.google-apps.folder"
	exportMimePDF        = "application/pdf"
)

var scopes = []string{"https://www.googleapis.com/auth/drive.readonly"}

// Connector lists and reads files from the authenticated Drive account.
type Connector struct {
	connectors.OAuthBase
	limiter *google.RateLimiter
}

var _ driven.SourceConnector = (*Connector)(nil)

// New returns a Drive connector bound to the given authorizer.
func New(authorizer driven.Authorizer) *Connector {
	return &Connector{
		OAuthBase: connectors.NewOAuthBase("gdrive", authorizer, oauthConfig),
		limiter:   google.NewRateLimiter(google.ServiceDrive),
	}
}

// Definition describes the Drive provider for registration.
func Definition(authorizer driven.Authorizer) services.SourceDefinition {
	return services.SourceDefinition{
		ConnectorDefinition: domain.ConnectorDefinition{
			ID:          "gdrive",
			Title:       "Google Drive",
			Description: "Upload files from Google Drive",
			Logo:        "gdrive.svg",
		},
		Factory: func(ctx context.Context) (driven.SourceConnector, error) {
			return New(authorizer), nil
		},
	}
}

func oauthConfig(params domain.ConnectorParameters) domain.OAuthConfig {
	return domain.OAuthConfig{
		AuthURL:      google.AuthURL,
		TokenURL:     google.TokenURL,
		ClientID:     params["client_id"],
		ClientSecret: params["client_secret"],
		Scopes:       scopes,
		UsePKCE:      true,
	}
}

// Parameters implements driven.SourceConnector.
func (c *Connector) Parameters(_ context.Context) ([]domain.Field, error) {
	return []domain.Field{
		{ID: "client_id", Label: "OAuth client ID", Type: domain.FieldText, Required: true},
		{ID: "client_secret", Label: "OAuth client secret", Type: domain.FieldText},
	}, nil
}

func (c *Connector) service(ctx context.Context) (*drive.Service, error) {
	ts := google.NewTokenSource(ctx, c.Authorizer(), c.ConnectorID())
	return google.NewDriveService(ctx, ts)
}

// GetFiles implements driven.SourceConnector. The query is pushed down to
// the provider as a name-contains clause; folders and trashed files are
// excluded server-side.
func (c *Connector) GetFiles(ctx context.Context, query string, pageSize int) (*domain.SearchResults, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return c.listPage(ctx, svc, query, pageSize, "")
}

// listQuery builds the Drive search clause. Folders and trashed files are
// excluded; a non-empty query becomes a name-contains match with single
// quotes escaped for the Drive query grammar.
func listQuery(query string) string {
	q := fmt.Sprintf("trashed = false and mimeType != '%s'", mimeFolder)
	if query != "" {
		escaped := strings.ReplaceAll(query, `'`, `\'`)
		q += fmt.Sprintf(" and name contains '%s'", escaped)
	}
	return q
}

func (c *Connector) listPage(ctx context.Context, svc *drive.Service, query string, pageSize int, pageToken string) (*domain.SearchResults, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := svc.Files.List().
		Context(ctx).
		Q(listQuery(query)).
		PageSize(int64(pageSize)).
		Fields("nextPageToken, files(id, name, mimeType)")
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	out, err := call.Do()
	if err != nil {
		c.recordRateLimit(err)
		return nil, fmt.Errorf("list drive files: %w", err)
	}

	items := make([]domain.SyncItem, 0, len(out.Files))
	for _, f := range out.Files {
		item := domain.NewSyncItem(f.Id, f.Name)
		item.Metadata["mimeType"] = f.MimeType
		items = append(items, item)
	}

	page := &domain.SearchResults{Items: items}
	if out.NextPageToken != "" {
		next := out.NextPageToken
		page.NextPage = func(ctx context.Context) (*domain.SearchResults, error) {
			return c.listPage(ctx, svc, query, pageSize, next)
		}
	}
	return page, nil
}

// Download implements driven.SourceConnector. Workspace-native documents are
// exported to PDF; everything else is fetched verbatim.
func (c *Connector) Download(ctx context.Context, item domain.SyncItem) (io.ReadCloser, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *http.Response
	if strings.HasPrefix(item.Metadata["mimeType"], mimePrefixGoogleApps) {
		resp, err = svc.Files.Export(item.OriginalID, exportMimePDF).Context(ctx).Download()
	} else {
		resp, err = svc.Files.Get(item.OriginalID).Context(ctx).Download()
	}
	if err != nil {
		c.recordRateLimit(err)
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, item.OriginalID)
		}
		return nil, fmt.Errorf("download %s: %w", item.OriginalID, err)
	}
	return resp.Body, nil
}

func (c *Connector) recordRateLimit(err error) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		c.limiter.RecordRateLimitError(0)
	}
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
