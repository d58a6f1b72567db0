// Package gcs syncs objects out of a Google Cloud Storage bucket. Object
// listings carry no server-side search, so queries are matched client-side
// against object names.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/storage/v1"

	"github.com/nuclia/sync-agent/internal/connectors"
	"github.com/nuclia/sync-agent/internal/connectors/google"
	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/core/services"
)

const (
	// DefaultPageSize bounds one listing page when the caller does not choose.
	DefaultPageSize = 50
	// maxListResults is the largest page requested from the provider when a
	// query forces client-side filtering over the listing.
	maxListResults = 1000
)

var scopes = []string{"https://www.googleapis.com/auth/devstorage.read_only"}

// Connector lists and reads objects from one configured bucket.
type Connector struct {
	connectors.OAuthBase
	limiter *google.RateLimiter
}

var (
	_ driven.SourceConnector = (*Connector)(nil)
	_ driven.LinkProvider    = (*Connector)(nil)
)

// New returns a Cloud Storage connector bound to the given authorizer.
func New(authorizer driven.Authorizer) *Connector {
	return &Connector{
		OAuthBase: connectors.NewOAuthBase("gcs", authorizer, oauthConfig),
		limiter:   google.NewRateLimiter(google.ServiceStorage),
	}
}

// Definition describes the Cloud Storage provider for registration.
func Definition(authorizer driven.Authorizer) services.SourceDefinition {
	return services.SourceDefinition{
		ConnectorDefinition: domain.ConnectorDefinition{
			ID:          "gcs",
			Title:       "Google Cloud Storage",
			Description: "Upload objects from a Cloud Storage bucket",
			Logo:        "gcs.svg",
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
		{ID: "bucket", Label: "Bucket", Type: domain.FieldText, Required: true},
	}, nil
}

func (c *Connector) service(ctx context.Context) (*storage.Service, error) {
	ts := google.NewTokenSource(ctx, c.Authorizer(), c.ConnectorID())
	return google.NewStorageService(ctx, ts)
}

// GetFiles implements driven.SourceConnector. A query widens the provider
// page so the client-side filter still fills result pages.
func (c *Connector) GetFiles(ctx context.Context, query string, pageSize int) (*domain.SearchResults, error) {
	bucket := c.ParameterValues()["bucket"]
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket", domain.ErrMissingParameter)
	}
	svc, err := c.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return c.listPage(ctx, svc, bucket, query, pageSize, "")
}

func (c *Connector) listPage(ctx context.Context, svc *storage.Service, bucket, query string, pageSize int, pageToken string) (*domain.SearchResults, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	max := int64(pageSize)
	if query != "" {
		max = maxListResults
	}
	call := svc.Objects.List(bucket).Context(ctx).MaxResults(max)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	out, err := call.Do()
	if err != nil {
		c.recordRateLimit(err)
		return nil, fmt.Errorf("list objects in %s: %w", bucket, err)
	}

	page := &domain.SearchResults{Items: toItems(out.Items, query)}
	if out.NextPageToken != "" {
		next := out.NextPageToken
		page.NextPage = func(ctx context.Context) (*domain.SearchResults, error) {
			return c.listPage(ctx, svc, bucket, query, pageSize, next)
		}
	}
	return page, nil
}

// toItems converts listed objects to pending items, applying the optional
// query as a case-insensitive substring match on the name.
func toItems(objects []*storage.Object, query string) []domain.SyncItem {
	query = strings.ToLower(query)
	items := make([]domain.SyncItem, 0, len(objects))
	for _, obj := range objects {
		if strings.HasSuffix(obj.Name, "/") {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(obj.Name), query) {
			continue
		}
		item := domain.NewSyncItem(obj.Name, lastSegment(obj.Name))
		item.Metadata["mediaLink"] = obj.MediaLink
		item.Metadata["contentType"] = obj.ContentType
		items = append(items, item)
	}
	return items
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Download implements driven.SourceConnector.
func (c *Connector) Download(ctx context.Context, item domain.SyncItem) (io.ReadCloser, error) {
	bucket := c.ParameterValues()["bucket"]
	svc, err := c.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := svc.Objects.Get(bucket, item.OriginalID).Context(ctx).Download()
	if err != nil {
		c.recordRateLimit(err)
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, item.OriginalID)
		}
		return nil, fmt.Errorf("download %s: %w", item.OriginalID, err)
	}
	return resp.Body, nil
}

// GetLink implements driven.LinkProvider. The media link needs the bearer
// token, so it is passed along as an extra header for the destination to
// replay.
func (c *Connector) GetLink(ctx context.Context, item domain.SyncItem) (*domain.Link, error) {
	mediaLink := item.Metadata["mediaLink"]
	if mediaLink == "" {
		return nil, fmt.Errorf("%w: object %s has no media link", domain.ErrNotSupported, item.OriginalID)
	}
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Link{
		URI:          mediaLink,
		ExtraHeaders: map[string]string{"Authorization": "Bearer " + token},
	}, nil
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
