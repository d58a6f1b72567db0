// Package dropbox syncs files out of a Dropbox account through the official
// HTTP API. Listings walk the whole account recursively; queries go through
// the provider's search endpoint instead.
package dropbox

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"

	"github.com/nuclia/sync-agent/internal/connectors"
	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/core/services"
)

// DefaultPageSize bounds one listing page when the caller does not choose.
const DefaultPageSize = 50

const (
	authURL  = "https://www.dropbox.com/oauth2/authorize"
	tokenURL = "https://api.dropboxapi.com/oauth2/token"
)

// Connector lists and reads files from the authenticated Dropbox account.
type Connector struct {
	connectors.OAuthBase
}

var _ driven.SourceConnector = (*Connector)(nil)

// New returns a Dropbox connector bound to the given authorizer.
func New(authorizer driven.Authorizer) *Connector {
	return &Connector{
		OAuthBase: connectors.NewOAuthBase("dropbox", authorizer, oauthConfig),
	}
}

// Definition describes the Dropbox provider for registration.
func Definition(authorizer driven.Authorizer) services.SourceDefinition {
	return services.SourceDefinition{
		ConnectorDefinition: domain.ConnectorDefinition{
			ID:          "dropbox",
			Title:       "Dropbox",
			Description: "Upload files from Dropbox",
			Logo:        "dropbox.svg",
		},
		Factory: func(ctx context.Context) (driven.SourceConnector, error) {
			return New(authorizer), nil
		},
	}
}

func oauthConfig(params domain.ConnectorParameters) domain.OAuthConfig {
	return domain.OAuthConfig{
		AuthURL:  authURL,
		TokenURL: tokenURL,
		ClientID: params["client_id"],
		UsePKCE:  true,
	}
}

// Parameters implements driven.SourceConnector.
func (c *Connector) Parameters(_ context.Context) ([]domain.Field, error) {
	return []domain.Field{
		{ID: "client_id", Label: "App key", Type: domain.FieldText, Required: true},
	}, nil
}

func (c *Connector) client(ctx context.Context) (files.Client, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return files.New(dropbox.Config{Token: token}), nil
}

// GetFiles implements driven.SourceConnector. Without a query the whole
// account is walked recursively; with one, the provider's search endpoint
// does the matching.
func (c *Connector) GetFiles(ctx context.Context, query string, pageSize int) (*domain.SearchResults, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if query != "" {
		return c.searchPage(client, query, pageSize)
	}
	return c.listFirst(client, pageSize)
}

func (c *Connector) listFirst(client files.Client, pageSize int) (*domain.SearchResults, error) {
	arg := files.NewListFolderArg("")
	arg.Recursive = true
	arg.Limit = uint32(pageSize)

	out, err := client.ListFolder(arg)
	if err != nil {
		return nil, fmt.Errorf("list folder: %w", err)
	}
	return c.listResult(client, out), nil
}

func (c *Connector) listResult(client files.Client, out *files.ListFolderResult) *domain.SearchResults {
	page := &domain.SearchResults{Items: entriesToItems(out.Entries)}
	if out.HasMore {
		cursor := out.Cursor
		page.NextPage = func(_ context.Context) (*domain.SearchResults, error) {
			next, err := client.ListFolderContinue(files.NewListFolderContinueArg(cursor))
			if err != nil {
				return nil, fmt.Errorf("continue list folder: %w", err)
			}
			return c.listResult(client, next), nil
		}
	}
	return page
}

func (c *Connector) searchPage(client files.Client, query string, pageSize int) (*domain.SearchResults, error) {
	arg := files.NewSearchV2Arg(query)
	arg.Options = files.NewSearchOptions()
	arg.Options.MaxResults = uint64(pageSize)
	arg.Options.FileStatus = &files.FileStatus{}
	arg.Options.FileStatus.Tag = "active"

	out, err := client.SearchV2(arg)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return c.searchResult(client, out), nil
}

func (c *Connector) searchResult(client files.Client, out *files.SearchV2Result) *domain.SearchResults {
	var entries []files.IsMetadata
	for _, match := range out.Matches {
		if match.Metadata != nil && match.Metadata.Metadata != nil {
			entries = append(entries, match.Metadata.Metadata)
		}
	}
	page := &domain.SearchResults{Items: entriesToItems(entries)}
	if out.HasMore {
		cursor := out.Cursor
		page.NextPage = func(_ context.Context) (*domain.SearchResults, error) {
			next, err := client.SearchContinueV2(files.NewSearchV2ContinueArg(cursor))
			if err != nil {
				return nil, fmt.Errorf("continue search: %w", err)
			}
			return c.searchResult(client, next), nil
		}
	}
	return page
}

// entriesToItems keeps file entries only; folders and deletions are listing
// noise for a sync run.
func entriesToItems(entries []files.IsMetadata) []domain.SyncItem {
	items := make([]domain.SyncItem, 0, len(entries))
	for _, entry := range entries {
		file, ok := entry.(*files.FileMetadata)
		if !ok {
			continue
		}
		item := domain.NewSyncItem(file.Id, file.Name)
		item.Metadata["path"] = file.PathDisplay
		items = append(items, item)
	}
	return items
}

// Download implements driven.SourceConnector.
func (c *Connector) Download(ctx context.Context, item domain.SyncItem) (io.ReadCloser, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	_, content, err := client.Download(files.NewDownloadArg(item.OriginalID))
	if err != nil {
		if strings.Contains(err.Error(), "not_found") {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, item.OriginalID)
		}
		return nil, fmt.Errorf("download %s: %w", item.OriginalID, err)
	}
	return content, nil
}
