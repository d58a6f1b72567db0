// Package folder syncs files out of a local directory tree. It is the
// simplest source connector: no authentication, recursive listing, and
// change notification through filesystem events.
package folder

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/core/services"
)

// DefaultPageSize bounds one listing page when the caller does not choose.
const DefaultPageSize = 50

// ignoredNames are filesystem artifacts that never represent user content.
var ignoredNames = map[string]bool{
	".DS_Store": true,
	"Thumbs.db": true,
}

// Connector lists and reads files under a configured root directory.
type Connector struct {
	params domain.ConnectorParameters
}

var (
	_ driven.SourceConnector = (*Connector)(nil)
	_ driven.Watcher         = (*Connector)(nil)
)

// New returns an unconfigured folder connector.
func New() *Connector {
	return &Connector{params: domain.ConnectorParameters{}}
}

// Definition describes the folder provider for registration.
func Definition() services.SourceDefinition {
	return services.SourceDefinition{
		ConnectorDefinition: domain.ConnectorDefinition{
			ID:          "folder",
			Title:       "Folder",
			Description: "Upload files from your computer",
			Logo:        "folder.svg",
		},
		Factory: func(ctx context.Context) (driven.SourceConnector, error) {
			return New(), nil
		},
	}
}

// Parameters implements driven.SourceConnector.
func (c *Connector) Parameters(_ context.Context) ([]domain.Field, error) {
	return []domain.Field{
		{
			ID:       "path",
			Label:    "Local folder path",
			Type:     domain.FieldFolder,
			Required: true,
		},
	}, nil
}

// ApplyParameters implements driven.SourceConnector.
func (c *Connector) ApplyParameters(params domain.ConnectorParameters) error {
	c.params = params
	return nil
}

// ParameterValues implements driven.SourceConnector.
func (c *Connector) ParameterValues() domain.ConnectorParameters {
	return c.params
}

// GoToOAuth is a no-op: local folders need no external authorization.
func (c *Connector) GoToOAuth(_ context.Context, _ bool) error {
	return nil
}

// Authenticate implements driven.SourceConnector. Local access is always
// granted, so the channel resolves immediately.
func (c *Connector) Authenticate(_ context.Context) <-chan bool {
	ch := make(chan bool, 1)
	ch <- true
	close(ch)
	return ch
}

// GetFiles implements driven.SourceConnector. The whole tree is walked up
// front and sliced into pages; continuations serve from the in-memory list.
func (c *Connector) GetFiles(ctx context.Context, query string, pageSize int) (*domain.SearchResults, error) {
	root := c.params["path"]
	if root == "" {
		return nil, fmt.Errorf("%w: path", domain.ErrMissingParameter)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	items, err := listTree(ctx, root, query)
	if err != nil {
		return nil, err
	}
	return paginate(items, 0, pageSize), nil
}

// listTree walks root recursively and returns one pending item per regular
// file, skipping filesystem artifacts and applying the optional query as a
// case-insensitive substring match on the file name.
func listTree(ctx context.Context, root, query string) ([]domain.SyncItem, error) {
	query = strings.ToLower(query)
	var items []domain.SyncItem
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if ignoredNames[name] {
			return nil
		}
		if query != "" && !strings.Contains(strings.ToLower(name), query) {
			return nil
		}
		item := domain.NewSyncItem(path, name)
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].OriginalID < items[j].OriginalID })
	return items, nil
}

// paginate slices the full listing into lazily chained pages.
func paginate(items []domain.SyncItem, offset, pageSize int) *domain.SearchResults {
	end := offset + pageSize
	if end > len(items) {
		end = len(items)
	}
	page := &domain.SearchResults{Items: items[offset:end]}
	if end < len(items) {
		page.NextPage = func(_ context.Context) (*domain.SearchResults, error) {
			return paginate(items, end, pageSize), nil
		}
	}
	return page
}

// Download implements driven.SourceConnector.
func (c *Connector) Download(_ context.Context, item domain.SyncItem) (io.ReadCloser, error) {
	f, err := os.Open(item.OriginalID)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, item.OriginalID)
		}
		return nil, fmt.Errorf("open %s: %w", item.OriginalID, err)
	}
	return f, nil
}
