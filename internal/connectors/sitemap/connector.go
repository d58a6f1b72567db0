// Package sitemap syncs web pages enumerated by an XML sitemap. Pages are
// ingested by link when the destination accepts links, by fetched body
// otherwise. A sitemap has no notion of one-shot selection, which makes the
// connector permanent-sync only.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/core/services"
)

// DefaultPageSize bounds one listing page when the caller does not choose.
const DefaultPageSize = 50

// sitemapPattern accepts plain sitemap files and handler-generated ones.
const sitemapPattern = `.+\.(ashx|xml)$`

// Connector lists pages out of one configured sitemap URL.
type Connector struct {
	params domain.ConnectorParameters
	client *http.Client
}

var (
	_ driven.SourceConnector = (*Connector)(nil)
	_ driven.LinkProvider    = (*Connector)(nil)
)

// New returns an unconfigured sitemap connector.
func New() *Connector {
	return &Connector{
		params: domain.ConnectorParameters{},
		client: http.DefaultClient,
	}
}

// Definition describes the sitemap provider for registration.
func Definition() services.SourceDefinition {
	return services.SourceDefinition{
		ConnectorDefinition: domain.ConnectorDefinition{
			ID:                "sitemap",
			Title:             "Sitemap",
			Description:       "Upload web pages from a sitemap",
			Logo:              "sitemap.svg",
			PermanentSyncOnly: true,
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
			ID:          "sitemap",
			Label:       "Sitemap URL",
			Type:        domain.FieldText,
			Required:    true,
			Pattern:     sitemapPattern,
			Placeholder: "https://example.com/sitemap.xml",
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

// GoToOAuth is a no-op: sitemaps are public documents.
func (c *Connector) GoToOAuth(_ context.Context, _ bool) error {
	return nil
}

// Authenticate implements driven.SourceConnector.
func (c *Connector) Authenticate(_ context.Context) <-chan bool {
	ch := make(chan bool, 1)
	ch <- true
	close(ch)
	return ch
}

// urlSet mirrors the sitemap protocol's urlset document.
type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []pageEntry `xml:"url"`
}

type pageEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// GetFiles implements driven.SourceConnector. The sitemap is fetched and
// parsed whole, then sliced into pages; the optional query matches
// case-insensitively against page URLs.
func (c *Connector) GetFiles(ctx context.Context, query string, pageSize int) (*domain.SearchResults, error) {
	sitemapURL := c.params["sitemap"]
	if sitemapURL == "" {
		return nil, fmt.Errorf("%w: sitemap", domain.ErrMissingParameter)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	entries, err := c.fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var items []domain.SyncItem
	for _, entry := range entries {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(loc), query) {
			continue
		}
		item := domain.NewSyncItem(loc, pageTitle(loc))
		if entry.LastMod != "" {
			item.Metadata["lastmod"] = entry.LastMod
		}
		items = append(items, item)
	}
	return paginate(items, 0, pageSize), nil
}

func (c *Connector) fetch(ctx context.Context, sitemapURL string) ([]pageEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sitemap %s: status %d", sitemapURL, resp.StatusCode)
	}

	var set urlSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}
	return set.URLs, nil
}

// pageTitle derives a display name from the URL's last path segment.
func pageTitle(loc string) string {
	trimmed := strings.TrimRight(loc, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 && i < len(trimmed)-1 {
		return trimmed[i+1:]
	}
	return trimmed
}

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

// Download fetches the page body. Destinations accepting links never call
// this; it is the fallback for blob-only destinations.
func (c *Connector) Download(ctx context.Context, item domain.SyncItem) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.OriginalID, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, item.OriginalID)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("fetch page %s: status %d", item.OriginalID, resp.StatusCode)
	}
	return resp.Body, nil
}

// GetLink implements driven.LinkProvider: the page URL is the link.
func (c *Connector) GetLink(_ context.Context, item domain.SyncItem) (*domain.Link, error) {
	return &domain.Link{URI: item.OriginalID}, nil
}
