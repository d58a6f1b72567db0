// Package rss syncs web pages enumerated by an RSS feed. Like sitemap,
// pages are ingested by link when the destination accepts links and by
// fetched body otherwise; a feed is an ever-moving window, which makes the
// connector permanent-sync only.
package rss

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

// Connector lists pages out of one configured feed URL.
type Connector struct {
	params domain.ConnectorParameters
	client *http.Client
}

var (
	_ driven.SourceConnector = (*Connector)(nil)
	_ driven.LinkProvider    = (*Connector)(nil)
)

// New returns an unconfigured RSS connector.
func New() *Connector {
	return &Connector{
		params: domain.ConnectorParameters{},
		client: http.DefaultClient,
	}
}

// Definition describes the RSS provider for registration.
func Definition() services.SourceDefinition {
	return services.SourceDefinition{
		ConnectorDefinition: domain.ConnectorDefinition{
			ID:                "rss",
			Title:             "RSS",
			Description:       "Upload web pages from a RSS feed",
			Logo:              "rss.svg",
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
			ID:          "url",
			Label:       "RSS feed URL",
			Type:        domain.FieldText,
			Required:    true,
			Placeholder: "https://rss-feed-url",
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

// GoToOAuth is a no-op: feeds are public documents.
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

// feed mirrors the RSS 2.0 document down to the fields the connector reads.
type feed struct {
	XMLName xml.Name `xml:"rss"`
	Channel feedBody `xml:"channel"`
}

type feedBody struct {
	Items []feedItem `xml:"item"`
}

type feedItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

// GetFiles implements driven.SourceConnector. The feed is fetched and
// parsed whole, then sliced into pages; the optional query matches
// case-insensitively against entry titles and URLs.
func (c *Connector) GetFiles(ctx context.Context, query string, pageSize int) (*domain.SearchResults, error) {
	feedURL := c.params["url"]
	if feedURL == "" {
		return nil, fmt.Errorf("%w: url", domain.ErrMissingParameter)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	entries, err := c.fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var items []domain.SyncItem
	for _, entry := range entries {
		link := strings.TrimSpace(entry.Link)
		if link == "" {
			continue
		}
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			title = link
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(title), query) &&
			!strings.Contains(strings.ToLower(link), query) {
			continue
		}
		item := domain.NewSyncItem(link, title)
		if entry.PubDate != "" {
			item.Metadata["pubDate"] = entry.PubDate
		}
		items = append(items, item)
	}
	return paginate(items, 0, pageSize), nil
}

func (c *Connector) fetch(ctx context.Context, feedURL string) ([]feedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: status %d", feedURL, resp.StatusCode)
	}

	var doc feed
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return doc.Channel.Items, nil
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

// GetLink implements driven.LinkProvider: the entry URL is the link.
func (c *Connector) GetLink(_ context.Context, item domain.SyncItem) (*domain.Link, error) {
	return &domain.Link{URI: item.OriginalID}, nil
}
