package sitemap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuclia/sync-agent/internal/core/domain"
)

const sampleSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>https://example.com/blog/first-post</loc>
    <lastmod>2024-03-01</lastmod>
  </url>
  <url>
    <loc>https://example.com/blog/second-post</loc>
  </url>
  <url>
    <loc>https://example.com/pricing</loc>
  </url>
</urlset>`

func serveSitemap(t *testing.T, body string) *Connector {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	c := New()
	require.NoError(t, c.ApplyParameters(domain.ConnectorParameters{"sitemap": server.URL + "/sitemap.xml"}))
	return c
}

func TestGetFilesParsesSitemap(t *testing.T) {
	c := serveSitemap(t, sampleSitemap)

	page, err := c.GetFiles(context.Background(), "", 0)
	require.NoError(t, err)

	items, err := page.Collect(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "https://example.com/blog/first-post", items[0].OriginalID)
	assert.Equal(t, "first-post", items[0].Title)
	assert.Equal(t, "2024-03-01", items[0].Metadata["lastmod"])
	assert.Equal(t, domain.StatusPending, items[0].Status)
}

func TestGetFilesFiltersByQuery(t *testing.T) {
	c := serveSitemap(t, sampleSitemap)

	page, err := c.GetFiles(context.Background(), "BLOG", 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
}

func TestGetFilesPaginates(t *testing.T) {
	c := serveSitemap(t, sampleSitemap)

	page, err := c.GetFiles(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotNil(t, page.NextPage)

	next, err := page.NextPage(context.Background())
	require.NoError(t, err)
	assert.Len(t, next.Items, 1)
	assert.Nil(t, next.NextPage)
}

func TestSitemapURLPattern(t *testing.T) {
	c := New()
	fields, err := c.Parameters(context.Background())
	require.NoError(t, err)

	ok := domain.ConnectorParameters{"sitemap": "https://example.com/sitemap.xml"}
	assert.NoError(t, domain.ValidateParams(fields, ok))

	handler := domain.ConnectorParameters{"sitemap": "https://example.com/sitemap.ashx"}
	assert.NoError(t, domain.ValidateParams(fields, handler))

	bad := domain.ConnectorParameters{"sitemap": "https://example.com/page.html"}
	assert.ErrorIs(t, domain.ValidateParams(fields, bad), domain.ErrInvalidInput)
}

func TestDownloadFetchesPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/page" {
			_, _ = w.Write([]byte("<html>body</html>"))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := New()

	t.Run("existing page", func(t *testing.T) {
		body, err := c.Download(context.Background(), domain.NewSyncItem(server.URL+"/page", "page"))
		require.NoError(t, err)
		defer body.Close()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "<html>body</html>", string(data))
	})

	t.Run("removed page", func(t *testing.T) {
		_, err := c.Download(context.Background(), domain.NewSyncItem(server.URL+"/gone", "gone"))
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})
}

func TestGetLinkReturnsPageURL(t *testing.T) {
	c := New()
	link, err := c.GetLink(context.Background(), domain.NewSyncItem("https://example.com/a", "a"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", link.URI)
}
