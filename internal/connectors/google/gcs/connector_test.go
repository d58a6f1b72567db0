package gcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/storage/v1"

	"github.com/nuclia/sync-agent/internal/connectors/google"
	"github.com/nuclia/sync-agent/internal/core/domain"
)

func listed(names ...string) []*storage.Object {
	out := make([]*storage.Object, 0, len(names))
	for _, name := range names {
		out = append(out, &storage.Object{
			Name:        name,
			MediaLink:   "https://storage.example/" + name,
			ContentType: "text/plain",
		})
	}
	return out
}

func TestToItems(t *testing.T) {
	t.Run("no query keeps every object", func(t *testing.T) {
		items := toItems(listed("docs/report.pdf", "notes.txt"), "")
		require.Len(t, items, 2)
		assert.Equal(t, "docs/report.pdf", items[0].OriginalID)
		assert.Equal(t, "report.pdf", items[0].Title)
		assert.Equal(t, domain.StatusPending, items[0].Status)
	})

	t.Run("query matches case-insensitively on the name", func(t *testing.T) {
		items := toItems(listed("docs/Report.PDF", "notes.txt", "img.png"), "pdf")
		require.Len(t, items, 1)
		assert.Equal(t, "docs/Report.PDF", items[0].OriginalID)
	})

	t.Run("folder placeholders are skipped", func(t *testing.T) {
		items := toItems(listed("docs/", "docs/a.txt"), "")
		require.Len(t, items, 1)
		assert.Equal(t, "docs/a.txt", items[0].OriginalID)
	})

	t.Run("items carry the media link and content type", func(t *testing.T) {
		items := toItems(listed("notes.txt"), "")
		require.Len(t, items, 1)
		assert.Equal(t, "https://storage.example/notes.txt", items[0].Metadata["mediaLink"])
		assert.Equal(t, "text/plain", items[0].Metadata["contentType"])
	})
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "report.pdf", lastSegment("docs/2024/report.pdf"))
	assert.Equal(t, "notes.txt", lastSegment("notes.txt"))
	assert.Equal(t, "", lastSegment("docs/"))
}

func TestOAuthConfig(t *testing.T) {
	cfg := oauthConfig(domain.ConnectorParameters{
		"client_id":     "client-1",
		"client_secret": "secret-1",
	})

	assert.Equal(t, google.AuthURL, cfg.AuthURL)
	assert.Equal(t, google.TokenURL, cfg.TokenURL)
	assert.Equal(t, "client-1", cfg.ClientID)
	assert.Equal(t, "secret-1", cfg.ClientSecret)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/devstorage.read_only"}, cfg.Scopes)
	assert.True(t, cfg.UsePKCE)
}

func TestGetLinkNeedsMediaLink(t *testing.T) {
	c := New(nil)
	item := domain.NewSyncItem("docs/a.txt", "a.txt")

	_, err := c.GetLink(context.Background(), item)
	assert.ErrorIs(t, err, domain.ErrNotSupported)
}
