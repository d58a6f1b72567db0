package onedrive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuclia/sync-agent/internal/core/domain"
)

func TestListItems(t *testing.T) {
	t.Run("files become pending items, folders are skipped", func(t *testing.T) {
		payload := `{
			"value": [
				{"id": "item-1", "name": "report.pdf"},
				{"id": "item-2", "name": "docs", "folder": {"childCount": 3}},
				{"id": "item-3", "name": "notes.txt"}
			]
		}`
		var list driveItemList
		require.NoError(t, json.Unmarshal([]byte(payload), &list))

		items := listItems(list)
		require.Len(t, items, 2)
		assert.Equal(t, "item-1", items[0].OriginalID)
		assert.Equal(t, "report.pdf", items[0].Title)
		assert.Equal(t, domain.StatusPending, items[0].Status)
		assert.Equal(t, "item-3", items[1].OriginalID)
	})

	t.Run("empty listing yields no items", func(t *testing.T) {
		assert.Empty(t, listItems(driveItemList{}))
	})
}

func TestOAuthConfig(t *testing.T) {
	cfg := oauthConfig(domain.ConnectorParameters{"client_id": "app-1"})

	assert.Equal(t, authURL, cfg.AuthURL)
	assert.Equal(t, "app-1", cfg.ClientID)
	assert.Equal(t, []string{"Files.Read.All"}, cfg.Scopes)
	assert.True(t, cfg.Implicit, "consumer Graph tokens arrive in the redirect fragment")
	assert.Empty(t, cfg.TokenURL)
}
