package domain

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainedPages builds n pages of pageSize items each, linked by lazy
// continuations, counting how often each continuation is invoked.
func chainedPages(n, pageSize int, calls *int) *SearchResults {
	var build func(page int) *SearchResults
	build = func(page int) *SearchResults {
		items := make([]SyncItem, 0, pageSize)
		for i := 0; i < pageSize; i++ {
			id := fmt.Sprintf("item-%d-%d", page, i)
			items = append(items, NewSyncItem(id, id+".txt"))
		}
		res := &SearchResults{Items: items}
		if page < n-1 {
			res.NextPage = func(context.Context) (*SearchResults, error) {
				*calls++
				return build(page + 1), nil
			}
		}
		return res
	}
	return build(0)
}

func TestSearchResults_Collect(t *testing.T) {
	t.Run("walks the whole continuation chain", func(t *testing.T) {
		calls := 0
		first := chainedPages(3, 2, &calls)

		items, err := first.Collect(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, items, 6)
		assert.Equal(t, 2, calls)

		// Items are unique across pages for a stable listing session.
		seen := make(map[string]bool)
		for _, item := range items {
			assert.False(t, seen[item.OriginalID], "duplicate originalId %s", item.OriginalID)
			seen[item.OriginalID] = true
		}
	})

	t.Run("stops at the max bound without fetching further pages", func(t *testing.T) {
		calls := 0
		first := chainedPages(5, 2, &calls)

		items, err := first.Collect(context.Background(), 3)
		require.NoError(t, err)
		assert.Len(t, items, 3)
		assert.Equal(t, 1, calls, "pages past the bound must not be fetched")
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		first := &SearchResults{Items: []SyncItem{NewSyncItem("a", "a")}}
		_, err := first.Collect(ctx, 0)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("single page needs no continuation", func(t *testing.T) {
		first := &SearchResults{Items: []SyncItem{NewSyncItem("a", "a")}}
		items, err := first.Collect(context.Background(), 0)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}
