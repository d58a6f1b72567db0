package domain

import "context"

// PageFunc is a lazy, deferred computation yielding the next page of a
// listing. Providers do not guarantee idempotent exhaustion, so a PageFunc
// must not be invoked twice and callers must not call past a nil NextPage.
type PageFunc func(ctx context.Context) (*SearchResults, error)

// SearchResults is one page of a paginated listing.
type SearchResults struct {
	// Items are the entries of this page, in provider-native order.
	// There is no cross-provider ordering guarantee.
	Items []SyncItem

	// NextPage yields the following page, or is nil when the listing is
	// exhausted.
	NextPage PageFunc
}

// Collect walks the continuation chain starting at r and returns the union
// of all items, stopping early once max items were gathered (0 means no
// bound) or the context is cancelled.
func (r *SearchResults) Collect(ctx context.Context, max int) ([]SyncItem, error) {
	var items []SyncItem
	page := r
	for page != nil {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		items = append(items, page.Items...)
		if max > 0 && len(items) >= max {
			return items[:max], nil
		}
		if page.NextPage == nil {
			break
		}
		next, err := page.NextPage(ctx)
		if err != nil {
			return items, err
		}
		page = next
	}
	return items, nil
}
