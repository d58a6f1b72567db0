// Package dynamic adapts externally supplied connector plugins to the
// source contract. Plugins are loosely typed: their functions return
// untyped values that are validated and normalized here, so a misbehaving
// plugin surfaces as a contract error instead of corrupting a sync run.
package dynamic

import (
	"context"
	"fmt"
	"io"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/core/services"
)

// PageFunc is a plugin-supplied continuation yielding the next page of
// items in the same loose shape GetFiles returns.
type PageFunc func(ctx context.Context) (any, error)

// Plugin is the loosely-typed surface an external connector provides.
// Each function returns plain data (maps and slices) that the adapter
// validates against the connector contract.
type Plugin struct {
	// ID is the stable connector identifier the plugin registers under.
	ID string
	// Title is the human-readable provider name.
	Title string
	// Description is a one-line summary shown in selection lists.
	Description string

	// Parameters returns the plugin's configuration fields as a slice of
	// maps carrying at least "id", "label" and "type".
	Parameters func(ctx context.Context) (any, error)

	// GetFiles returns one page of items: either a plain slice of maps
	// carrying at least "title" and "originalId", or a map with "items"
	// and an optional "nextPage" PageFunc continuation.
	GetFiles func(ctx context.Context, query string, pageSize int) (any, error)

	// Download fetches the raw content of one item by its original
	// identifier. Optional; link-only plugins may leave it nil.
	Download func(ctx context.Context, originalID string) (io.ReadCloser, error)

	// GetLink returns a direct link for one item as a map carrying "uri"
	// and optionally "extra_headers". Optional; when set, the connector
	// exposes the link capability.
	GetLink func(ctx context.Context, originalID string) (any, error)
}

// Connector wraps one plugin behind the source contract.
type Connector struct {
	plugin Plugin
	params domain.ConnectorParameters
}

var _ driven.SourceConnector = (*Connector)(nil)
var _ driven.LinkProvider = (*linkConnector)(nil)

// linkConnector is the shape handed out for plugins that provide GetLink,
// so the link capability is visible only when the plugin actually has it.
type linkConnector struct {
	*Connector
}

// New wraps a plugin. The plugin must at least provide Parameters and
// GetFiles.
func New(plugin Plugin) (driven.SourceConnector, error) {
	if plugin.ID == "" {
		return nil, fmt.Errorf("%w: plugin has no id", domain.ErrPluginContract)
	}
	if plugin.Parameters == nil || plugin.GetFiles == nil {
		return nil, fmt.Errorf("%w: plugin %s must provide Parameters and GetFiles", domain.ErrPluginContract, plugin.ID)
	}
	c := &Connector{plugin: plugin, params: domain.ConnectorParameters{}}
	if plugin.GetLink != nil {
		return &linkConnector{Connector: c}, nil
	}
	return c, nil
}

// Definition describes the wrapped plugin for registration.
func Definition(plugin Plugin) services.SourceDefinition {
	return services.SourceDefinition{
		ConnectorDefinition: domain.ConnectorDefinition{
			ID:          plugin.ID,
			Title:       plugin.Title,
			Description: plugin.Description,
		},
		Factory: func(ctx context.Context) (driven.SourceConnector, error) {
			return New(plugin)
		},
	}
}

// Parameters implements driven.SourceConnector, validating the plugin's
// field declarations before handing them to callers.
func (c *Connector) Parameters(ctx context.Context) ([]domain.Field, error) {
	raw, err := c.plugin.Parameters(ctx)
	if err != nil {
		return nil, fmt.Errorf("plugin %s parameters: %w", c.plugin.ID, err)
	}
	entries, ok := raw.([]map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: plugin %s parameters returned %T, want []map[string]any",
			domain.ErrPluginContract, c.plugin.ID, raw)
	}

	fields := make([]domain.Field, 0, len(entries))
	for i, entry := range entries {
		field, err := toField(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: plugin %s field %d: %v", domain.ErrPluginContract, c.plugin.ID, i, err)
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func toField(entry map[string]any) (domain.Field, error) {
	id, err := stringKey(entry, "id")
	if err != nil {
		return domain.Field{}, err
	}
	label, err := stringKey(entry, "label")
	if err != nil {
		return domain.Field{}, err
	}
	kind, err := stringKey(entry, "type")
	if err != nil {
		return domain.Field{}, err
	}
	switch domain.FieldType(kind) {
	case domain.FieldText, domain.FieldSelect, domain.FieldFolder, domain.FieldTextarea:
	default:
		return domain.Field{}, fmt.Errorf("unknown field type %q", kind)
	}

	field := domain.Field{ID: id, Label: label, Type: domain.FieldType(kind)}
	if required, ok := entry["required"].(bool); ok {
		field.Required = required
	}
	if pattern, ok := entry["pattern"].(string); ok {
		field.Pattern = pattern
	}
	return field, nil
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

// GoToOAuth is a no-op: plugins manage their own credentials.
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

// GetFiles implements driven.SourceConnector. Whatever lifecycle state the
// plugin claims for an item is discarded: listed items always enter the
// pipeline pending, with a fresh metadata map. Continuations the plugin
// hands back go through the same validation on every page.
func (c *Connector) GetFiles(ctx context.Context, query string, pageSize int) (*domain.SearchResults, error) {
	raw, err := c.plugin.GetFiles(ctx, query, pageSize)
	if err != nil {
		return nil, fmt.Errorf("plugin %s files: %w", c.plugin.ID, err)
	}
	return c.toSearchResults(raw)
}

// toSearchResults validates one loose page. Plugins may return a plain
// item slice or a map wrapping the slice with a "nextPage" continuation.
func (c *Connector) toSearchResults(raw any) (*domain.SearchResults, error) {
	var entries []map[string]any
	var next PageFunc

	switch page := raw.(type) {
	case []map[string]any:
		entries = page
	case map[string]any:
		var ok bool
		entries, ok = page["items"].([]map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: plugin %s page has no items slice",
				domain.ErrPluginContract, c.plugin.ID)
		}
		if rawNext, present := page["nextPage"]; present && rawNext != nil {
			next, ok = rawNext.(PageFunc)
			if !ok {
				return nil, fmt.Errorf("%w: plugin %s nextPage is %T, want dynamic.PageFunc",
					domain.ErrPluginContract, c.plugin.ID, rawNext)
			}
		}
	default:
		return nil, fmt.Errorf("%w: plugin %s files returned %T, want []map[string]any or a page map",
			domain.ErrPluginContract, c.plugin.ID, raw)
	}

	items := make([]domain.SyncItem, 0, len(entries))
	for i, entry := range entries {
		originalID, err := stringKey(entry, "originalId")
		if err != nil {
			return nil, fmt.Errorf("%w: plugin %s item %d: %v", domain.ErrPluginContract, c.plugin.ID, i, err)
		}
		title, err := stringKey(entry, "title")
		if err != nil {
			return nil, fmt.Errorf("%w: plugin %s item %d: %v", domain.ErrPluginContract, c.plugin.ID, i, err)
		}
		item := domain.NewSyncItem(originalID, title)
		if uuid, ok := entry["uuid"].(string); ok {
			item.UUID = uuid
		}
		items = append(items, item)
	}

	results := &domain.SearchResults{Items: items}
	if next != nil {
		results.NextPage = func(ctx context.Context) (*domain.SearchResults, error) {
			raw, err := next(ctx)
			if err != nil {
				return nil, fmt.Errorf("plugin %s next page: %w", c.plugin.ID, err)
			}
			return c.toSearchResults(raw)
		}
	}
	return results, nil
}

// Download implements driven.SourceConnector.
func (c *Connector) Download(ctx context.Context, item domain.SyncItem) (io.ReadCloser, error) {
	if c.plugin.Download == nil {
		return nil, fmt.Errorf("%w: plugin %s cannot download", domain.ErrNotSupported, c.plugin.ID)
	}
	rc, err := c.plugin.Download(ctx, item.OriginalID)
	if err != nil {
		return nil, fmt.Errorf("plugin %s download %s: %w", c.plugin.ID, item.OriginalID, err)
	}
	if rc == nil {
		return nil, fmt.Errorf("%w: plugin %s returned no content for %s",
			domain.ErrPluginContract, c.plugin.ID, item.OriginalID)
	}
	return rc, nil
}

// GetLink implements driven.LinkProvider, normalizing the plugin's loose
// link map. A link needs a non-empty uri; extra headers default to empty.
func (c *linkConnector) GetLink(ctx context.Context, item domain.SyncItem) (*domain.Link, error) {
	raw, err := c.plugin.GetLink(ctx, item.OriginalID)
	if err != nil {
		return nil, fmt.Errorf("plugin %s link %s: %w", c.plugin.ID, item.OriginalID, err)
	}
	entry, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: plugin %s link returned %T, want map[string]any",
			domain.ErrPluginContract, c.plugin.ID, raw)
	}
	uri, err := stringKey(entry, "uri")
	if err != nil {
		return nil, fmt.Errorf("%w: plugin %s link for %s: %v",
			domain.ErrPluginContract, c.plugin.ID, item.OriginalID, err)
	}
	headers := map[string]string{}
	if hs, ok := entry["extra_headers"].(map[string]string); ok {
		headers = hs
	}
	return &domain.Link{URI: uri, ExtraHeaders: headers}, nil
}

func stringKey(entry map[string]any, key string) (string, error) {
	value, ok := entry[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("missing %q", key)
	}
	return value, nil
}
