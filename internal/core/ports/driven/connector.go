package driven

import (
	"context"
	"io"

	"github.com/nuclia/sync-agent/internal/core/domain"
)

// SourceConnector lists and supplies content out of one external provider.
// Each provider (folder, s3, gcs, gdrive, dropbox, onedrive, sitemap, ...)
// implements this interface.
type SourceConnector interface {
	// Parameters returns the configuration inputs required before use.
	// Static for most providers, provider-queried for those enumerating
	// zones or targets.
	Parameters(ctx context.Context) ([]domain.Field, error)

	// ApplyParameters persists and applies submitted values, e.g. storing
	// an API token or constructing an authenticated client. Values must
	// have passed domain.ValidateParams against Parameters.
	ApplyParameters(params domain.ConnectorParameters) error

	// ParameterValues returns the currently stored values, used to pre-fill
	// forms and to resume a previously configured connector.
	ParameterValues() domain.ConnectorParameters

	// GoToOAuth opens the provider's external authorization page for
	// connectors requiring it; reset clears any stored token first.
	// A no-op for connectors using direct credentials.
	GoToOAuth(ctx context.Context, reset bool) error

	// Authenticate emits true once the connector holds a usable credential.
	// For OAuth connectors this resolves asynchronously after the external
	// redirect returns. The channel is closed after the first value.
	Authenticate(ctx context.Context) <-chan bool

	// GetFiles returns the first page of items matching an optional
	// free-text query, in provider-native order. Callers needing full
	// result sets must follow NextPage until nil. pageSize <= 0 selects
	// the provider default.
	GetFiles(ctx context.Context, query string, pageSize int) (*domain.SearchResults, error)

	// Download fetches the raw content of one item. Fails with
	// domain.ErrItemNotFound (wrapped) when the item no longer exists, and
	// domain.ErrNotSupported for link-only providers.
	Download(ctx context.Context, item domain.SyncItem) (io.ReadCloser, error)
}

// LinkProvider is an optional source capability: providers supporting
// direct, credential-bearing URLs expose them here so the pipeline can
// skip the local download/re-upload round trip.
type LinkProvider interface {
	GetLink(ctx context.Context, item domain.SyncItem) (*domain.Link, error)
}

// Watcher is an optional source capability for permanent sync: the
// connector pushes an event each time the underlying store changes.
type Watcher interface {
	// Watch emits the provider-native identifiers of changed items until
	// the context is cancelled.
	Watch(ctx context.Context) (<-chan string, error)
}

// DestinationConnector accepts content to be written into a target store.
type DestinationConnector interface {
	// Init resolves and caches a handle to the concrete target (e.g. a
	// specific knowledge box) from user-chosen settings. Errors when the
	// target cannot be resolved.
	Init(ctx context.Context, settings domain.ConnectorParameters) error

	// Parameters typically returns a single field enumerating selectable
	// targets.
	Parameters(ctx context.Context) ([]domain.Field, error)

	// Authenticate reports whether the connector can write. Always true
	// for connectors using the caller's ambient credentials.
	Authenticate(ctx context.Context) (bool, error)

	// Upload writes content under filename and returns the identifier the
	// destination assigned to the created resource, empty when the
	// destination does not report one. Safe to call concurrently with
	// different filenames.
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

// LinkUploader is an optional destination capability accepting a direct
// link instead of blob content. Like Upload, it returns the identifier of
// the created resource.
type LinkUploader interface {
	UploadLink(ctx context.Context, filename string, link domain.Link) (string, error)
}
