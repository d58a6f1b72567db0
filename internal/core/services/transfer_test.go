package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
)

// fakeSource serves fixed content keyed by original id.
type fakeSource struct {
	mu       sync.Mutex
	contents map[string]string
	failing  map[string]bool
}

var _ driven.SourceConnector = (*fakeSource)(nil)

func newFakeSource(contents map[string]string) *fakeSource {
	return &fakeSource{contents: contents, failing: make(map[string]bool)}
}

func (s *fakeSource) Parameters(_ context.Context) ([]domain.Field, error) {
	return nil, nil
}

func (s *fakeSource) ApplyParameters(_ domain.ConnectorParameters) error { return nil }

func (s *fakeSource) ParameterValues() domain.ConnectorParameters { return nil }

func (s *fakeSource) GoToOAuth(_ context.Context, _ bool) error { return nil }

func (s *fakeSource) Authenticate(_ context.Context) <-chan bool {
	ch := make(chan bool, 1)
	ch <- true
	close(ch)
	return ch
}

func (s *fakeSource) GetFiles(_ context.Context, _ string, _ int) (*domain.SearchResults, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []domain.SyncItem
	for id := range s.contents {
		items = append(items, domain.NewSyncItem(id, id))
	}
	return &domain.SearchResults{Items: items}, nil
}

func (s *fakeSource) Download(_ context.Context, item domain.SyncItem) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[item.OriginalID] {
		return nil, errors.New("source unavailable")
	}
	content, ok := s.contents[item.OriginalID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (s *fakeSource) setFailing(id string, failing bool) {
	s.mu.Lock()
	s.failing[id] = failing
	s.mu.Unlock()
}

// fakeDest records uploads.
type fakeDest struct {
	mu       sync.Mutex
	settings domain.ConnectorParameters
	uploads  map[string]string
}

var _ driven.DestinationConnector = (*fakeDest)(nil)

func newFakeDest() *fakeDest {
	return &fakeDest{uploads: make(map[string]string)}
}

func (d *fakeDest) Init(_ context.Context, settings domain.ConnectorParameters) error {
	d.mu.Lock()
	d.settings = settings
	d.mu.Unlock()
	return nil
}

func (d *fakeDest) Parameters(_ context.Context) ([]domain.Field, error) { return nil, nil }

func (d *fakeDest) Authenticate(_ context.Context) (bool, error) { return true, nil }

func (d *fakeDest) Upload(_ context.Context, filename string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	d.uploads[filename] = string(data)
	d.mu.Unlock()
	return "res-" + filename, nil
}

func (d *fakeDest) uploaded(filename string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	content, ok := d.uploads[filename]
	return content, ok
}

// linkSource exposes direct links instead of content.
type linkSource struct {
	fakeSource
	links map[string]domain.Link
}

func (s *linkSource) GetLink(_ context.Context, item domain.SyncItem) (*domain.Link, error) {
	link, ok := s.links[item.OriginalID]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &link, nil
}

// linkDest accepts links instead of blobs.
type linkDest struct {
	fakeDest
	mu    sync.Mutex
	links map[string]domain.Link
}

func (d *linkDest) UploadLink(_ context.Context, filename string, link domain.Link) (string, error) {
	d.mu.Lock()
	if d.links == nil {
		d.links = make(map[string]domain.Link)
	}
	d.links[filename] = link
	d.mu.Unlock()
	return "res-" + filename, nil
}

// newTestEngine wires a service over in-memory fakes.
func newTestEngine(t *testing.T, source driven.SourceConnector, dest driven.DestinationConnector) (*Service, *Queue) {
	t.Helper()
	queue, err := NewQueue(context.Background(), newFakeJobStore())
	require.NoError(t, err)

	svc := NewService(queue, nil)
	svc.RegisterSource(SourceDefinition{
		ConnectorDefinition: domain.ConnectorDefinition{ID: "fake", Title: "Fake"},
		Factory: func(_ context.Context) (driven.SourceConnector, error) {
			return source, nil
		},
	})
	svc.RegisterDestination(DestinationDefinition{
		ConnectorDefinition: domain.ConnectorDefinition{ID: "sink", Title: "Sink"},
		Factory: func(_ context.Context) (driven.DestinationConnector, error) {
			return dest, nil
		},
	})
	return svc, queue
}

func TestRunJob(t *testing.T) {
	ctx := context.Background()

	t.Run("transfers a selection end to end", func(t *testing.T) {
		source := newFakeSource(map[string]string{
			"a.txt": "alpha", "b.txt": "beta", "c.txt": "gamma",
			"d.txt": "delta", "e.txt": "epsilon",
		})
		dest := newFakeDest()
		svc, queue := newTestEngine(t, source, dest)

		var completed []domain.SyncJob
		svc.OnJobCompleted(func(job domain.SyncJob) {
			completed = append(completed, job)
		})

		// Two of five available items are selected.
		files := []domain.SyncItem{
			domain.NewSyncItem("a.txt", "a.txt"),
			domain.NewSyncItem("c.txt", "c.txt"),
		}
		job, err := queue.Enqueue(ctx, "fake",
			domain.JobDestination{ID: "sink", Params: domain.ConnectorParameters{"kb": "kb-1"}}, files)
		require.NoError(t, err)

		require.NoError(t, svc.RunJob(ctx, job.ID))

		got, err := queue.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobCompleted, got.State())
		require.NotNil(t, got.Started)
		require.NotNil(t, got.Completed)
		assert.InEpsilon(t, 100.0, got.Progress(), 0.01)
		for _, f := range got.Files {
			assert.Equal(t, domain.StatusUploaded, f.Status)
			assert.Equal(t, "res-"+f.Title, f.UUID, "uploaded items carry the destination-assigned id")
		}

		content, ok := dest.uploaded("a.txt")
		require.True(t, ok)
		assert.Equal(t, "alpha", content)
		content, ok = dest.uploaded("c.txt")
		require.True(t, ok)
		assert.Equal(t, "gamma", content)
		_, ok = dest.uploaded("b.txt")
		assert.False(t, ok, "unselected items must not be transferred")

		// Destination saw the job settings.
		assert.Equal(t, "kb-1", dest.settings["kb"])

		require.Len(t, completed, 1)
		assert.Equal(t, job.ID, completed[0].ID)
	})

	t.Run("failed items are marked, not rolled back", func(t *testing.T) {
		source := newFakeSource(map[string]string{"a.txt": "alpha", "b.txt": "beta"})
		source.setFailing("b.txt", true)
		dest := newFakeDest()
		svc, queue := newTestEngine(t, source, dest)

		job, err := queue.Enqueue(ctx, "fake", domain.JobDestination{ID: "sink"},
			[]domain.SyncItem{
				domain.NewSyncItem("a.txt", "a.txt"),
				domain.NewSyncItem("b.txt", "b.txt"),
			})
		require.NoError(t, err)
		require.NoError(t, svc.RunJob(ctx, job.ID))

		got, err := queue.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobCompleted, got.State())
		assert.InEpsilon(t, 50.0, got.Progress(), 0.01)

		byID := map[string]domain.SyncItem{}
		for _, f := range got.Files {
			byID[f.OriginalID] = f
		}
		assert.Equal(t, domain.StatusUploaded, byID["a.txt"].Status)
		assert.Equal(t, domain.StatusError, byID["b.txt"].Status)
		assert.Contains(t, byID["b.txt"].Error, "source unavailable")
		assert.Contains(t, got.Errors(), "b.txt")
	})

	t.Run("completed jobs cannot run again", func(t *testing.T) {
		source := newFakeSource(map[string]string{"a.txt": "alpha"})
		svc, queue := newTestEngine(t, source, newFakeDest())

		job, err := queue.Enqueue(ctx, "fake", domain.JobDestination{ID: "sink"},
			[]domain.SyncItem{domain.NewSyncItem("a.txt", "a.txt")})
		require.NoError(t, err)
		require.NoError(t, svc.RunJob(ctx, job.ID))

		err = svc.RunJob(ctx, job.ID)
		assert.ErrorIs(t, err, domain.ErrJobCompleted)
	})

	t.Run("unknown job", func(t *testing.T) {
		svc, _ := newTestEngine(t, newFakeSource(nil), newFakeDest())
		err := svc.RunJob(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRunJobByLink(t *testing.T) {
	ctx := context.Background()

	source := &linkSource{
		fakeSource: fakeSource{
			contents: map[string]string{"page": "ignored"},
			failing:  map[string]bool{},
		},
		links: map[string]domain.Link{
			"page": {URI: "https://example.com/page", ExtraHeaders: map[string]string{"Authorization": "Bearer t"}},
		},
	}
	dest := &linkDest{fakeDest: fakeDest{uploads: make(map[string]string)}}
	svc, queue := newTestEngine(t, source, dest)

	job, err := queue.Enqueue(ctx, "fake", domain.JobDestination{ID: "sink"},
		[]domain.SyncItem{domain.NewSyncItem("page", "page")})
	require.NoError(t, err)
	require.NoError(t, svc.RunJob(ctx, job.ID))

	got, err := queue.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUploaded, got.Files[0].Status)
	assert.Equal(t, "res-page", got.Files[0].UUID)

	// The link went through; no blob was copied.
	link, ok := dest.links["page"]
	require.True(t, ok)
	assert.Equal(t, "https://example.com/page", link.URI)
	assert.Equal(t, "Bearer t", link.ExtraHeaders["Authorization"])
	_, blob := dest.uploaded("page")
	assert.False(t, blob)
}

func TestRunPending(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource(map[string]string{"a.txt": "alpha", "b.txt": "beta"})
	dest := newFakeDest()
	svc, queue := newTestEngine(t, source, dest)

	first, err := queue.Enqueue(ctx, "fake", domain.JobDestination{ID: "sink"},
		[]domain.SyncItem{domain.NewSyncItem("a.txt", "a.txt")})
	require.NoError(t, err)
	second, err := queue.Enqueue(ctx, "fake", domain.JobDestination{ID: "sink"},
		[]domain.SyncItem{domain.NewSyncItem("b.txt", "b.txt")})
	require.NoError(t, err)

	require.NoError(t, svc.RunPending(ctx))

	for _, id := range []string{first.ID, second.ID} {
		got, err := queue.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.JobCompleted, got.State())
	}
}

func TestRetryFailed(t *testing.T) {
	ctx := context.Background()

	t.Run("reruns only the failed subset", func(t *testing.T) {
		source := newFakeSource(map[string]string{"a.txt": "alpha", "b.txt": "beta"})
		source.setFailing("b.txt", true)
		dest := newFakeDest()
		svc, queue := newTestEngine(t, source, dest)

		job, err := queue.Enqueue(ctx, "fake", domain.JobDestination{ID: "sink"},
			[]domain.SyncItem{
				domain.NewSyncItem("a.txt", "a.txt"),
				domain.NewSyncItem("b.txt", "b.txt"),
			})
		require.NoError(t, err)
		require.NoError(t, svc.RunJob(ctx, job.ID))

		// The source recovers; retry the failed item.
		source.setFailing("b.txt", false)
		require.NoError(t, svc.RetryFailed(ctx, job.ID))

		got, err := queue.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobCompleted, got.State())
		assert.InEpsilon(t, 100.0, got.Progress(), 0.01)

		content, ok := dest.uploaded("b.txt")
		require.True(t, ok)
		assert.Equal(t, "beta", content)
	})

	t.Run("nothing to retry", func(t *testing.T) {
		source := newFakeSource(map[string]string{"a.txt": "alpha"})
		svc, queue := newTestEngine(t, source, newFakeDest())

		job, err := queue.Enqueue(ctx, "fake", domain.JobDestination{ID: "sink"},
			[]domain.SyncItem{domain.NewSyncItem("a.txt", "a.txt")})
		require.NoError(t, err)
		require.NoError(t, svc.RunJob(ctx, job.ID))

		err = svc.RetryFailed(ctx, job.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServiceRegistry(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource(nil)
	svc, _ := newTestEngine(t, source, newFakeDest())

	t.Run("get source caches the instance", func(t *testing.T) {
		first, err := svc.GetSource(ctx, "fake")
		require.NoError(t, err)
		second, err := svc.GetSource(ctx, "fake")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("unknown connectors", func(t *testing.T) {
		_, err := svc.GetSource(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = svc.GetDestination(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("re-registering drops the cached instance", func(t *testing.T) {
		before, err := svc.GetSource(ctx, "fake")
		require.NoError(t, err)

		replacement := newFakeSource(nil)
		svc.RegisterSource(SourceDefinition{
			ConnectorDefinition: domain.ConnectorDefinition{ID: "fake", Title: "Fake"},
			Factory: func(_ context.Context) (driven.SourceConnector, error) {
				return replacement, nil
			},
		})

		after, err := svc.GetSource(ctx, "fake")
		require.NoError(t, err)
		assert.NotSame(t, before, after)
	})
}
