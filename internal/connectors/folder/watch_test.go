package folder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuclia/sync-agent/internal/core/domain"
)

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	c := New()
	require.NoError(t, c.ApplyParameters(domain.ConnectorParameters{"path": dir}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := c.Watch(ctx)
	require.NoError(t, err)

	created := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(created, []byte("v1"), 0o600))
	assert.Equal(t, created, nextChange(t, changes))

	// Writing to an existing file is a change too.
	require.NoError(t, os.WriteFile(created, []byte("v2"), 0o600))
	assert.Equal(t, created, nextChange(t, changes))

	// Cancelling the context ends the stream.
	cancel()
	requireClosed(t, changes)
}

func TestWatchIgnoresArtifacts(t *testing.T) {
	dir := t.TempDir()
	c := New()
	require.NoError(t, c.ApplyParameters(domain.ConnectorParameters{"path": dir}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := c.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("x"), 0o600))
	wanted := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(wanted, []byte("x"), 0o600))

	// The artifact never surfaces; the first event is the real file.
	assert.Equal(t, wanted, nextChange(t, changes))
}

func TestWatchRequiresPath(t *testing.T) {
	_, err := New().Watch(context.Background())
	assert.ErrorIs(t, err, domain.ErrMissingParameter)
}

func nextChange(t *testing.T, changes <-chan string) string {
	t.Helper()
	select {
	case path, ok := <-changes:
		if !ok {
			t.Fatal("watch channel closed before an event arrived")
		}
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a change event")
	}
	return ""
}

func requireClosed(t *testing.T, changes <-chan string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch channel did not close after cancellation")
		}
	}
}
