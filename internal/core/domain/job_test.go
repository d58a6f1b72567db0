package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJob(items ...SyncItem) SyncJob {
	return SyncJob{
		ID:          "job-1",
		Date:        time.Now(),
		Source:      "folder",
		Destination: JobDestination{ID: "nucliacloud", Params: ConnectorParameters{"kb": "docs"}},
		Files:       items,
	}
}

func TestSyncJob_State(t *testing.T) {
	job := testJob(NewSyncItem("a", "a.txt"))
	assert.Equal(t, JobPending, job.State())

	now := time.Now()
	job.Started = &now
	assert.Equal(t, JobActive, job.State())

	job.Completed = &now
	assert.Equal(t, JobCompleted, job.State())
}

func TestSyncJob_Progress(t *testing.T) {
	a := NewSyncItem("a", "a.txt")
	b := NewSyncItem("b", "b.txt")
	c := NewSyncItem("c", "c.txt")
	d := NewSyncItem("d", "d.txt")
	require.NoError(t, a.Advance(StatusProcessed))
	require.NoError(t, a.Advance(StatusUploaded))
	require.NoError(t, b.MarkError(assert.AnError))

	job := testJob(a, b, c, d)
	assert.InDelta(t, 25.0, job.Progress(), 0.001)

	t.Run("empty job has zero progress", func(t *testing.T) {
		empty := testJob()
		assert.Zero(t, empty.Progress())
	})
}

func TestSyncJob_AllTerminal(t *testing.T) {
	a := NewSyncItem("a", "a.txt")
	b := NewSyncItem("b", "b.txt")
	require.NoError(t, a.Advance(StatusProcessed))
	require.NoError(t, a.Advance(StatusUploaded))

	job := testJob(a, b)
	assert.False(t, job.AllTerminal(), "a pending item keeps the job open")

	require.NoError(t, job.Files[1].MarkError(assert.AnError))
	assert.True(t, job.AllTerminal(), "errored items still count as terminal")
}

func TestSyncJob_Errors(t *testing.T) {
	a := NewSyncItem("a", "a.txt")
	b := NewSyncItem("b", "b.txt")
	require.NoError(t, b.MarkError(assert.AnError))

	job := testJob(a, b)
	assert.Contains(t, job.Errors(), "b.txt")

	clean := testJob(a)
	assert.Empty(t, clean.Errors())
}
