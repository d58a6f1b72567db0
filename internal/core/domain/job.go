package domain

import (
	"strings"
	"time"
)

// JobState is the derived lifecycle state of a sync job.
type JobState string

const (
	// JobPending marks a job created but not yet started.
	JobPending JobState = "pending"
	// JobActive marks a job whose transfer has started and not completed.
	JobActive JobState = "active"
	// JobCompleted marks a job whose every item reached a terminal state.
	JobCompleted JobState = "completed"
)

// JobDestination identifies where a job's items are written.
type JobDestination struct {
	ID     string              `json:"id"`
	Params ConnectorParameters `json:"params"`
}

// SyncJob is a batch of selected items moving from one source to one
// destination, tracked as a unit of progress. Once Completed is set the job
// is immutable except for the status fields inside Files.
type SyncJob struct {
	ID          string         `json:"id"`
	Date        time.Time      `json:"date"`
	Source      string         `json:"source"`
	Destination JobDestination `json:"destination"`
	Files       []SyncItem     `json:"files"`

	// Started and Completed are set by the transfer pipeline, never by the
	// caller that enqueued the job.
	Started   *time.Time `json:"started,omitempty"`
	Completed *time.Time `json:"completed,omitempty"`
}

// State derives the job's lifecycle state from its timestamps.
func (j *SyncJob) State() JobState {
	switch {
	case j.Completed != nil:
		return JobCompleted
	case j.Started != nil:
		return JobActive
	default:
		return JobPending
	}
}

// Progress is the aggregate percentage of uploaded items.
func (j *SyncJob) Progress() float64 {
	if len(j.Files) == 0 {
		return 0
	}
	uploaded := 0
	for _, f := range j.Files {
		if f.Status == StatusUploaded {
			uploaded++
		}
	}
	return float64(uploaded) / float64(len(j.Files)) * 100
}

// AllTerminal reports whether every item reached a terminal state. The job
// stays active until this holds; partial completion is normal.
func (j *SyncJob) AllTerminal() bool {
	for _, f := range j.Files {
		if !f.Status.Terminal() {
			return false
		}
	}
	return true
}

// Errors joins the per-item failure messages, empty when nothing failed.
func (j *SyncJob) Errors() string {
	var msgs []string
	for _, f := range j.Files {
		if f.Status == StatusError && f.Error != "" {
			msgs = append(msgs, f.Title+": "+f.Error)
		}
	}
	return strings.Join(msgs, "; ")
}
