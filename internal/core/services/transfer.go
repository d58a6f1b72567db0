package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
	"github.com/nuclia/sync-agent/internal/logger"
)

// RunPending executes every job that is neither started nor completed.
// Jobs are independent; one failing job does not stop the others.
func (s *Service) RunPending(ctx context.Context) error {
	pending, err := s.queue.ByState(ctx, domain.JobPending)
	if err != nil {
		return err
	}
	for _, job := range pending {
		if err := s.RunJob(ctx, job.ID); err != nil {
			logger.Error("Job %s failed: %v", job.ID, err)
		}
	}
	return nil
}

// RunJob executes the transfer pipeline for one job: every pending item is
// fetched from the source and written to the destination, independently
// and without ordering guarantees. Concurrency is capped by the worker
// pool; failures mark the item and never roll the job back. The job
// completes once every item is terminal.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	job, err := s.queue.Get(ctx, jobID)
	if err != nil {
		return err
	}
	switch job.State() {
	case domain.JobCompleted:
		return fmt.Errorf("%w: %s", domain.ErrJobCompleted, jobID)
	case domain.JobActive:
		return fmt.Errorf("%w: %s", domain.ErrJobActive, jobID)
	}

	source, err := s.GetSource(ctx, job.Source)
	if err != nil {
		return err
	}
	dest, err := s.GetDestination(ctx, job.Destination.ID)
	if err != nil {
		return err
	}
	if err := dest.Init(ctx, job.Destination.Params); err != nil {
		return fmt.Errorf("init destination %s: %w", job.Destination.ID, err)
	}
	if ok, err := dest.Authenticate(ctx); err != nil || !ok {
		if err == nil {
			err = domain.ErrAuthRequired
		}
		return fmt.Errorf("authenticate destination %s: %w", job.Destination.ID, err)
	}

	job, err = s.queue.mutate(ctx, jobID, func(j *domain.SyncJob) error {
		now := time.Now().UTC()
		j.Started = &now
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("Job %s started: %d items from %s to %s",
		jobID, len(job.Files), job.Source, job.Destination.ID)

	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup
	for idx := range job.Files {
		if job.Files[idx].Status != domain.StatusPending {
			continue
		}
		wg.Add(1)
		go func(idx int, item domain.SyncItem) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)
			s.transferItem(ctx, jobID, idx, item, source, dest)
		}(idx, job.Files[idx])
	}
	wg.Wait()

	job, err = s.queue.mutate(ctx, jobID, func(j *domain.SyncJob) error {
		if j.AllTerminal() {
			now := time.Now().UTC()
			j.Completed = &now
		}
		return nil
	})
	if err != nil {
		return err
	}
	if job.State() == domain.JobCompleted {
		logger.Info("Job %s completed: %.0f%% uploaded", jobID, job.Progress())
		s.notifyCompleted(*job)
	}
	return nil
}

// transferItem moves one item. Providers exposing direct links skip the
// local round trip when the destination accepts links; everything else is
// download then upload. Failures are recorded on the item.
func (s *Service) transferItem(
	ctx context.Context, jobID string, idx int, item domain.SyncItem,
	source driven.SourceConnector, dest driven.DestinationConnector,
) {
	linkSource, hasLinks := source.(driven.LinkProvider)
	linkDest, takesLinks := dest.(driven.LinkUploader)

	var err error
	if hasLinks && takesLinks {
		err = s.transferByLink(ctx, jobID, idx, item, linkSource, linkDest)
	} else {
		err = s.transferByBlob(ctx, jobID, idx, item, source, dest)
	}
	if err != nil {
		logger.Warn("Transfer of %s in job %s failed: %v", item.Title, jobID, err)
		if _, merr := s.queue.mutate(ctx, jobID, func(j *domain.SyncJob) error {
			return j.Files[idx].MarkError(err)
		}); merr != nil {
			logger.Error("Recording failure of %s in job %s: %v", item.Title, jobID, merr)
		}
	}
}

func (s *Service) transferByLink(
	ctx context.Context, jobID string, idx int, item domain.SyncItem,
	source driven.LinkProvider, dest driven.LinkUploader,
) error {
	link, err := source.GetLink(ctx, item)
	if err != nil {
		return fmt.Errorf("get link: %w", err)
	}
	if err := s.advanceItem(ctx, jobID, idx, domain.StatusProcessed); err != nil {
		return err
	}
	uuid, err := dest.UploadLink(ctx, item.Title, *link)
	if err != nil {
		return fmt.Errorf("upload link: %w", err)
	}
	return s.markUploaded(ctx, jobID, idx, uuid)
}

func (s *Service) transferByBlob(
	ctx context.Context, jobID string, idx int, item domain.SyncItem,
	source driven.SourceConnector, dest driven.DestinationConnector,
) error {
	content, err := source.Download(ctx, item)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer content.Close()
	if err := s.advanceItem(ctx, jobID, idx, domain.StatusProcessed); err != nil {
		return err
	}
	uuid, err := dest.Upload(ctx, item.Title, content)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return s.markUploaded(ctx, jobID, idx, uuid)
}

func (s *Service) advanceItem(ctx context.Context, jobID string, idx int, status domain.FileStatus) error {
	_, err := s.queue.mutate(ctx, jobID, func(j *domain.SyncJob) error {
		return j.Files[idx].Advance(status)
	})
	return err
}

// markUploaded records the destination-assigned uuid alongside the final
// status transition. The uuid exists only once the resource is persisted.
func (s *Service) markUploaded(ctx context.Context, jobID string, idx int, uuid string) error {
	_, err := s.queue.mutate(ctx, jobID, func(j *domain.SyncJob) error {
		if err := j.Files[idx].Advance(domain.StatusUploaded); err != nil {
			return err
		}
		j.Files[idx].UUID = uuid
		return nil
	})
	return err
}

// RetryFailed re-queues only the errored items of a job and runs it again.
// Succeeded items keep their status; the failed subset starts over as a
// fresh attempt.
func (s *Service) RetryFailed(ctx context.Context, jobID string) error {
	job, err := s.queue.mutate(ctx, jobID, func(j *domain.SyncJob) error {
		retried := 0
		for i := range j.Files {
			if j.Files[i].Status != domain.StatusError {
				continue
			}
			fresh := domain.NewSyncItem(j.Files[i].OriginalID, j.Files[i].Title)
			fresh.Metadata = j.Files[i].Metadata
			j.Files[i] = fresh
			retried++
		}
		if retried == 0 {
			return fmt.Errorf("%w: job %s has no failed items", domain.ErrInvalidInput, jobID)
		}
		j.Started = nil
		j.Completed = nil
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("Retrying failed items of job %s", job.ID)
	return s.RunJob(ctx, jobID)
}
