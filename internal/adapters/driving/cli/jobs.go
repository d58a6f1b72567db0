package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nuclia/sync-agent/internal/core/domain"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List sync jobs and their progress",
	RunE:  runJobs,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show [job-id]",
	Short: "Show one job including its per-item status",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

var jobsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete completed jobs from the queue",
	RunE:  runJobsClear,
}

// Flags for jobs.
var jobsState string

func init() {
	jobsCmd.Flags().StringVar(&jobsState, "state", "", "Filter by state (pending, active, completed)")
	jobsCmd.AddCommand(jobsShowCmd)
	jobsCmd.AddCommand(jobsClearCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, _ []string) error {
	if jobQueue == nil {
		return errors.New("job queue not configured")
	}

	ctx := context.Background()

	var jobs []domain.SyncJob
	var err error
	if jobsState != "" {
		jobs, err = jobQueue.ByState(ctx, domain.JobState(jobsState))
	} else {
		jobs, err = jobQueue.Jobs(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if len(jobs) == 0 {
		cmd.Println("No jobs.")
		return nil
	}

	for i := range jobs {
		j := &jobs[i]
		cmd.Printf("  %s  %-9s  %s -> %s  %d files  %.0f%%\n",
			j.ID, j.State(), j.Source, j.Destination.ID, len(j.Files), j.Progress())
	}
	return nil
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	if jobQueue == nil {
		return errors.New("job queue not configured")
	}

	ctx := context.Background()
	job, err := jobQueue.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("job not found: %w", err)
	}

	cmd.Printf("Job: %s\n", job.ID)
	cmd.Printf("  State: %s\n", job.State())
	cmd.Printf("  Source: %s\n", job.Source)
	cmd.Printf("  Destination: %s\n", job.Destination.ID)
	cmd.Printf("  Created: %s\n", job.Date.Format(time.RFC3339))
	if job.Started != nil {
		cmd.Printf("  Started: %s\n", job.Started.Format(time.RFC3339))
	}
	if job.Completed != nil {
		cmd.Printf("  Completed: %s\n", job.Completed.Format(time.RFC3339))
	}
	cmd.Printf("  Progress: %.0f%%\n", job.Progress())

	cmd.Println("  Files:")
	for _, f := range job.Files {
		cmd.Printf("    %-10s %s\n", f.Status, f.Title)
		if f.Error != "" {
			cmd.Printf("               %s\n", f.Error)
		}
	}
	return nil
}

func runJobsClear(cmd *cobra.Command, _ []string) error {
	if jobQueue == nil {
		return errors.New("job queue not configured")
	}

	if err := jobQueue.ClearCompleted(context.Background()); err != nil {
		return fmt.Errorf("failed to clear jobs: %w", err)
	}
	cmd.Println("Completed jobs cleared.")
	return nil
}
