package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nuclia/sync-agent/internal/core/domain"
)

var runCmd = &cobra.Command{
	Use:   "run [source-id] [original-id...]",
	Short: "Enqueue a sync job and transfer it",
	Long: `Select items from a source, enqueue them as a job against the
destination, and run the transfer.

Without original-id arguments every item matching --query is selected.
With --pending no new job is created; jobs already in the queue that have
not started yet are executed instead.

Examples:
  nuclia-sync run folder -d backend=http://localhost:8080/api -d kb=kb-1
  nuclia-sync run gdrive report.pdf --query report -d kb=kb-1
  nuclia-sync run --pending`,
	RunE: runRun,
}

var retryCmd = &cobra.Command{
	Use:   "retry [job-id]",
	Short: "Retry the failed items of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetry,
}

// Flags for run.
var (
	runDest       string
	runDestValues []string
	runQuery      string
	runMax        int
	runPending    bool
)

func init() {
	runCmd.Flags().StringVar(&runDest, "dest", "nucliadb", "Destination connector id")
	runCmd.Flags().StringArrayVarP(
		&runDestValues, "dest-param", "d", nil, "Destination setting as key=value (repeatable)")
	runCmd.Flags().StringVarP(&runQuery, "query", "q", "", "Filter source items by name")
	runCmd.Flags().IntVar(&runMax, "max", 0, "Maximum number of items to select (0 = all)")
	runCmd.Flags().BoolVar(&runPending, "pending", false, "Run queued jobs instead of creating a new one")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(retryCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if syncEngine == nil || jobQueue == nil {
		return errors.New("sync engine not configured")
	}

	ctx := context.Background()

	if runPending {
		cmd.Println("Running pending jobs...")
		if err := syncEngine.RunPending(ctx); err != nil {
			return fmt.Errorf("run failed: %w", err)
		}
		cmd.Println("Done.")
		return nil
	}

	if len(args) == 0 {
		return errors.New("source-id required unless --pending is set")
	}
	sourceID := args[0]

	source, err := syncEngine.GetSource(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("unknown source connector: %w", err)
	}

	results, err := source.GetFiles(ctx, runQuery, 0)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	items, err := results.Collect(ctx, runMax)
	if err != nil {
		return fmt.Errorf("failed to fetch items: %w", err)
	}

	// Positional original ids narrow the selection
	if len(args) > 1 {
		items = selectItems(items, args[1:])
		if len(items) != len(args)-1 {
			return fmt.Errorf("%d of %d requested items not found in source",
				len(args)-1-len(items), len(args)-1)
		}
	}
	if len(items) == 0 {
		cmd.Println("Nothing to sync.")
		return nil
	}

	destParams, err := parseKeyValues(runDestValues)
	if err != nil {
		return err
	}

	job, err := jobQueue.Enqueue(ctx, sourceID,
		domain.JobDestination{ID: runDest, Params: destParams}, items)
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	cmd.Printf("Enqueued job %s with %d files, transferring...\n", job.ID, len(job.Files))

	if err := syncEngine.RunJob(ctx, job.ID); err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}

	done, err := jobQueue.Get(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to read job result: %w", err)
	}
	cmd.Printf("Job %s: %.0f%% uploaded\n", done.ID, done.Progress())
	if msgs := done.Errors(); msgs != "" {
		cmd.Printf("Errors: %s\n", msgs)
	}
	return nil
}

// selectItems keeps only the items whose original id was requested, or an
// item whose title matches when the id does not.
func selectItems(items []domain.SyncItem, requested []string) []domain.SyncItem {
	wanted := make(map[string]bool, len(requested))
	for _, id := range requested {
		wanted[id] = true
	}
	var out []domain.SyncItem
	for _, item := range items {
		if wanted[item.OriginalID] || wanted[item.Title] {
			out = append(out, item)
		}
	}
	return out
}

func runRetry(cmd *cobra.Command, args []string) error {
	if syncEngine == nil || jobQueue == nil {
		return errors.New("sync engine not configured")
	}

	ctx := context.Background()
	jobID := args[0]

	cmd.Printf("Retrying failed items of job %s...\n", jobID)
	if err := syncEngine.RetryFailed(ctx, jobID); err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}

	job, err := jobQueue.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to read job result: %w", err)
	}
	cmd.Printf("Job %s: %.0f%% uploaded\n", job.ID, job.Progress())
	return nil
}
