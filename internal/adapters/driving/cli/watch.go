package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
)

var watchCmd = &cobra.Command{
	Use:   "watch [source-id]",
	Short: "Continuously sync a source as it changes",
	Long: `Watch a source for changes and transfer each changed item as it
appears. Only sources supporting change notification (folder, and any
connector marked permanent sync) can be watched. Runs until interrupted.

Example:
  nuclia-sync watch folder -d backend=http://localhost:8080/api -d kb=kb-1`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

// Flags for watch.
var (
	watchDest       string
	watchDestValues []string
)

func init() {
	watchCmd.Flags().StringVar(&watchDest, "dest", "nucliadb", "Destination connector id")
	watchCmd.Flags().StringArrayVarP(
		&watchDestValues, "dest-param", "d", nil, "Destination setting as key=value (repeatable)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if syncEngine == nil || jobQueue == nil {
		return errors.New("sync engine not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sourceID := args[0]
	source, err := syncEngine.GetSource(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("unknown source connector: %w", err)
	}
	watcher, ok := source.(driven.Watcher)
	if !ok {
		return fmt.Errorf("%w: %s does not support watching", domain.ErrNotSupported, sourceID)
	}

	destParams, err := parseKeyValues(watchDestValues)
	if err != nil {
		return err
	}

	changes, err := watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watching: %w", err)
	}

	cmd.Printf("Watching %s, press Ctrl+C to stop...\n", sourceID)
	for changed := range changes {
		item := domain.NewSyncItem(changed, filepath.Base(changed))
		job, err := jobQueue.Enqueue(ctx, sourceID,
			domain.JobDestination{ID: watchDest, Params: destParams},
			[]domain.SyncItem{item})
		if err != nil {
			cmd.PrintErrf("Failed to enqueue %s: %v\n", changed, err)
			continue
		}
		if err := syncEngine.RunJob(ctx, job.ID); err != nil {
			cmd.PrintErrf("Transfer of %s failed: %v\n", changed, err)
			continue
		}
		cmd.Printf("Synced %s\n", changed)
	}
	return nil
}
