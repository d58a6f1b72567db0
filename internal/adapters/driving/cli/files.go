package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files [source-id]",
	Short: "List items available in a source",
	Long: `Browse the items a source connector exposes.

Results are fetched page by page up to --max items. The optional --query
filters by name, matching case-insensitively.

Examples:
  nuclia-sync files folder
  nuclia-sync files gdrive --query report --max 20`,
	Args: cobra.ExactArgs(1),
	RunE: runFiles,
}

// Flags for files.
var (
	filesQuery    string
	filesPageSize int
	filesMax      int
)

func init() {
	filesCmd.Flags().StringVarP(&filesQuery, "query", "q", "", "Filter items by name")
	filesCmd.Flags().IntVar(&filesPageSize, "page-size", 0, "Items per provider page (0 = provider default)")
	filesCmd.Flags().IntVar(&filesMax, "max", 100, "Maximum number of items to fetch (0 = all)")
	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}

	ctx := context.Background()
	sourceID := args[0]

	source, err := syncEngine.GetSource(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("unknown source connector: %w", err)
	}

	results, err := source.GetFiles(ctx, filesQuery, filesPageSize)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	items, err := results.Collect(ctx, filesMax)
	if err != nil {
		return fmt.Errorf("failed to fetch items: %w", err)
	}

	if len(items) == 0 {
		cmd.Println("No items found.")
		return nil
	}

	for _, item := range items {
		cmd.Printf("  %-40s %s\n", item.Title, item.OriginalID)
	}
	cmd.Printf("\n%d items", len(items))
	if filesMax > 0 && len(items) == filesMax {
		cmd.Print(" (truncated, raise --max for more)")
	}
	cmd.Println()
	return nil
}
