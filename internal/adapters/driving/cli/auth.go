package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth [source-id]",
	Short: "Authenticate a source connector",
	Long: `Run the authentication flow of a source connector.

For OAuth providers (gdrive, gcs, dropbox, onedrive) this opens the
provider's consent page in a browser and waits for the redirect. For
credential-based providers it verifies the configured credentials.

Examples:
  nuclia-sync auth gdrive
  nuclia-sync auth gdrive --reset    # discard the stored token first`,
	Args: cobra.ExactArgs(1),
	RunE: runAuth,
}

// Flags for auth.
var (
	authReset   bool
	authTimeout time.Duration
)

func init() {
	authCmd.Flags().BoolVar(&authReset, "reset", false, "Discard any stored token before authenticating")
	authCmd.Flags().DurationVar(&authTimeout, "timeout", 3*time.Minute, "How long to wait for the flow to finish")
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	sourceID := args[0]
	source, err := syncEngine.GetSource(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("unknown source connector: %w", err)
	}

	if err := source.GoToOAuth(ctx, authReset); err != nil {
		return fmt.Errorf("failed to start authentication: %w", err)
	}

	cmd.Printf("Waiting for %s authentication...\n", sourceID)

	select {
	case ok := <-source.Authenticate(ctx):
		if !ok {
			return fmt.Errorf("authentication failed for %s", sourceID)
		}
	case <-ctx.Done():
		return fmt.Errorf("authentication timed out for %s", sourceID)
	}

	cmd.Printf("Authenticated: %s\n", sourceID)
	return nil
}
