// Package cli is the command-line surface of the sync agent. Commands are
// thin wrappers over the driving ports; services are injected once at
// startup via Configure.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/nuclia/sync-agent/internal/core/ports/driving"
	"github.com/nuclia/sync-agent/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services injected by the composition root.
var (
	syncEngine driving.SyncEngine
	jobQueue   driving.JobQueue
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "nuclia-sync",
	Short: "Synchronise files from external sources into a NucliaDB knowledge box",
	Long: `nuclia-sync moves files from external data sources (local folders,
object stores, cloud drives, sitemaps) into a NucliaDB knowledge box.

Typical flow:
  nuclia-sync connectors               # see what providers are available
  nuclia-sync config folder -c path=/data/docs
  nuclia-sync auth gdrive              # OAuth providers only
  nuclia-sync files folder             # browse and search source items
  nuclia-sync run folder               # enqueue and transfer
  nuclia-sync jobs                     # inspect progress`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// Configure injects the services the commands depend on. Must be called
// before Execute.
func Configure(engine driving.SyncEngine, queue driving.JobQueue) {
	syncEngine = engine
	jobQueue = queue
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
