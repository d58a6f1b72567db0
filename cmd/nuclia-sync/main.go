// Command nuclia-sync is the composition root: it opens the stores, starts
// the OAuth callback server, wires the connector registry into the sync
// engine and hands control to the CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nuclia/sync-agent/internal/adapters/driven/settings/file"
	"github.com/nuclia/sync-agent/internal/adapters/driven/storage/sqlite"
	"github.com/nuclia/sync-agent/internal/adapters/driving/cli"
	"github.com/nuclia/sync-agent/internal/adapters/driving/oauth"
	"github.com/nuclia/sync-agent/internal/connectors/dropbox"
	"github.com/nuclia/sync-agent/internal/connectors/folder"
	"github.com/nuclia/sync-agent/internal/connectors/google/gcs"
	"github.com/nuclia/sync-agent/internal/connectors/google/gdrive"
	"github.com/nuclia/sync-agent/internal/connectors/nucliadb"
	"github.com/nuclia/sync-agent/internal/connectors/onedrive"
	"github.com/nuclia/sync-agent/internal/connectors/rss"
	"github.com/nuclia/sync-agent/internal/connectors/s3"
	"github.com/nuclia/sync-agent/internal/connectors/sitemap"
	"github.com/nuclia/sync-agent/internal/core/services"
	"github.com/nuclia/sync-agent/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	settings, err := file.NewSettingsStore(os.Getenv("NUCLIA_SYNC_HOME"))
	if err != nil {
		return fmt.Errorf("opening settings: %w", err)
	}

	store, err := sqlite.NewStore(os.Getenv("NUCLIA_SYNC_HOME"))
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	queue, err := services.NewQueue(ctx, store.JobStore())
	if err != nil {
		return fmt.Errorf("loading job queue: %w", err)
	}

	engine := services.NewService(queue, store.ParamsStore())
	if n := settings.GetInt("transfer.concurrency"); n > 0 {
		engine.SetTransferWorkers(n)
	}

	callback := oauth.NewCallbackServer(settings.GetInt("oauth.port"))
	if err := callback.Start(); err != nil {
		return fmt.Errorf("starting OAuth callback server: %w", err)
	}
	defer func() {
		if err := callback.Stop(); err != nil {
			logger.Warn("Failed to stop callback server: %v", err)
		}
	}()

	flow := services.NewOAuthFlow(store.TokenStore(), callback, oauth.OpenBrowser)

	engine.RegisterSource(folder.Definition())
	engine.RegisterSource(s3.Definition())
	engine.RegisterSource(sitemap.Definition())
	engine.RegisterSource(rss.Definition())
	engine.RegisterSource(gdrive.Definition(flow))
	engine.RegisterSource(gcs.Definition(flow))
	engine.RegisterSource(dropbox.Definition(flow))
	engine.RegisterSource(onedrive.Definition(flow))
	engine.RegisterDestination(nucliadb.Definition())

	cli.Configure(engine, engine.Queue())
	return cli.Execute()
}
