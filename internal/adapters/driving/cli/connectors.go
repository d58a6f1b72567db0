package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driving"
)

var connectorsCmd = &cobra.Command{
	Use:   "connectors",
	Short: "List available source and destination connectors",
	RunE:  runConnectors,
}

var connectorsParamsCmd = &cobra.Command{
	Use:   "params [connector-id]",
	Short: "Show the configuration parameters of a source connector",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnectorsParams,
}

func init() {
	connectorsCmd.AddCommand(connectorsParamsCmd)
	rootCmd.AddCommand(connectorsCmd)
}

func runConnectors(cmd *cobra.Command, _ []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}

	printDefinitions(cmd, "Sources", syncEngine.Connectors(driving.KindSource))
	cmd.Println()
	printDefinitions(cmd, "Destinations", syncEngine.Connectors(driving.KindDestination))
	return nil
}

func printDefinitions(cmd *cobra.Command, heading string, defs []domain.ConnectorDefinition) {
	cmd.Printf("%s:\n", heading)
	if len(defs) == 0 {
		cmd.Println("  (none registered)")
		return
	}
	for _, def := range defs {
		cmd.Printf("  %-10s %s", def.ID, def.Title)
		if def.PermanentSyncOnly {
			cmd.Print("  [permanent sync only]")
		}
		cmd.Println()
		if def.Description != "" {
			cmd.Printf("             %s\n", def.Description)
		}
	}
}

func runConnectorsParams(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}

	ctx := context.Background()
	source, err := syncEngine.GetSource(ctx, args[0])
	if err != nil {
		return fmt.Errorf("unknown source connector: %w", err)
	}

	fields, err := source.Parameters(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch parameters: %w", err)
	}

	current := source.ParameterValues()

	cmd.Printf("Parameters for %s:\n", args[0])
	for _, f := range fields {
		required := ""
		if f.Required {
			required = " (required)"
		}
		cmd.Printf("  %-20s %s%s\n", f.ID, f.Label, required)
		if f.Placeholder != "" {
			cmd.Printf("    %-18s e.g. %s\n", "", f.Placeholder)
		}
		if len(f.Options) > 0 {
			var opts []string
			for _, o := range f.Options {
				opts = append(opts, o.Value)
			}
			cmd.Printf("    %-18s one of: %s\n", "", strings.Join(opts, ", "))
		}
		if v, ok := current[f.ID]; ok && v != "" {
			cmd.Printf("    %-18s current: %s\n", "", v)
		}
	}
	return nil
}
