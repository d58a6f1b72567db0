package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nuclia/sync-agent/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config [source-id]",
	Short: "Configure a source connector",
	Long: `Set the configuration parameters of a source connector.

With -c flags the command runs non-interactively; without them it prompts
for each parameter.

Examples:
  nuclia-sync config folder -c path=/data/docs
  nuclia-sync config s3 -c access_key_id=AKIA... -c secret_access_key=... -c bucket=docs
  nuclia-sync config gdrive                # interactive prompts`,
	Args: cobra.ExactArgs(1),
	RunE: runConfig,
}

// Flags for config.
var configValues []string

func init() {
	configCmd.Flags().StringArrayVarP(
		&configValues, "set", "c", nil, "Parameter as key=value (repeatable)")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync engine not configured")
	}

	ctx := context.Background()
	sourceID := args[0]

	source, err := syncEngine.GetSource(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("unknown source connector: %w", err)
	}

	var params domain.ConnectorParameters
	if len(configValues) > 0 {
		params, err = parseKeyValues(configValues)
		if err != nil {
			return err
		}
	} else {
		fields, err := source.Parameters(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch parameters: %w", err)
		}
		params = promptForParams(cmd, fields, source.ParameterValues())
	}

	if err := syncEngine.SaveSourceParameters(ctx, sourceID, params); err != nil {
		return fmt.Errorf("failed to save parameters: %w", err)
	}

	cmd.Printf("Configured source: %s\n", sourceID)
	return nil
}

// parseKeyValues turns repeated key=value flags into connector parameters.
func parseKeyValues(pairs []string) (domain.ConnectorParameters, error) {
	params := make(domain.ConnectorParameters, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

// promptForParams asks for each field on stdin, keeping the current value
// when the user enters nothing.
//
//nolint:errcheck // CLI interactive flow
func promptForParams(
	cmd *cobra.Command,
	fields []domain.Field,
	current domain.ConnectorParameters,
) domain.ConnectorParameters {
	reader := bufio.NewReader(os.Stdin)
	params := make(domain.ConnectorParameters, len(fields))

	for _, f := range fields {
		prompt := f.Label
		if existing := current[f.ID]; existing != "" {
			prompt += fmt.Sprintf(" [%s]", existing)
		} else if f.Placeholder != "" {
			prompt += fmt.Sprintf(" (e.g. %s)", f.Placeholder)
		}
		if f.Required {
			prompt += " (required)"
		}
		cmd.Printf("%s: ", prompt)

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			input = current[f.ID]
		}
		if input != "" {
			params[f.ID] = input
		}
	}
	return params
}
