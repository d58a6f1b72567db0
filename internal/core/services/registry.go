package services

import (
	"context"
	"sort"

	"github.com/nuclia/sync-agent/internal/core/domain"
	"github.com/nuclia/sync-agent/internal/core/ports/driven"
)

// SourceFactory builds a live source connector instance.
type SourceFactory func(ctx context.Context) (driven.SourceConnector, error)

// DestinationFactory builds a live destination connector instance.
type DestinationFactory func(ctx context.Context) (driven.DestinationConnector, error)

// SourceDefinition couples a provider descriptor with its factory.
type SourceDefinition struct {
	domain.ConnectorDefinition
	Factory SourceFactory
}

// DestinationDefinition couples a destination descriptor with its factory.
type DestinationDefinition struct {
	domain.ConnectorDefinition
	Factory DestinationFactory
}

// sortedDefinitions returns descriptors ordered by title for display.
func sortedDefinitions[D interface{ definition() domain.ConnectorDefinition }](m map[string]D) []domain.ConnectorDefinition {
	out := make([]domain.ConnectorDefinition, 0, len(m))
	for _, d := range m {
		out = append(out, d.definition())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (d SourceDefinition) definition() domain.ConnectorDefinition      { return d.ConnectorDefinition }
func (d DestinationDefinition) definition() domain.ConnectorDefinition { return d.ConnectorDefinition }
