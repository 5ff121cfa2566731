// Package providers registers the implemented export adapters on an
// AdapterRegistry. Both the server and the CLI share this wiring.
package providers

import (
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/ericfisherdev/exporthub/internal/adapter/driven/github"
	"github.com/ericfisherdev/exporthub/internal/adapter/driven/trello"
	"github.com/ericfisherdev/exporthub/internal/application"
	"github.com/ericfisherdev/exporthub/internal/domain/model"
)

// Options selects provider endpoints. Empty fields use the public APIs.
type Options struct {
	TrelloBaseURL string
	GitHubBaseURL string
	HTTPClient    *http.Client
}

// NewRegistry builds an AdapterRegistry with the Trello and GitHub adapters
// registered. Other declared providers stay unregistered.
func NewRegistry(opts Options, logger *slog.Logger, tracer trace.Tracer) (*application.AdapterRegistry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := application.NewAdapterRegistry(logger, tracer)

	trelloAdapter := trello.NewAdapter(logger.With("provider", model.IntegrationTrello))
	if opts.TrelloBaseURL != "" || opts.HTTPClient != nil {
		baseURL := opts.TrelloBaseURL
		if baseURL == "" {
			baseURL = trello.DefaultBaseURL
		}
		a, err := trello.NewAdapterWithHTTPClient(opts.HTTPClient, baseURL, logger.With("provider", model.IntegrationTrello))
		if err != nil {
			return nil, fmt.Errorf("create trello adapter: %w", err)
		}
		trelloAdapter = a
	}
	registry.Register(model.IntegrationTrello, trelloAdapter)

	githubAdapter := github.NewAdapter(logger.With("provider", model.IntegrationGitHub))
	if opts.GitHubBaseURL != "" {
		a, err := github.NewAdapterWithHTTPClient(opts.HTTPClient, opts.GitHubBaseURL, logger.With("provider", model.IntegrationGitHub))
		if err != nil {
			return nil, fmt.Errorf("create github adapter: %w", err)
		}
		githubAdapter = a
	}
	registry.Register(model.IntegrationGitHub, githubAdapter)

	return registry, nil
}
