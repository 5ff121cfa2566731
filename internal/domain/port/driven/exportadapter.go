package driven

import (
	"context"

	"github.com/ericfisherdev/exporthub/internal/domain/model"
)

// ExportAdapter is the capability contract every provider implementation
// satisfies. Implementations borrow the config read-only.
//
// Both methods return *model.MissingCredentialsError before any network call
// when a required credential is absent, and *model.ProviderRequestError when a
// required provider call answers with a non-success status. Neither retries.
type ExportAdapter interface {
	// GetTargets returns every place an item can be created, flattened from the
	// provider's native hierarchy. A branch of the hierarchy that cannot be
	// fetched is logged and omitted rather than failing the whole discovery.
	GetTargets(ctx context.Context, cfg model.IntegrationConfig) ([]model.ExportTarget, error)

	// CreateTask creates item at targetID and returns the canonical URL of the
	// created remote object.
	CreateTask(ctx context.Context, cfg model.IntegrationConfig, item model.ExportItem, targetID string) (string, error)
}
