package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/exporthub/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by IntegrationStore operations that touch
// credentials when EXPORTHUB_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set EXPORTHUB_SECRET_KEY")

// IntegrationStore defines the driven port for integration config persistence.
// Records are keyed by type, so there is at most one config per provider.
// The adapter layer encrypts credentials; this interface works on plaintext.
type IntegrationStore interface {
	// Upsert creates or replaces the config for cfg.Type and returns the stored
	// record. An empty ID is assigned; a zero ConnectedAt is set to now.
	Upsert(ctx context.Context, cfg model.IntegrationConfig) (model.IntegrationConfig, error)

	// GetByType returns the config for t, or nil, nil if none is stored.
	GetByType(ctx context.Context, t model.IntegrationType) (*model.IntegrationConfig, error)

	// ListAll returns every stored config ordered by type.
	ListAll(ctx context.Context) ([]model.IntegrationConfig, error)

	// ListEnabled returns only configs with IsEnabled set.
	ListEnabled(ctx context.Context) ([]model.IntegrationConfig, error)

	// Delete removes the config for t. Returns model.ErrIntegrationNotFound if absent.
	Delete(ctx context.Context, t model.IntegrationType) error
}
