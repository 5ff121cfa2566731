package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/exporthub/internal/domain/model"
	"github.com/ericfisherdev/exporthub/internal/domain/port/driven"
)

// DiscoveryResult is the outcome of a target discovery. Available is false
// when no adapter is registered for the provider; Targets is then empty.
type DiscoveryResult struct {
	State     model.ExportState
	Available bool
	Targets   []model.ExportTarget
}

// ExportResult is the outcome of an export. Reference is the created object's
// URL; it is empty when Available is false.
type ExportResult struct {
	State     model.ExportState
	Available bool
	Reference string
}

// ExportService resolves stored integration configs and drives discovery and
// export through the AdapterRegistry. Disabled configs are never used.
type ExportService struct {
	store      driven.IntegrationStore
	registry   *AdapterRegistry
	normalizer *ItemNormalizer
	logger     *slog.Logger
}

// NewExportService creates an ExportService with all required dependencies.
func NewExportService(store driven.IntegrationStore, registry *AdapterRegistry, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		store:      store,
		registry:   registry,
		normalizer: NewItemNormalizer(),
		logger:     logger,
	}
}

// Exportable returns the enabled integrations, the only ones offered for export.
func (s *ExportService) Exportable(ctx context.Context) ([]model.IntegrationConfig, error) {
	configs, err := s.store.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled integrations: %w", err)
	}
	return configs, nil
}

// Supports reports whether the provider type has a registered adapter.
func (s *ExportService) Supports(t model.IntegrationType) bool {
	return s.registry.Supports(t)
}

// Discover fetches the export targets for the stored integration of type t.
// Adapter errors are returned unchanged alongside a discovery_failed result.
func (s *ExportService) Discover(ctx context.Context, t model.IntegrationType) (DiscoveryResult, error) {
	cfg, err := s.resolve(ctx, t)
	if err != nil {
		return DiscoveryResult{State: model.ExportStateIdle}, err
	}

	s.transition(ctx, t, model.ExportStateIdle, model.ExportStateDiscovering)

	available := s.registry.Supports(t)
	targets, err := s.registry.FetchExportTargets(ctx, cfg)
	if err != nil {
		s.transition(ctx, t, model.ExportStateDiscovering, model.ExportStateDiscoveryFailed)
		return DiscoveryResult{State: model.ExportStateDiscoveryFailed, Available: available}, err
	}

	s.transition(ctx, t, model.ExportStateDiscovering, model.ExportStateTargetsReady)
	return DiscoveryResult{State: model.ExportStateTargetsReady, Available: available, Targets: targets}, nil
}

// Export normalizes item and creates it at targetID through the stored
// integration of type t.
func (s *ExportService) Export(ctx context.Context, t model.IntegrationType, targetID string, item model.ExportItem) (ExportResult, error) {
	cfg, err := s.resolve(ctx, t)
	if err != nil {
		return ExportResult{State: model.ExportStateIdle}, err
	}

	normalized, err := s.normalizer.Normalize(item)
	if err != nil {
		return ExportResult{State: model.ExportStateIdle}, err
	}

	available := s.registry.Supports(t)
	if !available {
		return ExportResult{State: model.ExportStateIdle, Available: false}, nil
	}

	s.transition(ctx, t, model.ExportStateIdle, model.ExportStateExporting)

	ref, err := s.registry.ExecuteExport(ctx, cfg, targetID, normalized)
	if err != nil {
		s.transition(ctx, t, model.ExportStateExporting, model.ExportStateExportFailed)
		return ExportResult{State: model.ExportStateExportFailed, Available: true}, err
	}

	s.transition(ctx, t, model.ExportStateExporting, model.ExportStateExportSucceeded)
	s.logger.Info("item exported", "type", t, "target_id", targetID, "reference", ref)

	return ExportResult{State: model.ExportStateExportSucceeded, Available: true, Reference: ref}, nil
}

// resolve loads the config for t and applies the enabled gate.
func (s *ExportService) resolve(ctx context.Context, t model.IntegrationType) (model.IntegrationConfig, error) {
	cfg, err := s.store.GetByType(ctx, t)
	if err != nil {
		return model.IntegrationConfig{}, fmt.Errorf("load integration %q: %w", t, err)
	}
	if cfg == nil {
		return model.IntegrationConfig{}, fmt.Errorf("%w: %s", model.ErrIntegrationNotFound, t)
	}
	if !cfg.IsEnabled {
		return model.IntegrationConfig{}, fmt.Errorf("%w: %s", model.ErrIntegrationDisabled, t)
	}
	return *cfg, nil
}

// transition logs a state change. Terminal states are logged at info so every
// discovery and export leaves one record of its outcome.
func (s *ExportService) transition(ctx context.Context, t model.IntegrationType, from, to model.ExportState) {
	level := slog.LevelDebug
	if to.IsTerminal() {
		level = slog.LevelInfo
	}
	s.logger.Log(ctx, level, "export state", "type", t, "from", from, "to", to)
}
