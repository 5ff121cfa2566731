package application

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ericfisherdev/exporthub/internal/domain/model"
	"github.com/ericfisherdev/exporthub/internal/domain/port/driven"
	"github.com/ericfisherdev/exporthub/internal/telemetry"
)

// AdapterRegistry dispatches discovery and export calls to the adapter
// registered for a config's type. Types without an adapter yield empty
// results rather than errors, so provider types can be declared before they
// are implemented. Adapter errors are logged and returned unchanged.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[model.IntegrationType]driven.ExportAdapter
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewAdapterRegistry creates an empty registry. A nil tracer falls back to the
// global OpenTelemetry provider, which is a no-op unless tracing is enabled.
func NewAdapterRegistry(logger *slog.Logger, tracer trace.Tracer) *AdapterRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = telemetry.Tracer()
	}
	return &AdapterRegistry{
		adapters: make(map[model.IntegrationType]driven.ExportAdapter),
		logger:   logger,
		tracer:   tracer,
	}
}

// Register binds adapter to t, replacing any previous binding.
func (r *AdapterRegistry) Register(t model.IntegrationType, adapter driven.ExportAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[t] = adapter
}

// Supports reports whether an adapter is registered for t.
func (r *AdapterRegistry) Supports(t model.IntegrationType) bool {
	_, ok := r.lookup(t)
	return ok
}

// Types returns the registered provider types in sorted order.
func (r *AdapterRegistry) Types() []model.IntegrationType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]model.IntegrationType, 0, len(r.adapters))
	for t := range r.adapters {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

func (r *AdapterRegistry) lookup(t model.IntegrationType) (driven.ExportAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[t]
	return adapter, ok
}

// FetchExportTargets returns the targets the adapter for cfg.Type discovers.
// An unregistered type returns an empty slice and a nil error.
func (r *AdapterRegistry) FetchExportTargets(ctx context.Context, cfg model.IntegrationConfig) ([]model.ExportTarget, error) {
	ctx, span := r.tracer.Start(ctx, "registry.fetch_targets", trace.WithAttributes(
		attribute.String(telemetry.IntegrationTypeKey, string(cfg.Type)),
		attribute.String(telemetry.IntegrationIDKey, cfg.ID),
	))
	defer span.End()

	adapter, ok := r.lookup(cfg.Type)
	if !ok {
		r.logger.Debug("no export adapter registered", "type", cfg.Type)
		return []model.ExportTarget{}, nil
	}

	targets, err := adapter.GetTargets(ctx, cfg)
	if err != nil {
		r.logger.Error("fetching export targets failed", "type", cfg.Type, "integration_id", cfg.ID, "error", err)
		telemetry.SetError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int(telemetry.TargetCountKey, len(targets)))
	return targets, nil
}

// ExecuteExport creates item at targetID through the adapter for cfg.Type and
// returns the created object's URL. An unregistered type returns "" and a nil
// error, which callers treat as "export unavailable for this provider".
func (r *AdapterRegistry) ExecuteExport(ctx context.Context, cfg model.IntegrationConfig, targetID string, item model.ExportItem) (string, error) {
	ctx, span := r.tracer.Start(ctx, "registry.execute_export", trace.WithAttributes(
		attribute.String(telemetry.IntegrationTypeKey, string(cfg.Type)),
		attribute.String(telemetry.IntegrationIDKey, cfg.ID),
		attribute.String(telemetry.TargetIDKey, targetID),
	))
	defer span.End()

	adapter, ok := r.lookup(cfg.Type)
	if !ok {
		r.logger.Debug("no export adapter registered", "type", cfg.Type)
		return "", nil
	}

	ref, err := adapter.CreateTask(ctx, cfg, item, targetID)
	if err != nil {
		r.logger.Error("export failed", "type", cfg.Type, "integration_id", cfg.ID, "target_id", targetID, "error", err)
		telemetry.SetError(span, err)
		return "", err
	}

	return ref, nil
}
