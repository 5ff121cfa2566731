package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ericfisherdev/exporthub/internal/application"
	"github.com/ericfisherdev/exporthub/internal/domain/model"
	"github.com/ericfisherdev/exporthub/internal/domain/port/driven"
)

// maxBodyBytes bounds request bodies on write endpoints.
const maxBodyBytes = 1 << 20

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	store     driven.IntegrationStore
	exportSvc *application.ExportService
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	store driven.IntegrationStore,
	exportSvc *application.ExportService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		store:     store,
		exportSvc: exportSvc,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// RegisterAPIRoutes registers all JSON API routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/providers", h.ListProviders)
	mux.HandleFunc("GET /api/v1/integrations", h.ListIntegrations)
	mux.HandleFunc("GET /api/v1/integrations/exportable", h.ListExportable)
	mux.HandleFunc("GET /api/v1/integrations/{type}", h.GetIntegration)
	mux.HandleFunc("PUT /api/v1/integrations/{type}", h.UpsertIntegration)
	mux.HandleFunc("DELETE /api/v1/integrations/{type}", h.DeleteIntegration)
	mux.HandleFunc("GET /api/v1/integrations/{type}/targets", h.ListTargets)
	mux.HandleFunc("POST /api/v1/integrations/{type}/exports", h.CreateExport)
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListProviders returns every declared provider type and whether an adapter
// is registered for it.
func (h *Handler) ListProviders(w http.ResponseWriter, _ *http.Request) {
	resp := make([]ProviderResponse, 0, len(model.IntegrationTypes))
	for _, t := range model.IntegrationTypes {
		resp = append(resp, ProviderResponse{Type: string(t), Supported: h.exportSvc.Supports(t)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListIntegrations returns all stored integrations with credentials redacted.
func (h *Handler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	configs, err := h.store.ListAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "list integrations", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toIntegrationResponses(configs))
}

// ListExportable returns the enabled integrations.
func (h *Handler) ListExportable(w http.ResponseWriter, r *http.Request) {
	configs, err := h.exportSvc.Exportable(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "list exportable integrations", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toIntegrationResponses(configs))
}

// GetIntegration returns the stored integration for the path type.
func (h *Handler) GetIntegration(w http.ResponseWriter, r *http.Request) {
	t, ok := h.pathType(w, r)
	if !ok {
		return
	}

	cfg, err := h.store.GetByType(r.Context(), t)
	if err != nil {
		h.writeServiceError(w, r, "get integration", err)
		return
	}
	if cfg == nil {
		writeProblem(w, r, http.StatusNotFound, "integration_not_found",
			fmt.Sprintf("no integration configured for %s", t))
		return
	}

	writeJSON(w, http.StatusOK, toIntegrationResponse(*cfg, h.exportSvc.Supports(t)))
}

// UpsertIntegration creates or replaces the integration for the path type.
// Omitting is_enabled enables the integration.
func (h *Handler) UpsertIntegration(w http.ResponseWriter, r *http.Request) {
	t, ok := h.pathType(w, r)
	if !ok {
		return
	}

	var req UpsertIntegrationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}

	saved, err := h.store.Upsert(r.Context(), model.IntegrationConfig{
		Type:        t,
		Name:        strings.TrimSpace(req.Name),
		IsEnabled:   enabled,
		Credentials: req.Credentials,
	})
	if err != nil {
		h.writeServiceError(w, r, "save integration", err)
		return
	}

	h.logger.Info("integration saved", "type", t, "enabled", enabled)
	writeJSON(w, http.StatusOK, toIntegrationResponse(saved, h.exportSvc.Supports(t)))
}

// DeleteIntegration removes the integration for the path type.
func (h *Handler) DeleteIntegration(w http.ResponseWriter, r *http.Request) {
	t, ok := h.pathType(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), t); err != nil {
		h.writeServiceError(w, r, "delete integration", err)
		return
	}

	h.logger.Info("integration deleted", "type", t)
	w.WriteHeader(http.StatusNoContent)
}

// ListTargets discovers the export targets for the path type. A provider
// without a registered adapter yields an empty list.
func (h *Handler) ListTargets(w http.ResponseWriter, r *http.Request) {
	t, ok := h.pathType(w, r)
	if !ok {
		return
	}

	result, err := h.exportSvc.Discover(r.Context(), t)
	if err != nil {
		h.writeServiceError(w, r, "discover targets", err)
		return
	}

	writeJSON(w, http.StatusOK, toDiscoveryResponse(result))
}

// CreateExport exports one item to a target of the path type.
func (h *Handler) CreateExport(w http.ResponseWriter, r *http.Request) {
	t, ok := h.pathType(w, r)
	if !ok {
		return
	}

	var req ExportRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.exportSvc.Export(r.Context(), t, req.TargetID, model.ExportItem{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		h.writeServiceError(w, r, "export item", err)
		return
	}
	if !result.Available {
		writeProblem(w, r, http.StatusNotImplemented, "provider_unavailable",
			fmt.Sprintf("export to %s is not available", t))
		return
	}

	writeJSON(w, http.StatusCreated, ExportResponse{
		State:     string(result.State),
		Reference: result.Reference,
	})
}

// pathType parses the {type} path value, writing a 400 problem on failure.
func (h *Handler) pathType(w http.ResponseWriter, r *http.Request) (model.IntegrationType, bool) {
	t, err := model.ParseIntegrationType(r.PathValue("type"))
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, "unknown_integration_type", err.Error())
		return "", false
	}
	return t, true
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeProblem(w, r, http.StatusBadRequest, "validation_error", describeValidation(verrs))
			return false
		}
		writeProblem(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return false
	}

	return true
}

// describeValidation renders validation failures as "field: tag" pairs.
func describeValidation(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// writeServiceError maps domain and provider errors to problem responses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var missing *model.MissingCredentialsError
	var provider *model.ProviderRequestError

	switch {
	case errors.As(err, &missing):
		writeProblem(w, r, http.StatusUnprocessableEntity, "missing_credentials", missing.Error())
	case errors.As(err, &provider):
		writeProblem(w, r, http.StatusBadGateway, "provider_request_failed", provider.Error())
	case errors.Is(err, model.ErrIntegrationNotFound):
		writeProblem(w, r, http.StatusNotFound, "integration_not_found", err.Error())
	case errors.Is(err, model.ErrIntegrationDisabled):
		writeProblem(w, r, http.StatusConflict, "integration_disabled", err.Error())
	case errors.Is(err, application.ErrEmptyTitle):
		writeProblem(w, r, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		writeProblem(w, r, http.StatusServiceUnavailable, "credential_storage_unavailable",
			"credential storage requires EXPORTHUB_SECRET_KEY")
	default:
		h.logger.Error("request failed", "op", op, "error", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (h *Handler) toIntegrationResponses(configs []model.IntegrationConfig) []IntegrationResponse {
	resp := make([]IntegrationResponse, 0, len(configs))
	for _, cfg := range configs {
		resp = append(resp, toIntegrationResponse(cfg, h.exportSvc.Supports(cfg.Type)))
	}
	return resp
}
