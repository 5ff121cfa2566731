package httphandler

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/moogar0880/problems"

	"github.com/ericfisherdev/exporthub/internal/application"
	"github.com/ericfisherdev/exporthub/internal/domain/model"
)

// problemContentType is the RFC 7807 media type for JSON problem documents.
const problemContentType = "application/problem+json"

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeProblem writes an RFC 7807 problem document.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, detail string) {
	problem := problems.NewStatusProblem(status).
		WithInstance(r.URL.Path).
		WithType(problemType).
		WithDetail(detail)

	data, err := json.Marshal(problem)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// IntegrationResponse is the JSON representation of a stored integration.
// Credential values are never returned; only their key names are.
type IntegrationResponse struct {
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	IsEnabled      bool     `json:"is_enabled"`
	CredentialKeys []string `json:"credential_keys"`
	ConnectedAt    int64    `json:"connected_at"`
	Supported      bool     `json:"supported"`
}

// UpsertIntegrationRequest is the JSON body for creating or replacing an integration.
type UpsertIntegrationRequest struct {
	Name        string            `json:"name" validate:"required,max=100"`
	IsEnabled   *bool             `json:"is_enabled"`
	Credentials map[string]string `json:"credentials" validate:"dive,keys,required,max=64,endkeys,max=4096"`
}

// TargetResponse is the JSON representation of an export target.
type TargetResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
}

// DiscoveryResponse wraps the targets of a discovery with its final state.
type DiscoveryResponse struct {
	State     string           `json:"state"`
	Available bool             `json:"available"`
	Targets   []TargetResponse `json:"targets"`
}

// ExportRequest is the JSON body for the export endpoint.
type ExportRequest struct {
	TargetID string `json:"target_id" validate:"required,max=512"`
	Title    string `json:"title" validate:"required,max=16384"`
	Content  string `json:"content" validate:"max=16384"`
}

// ExportResponse carries the reference to the created remote object.
type ExportResponse struct {
	State     string `json:"state"`
	Reference string `json:"reference"`
}

// ProviderResponse describes a declared provider type.
type ProviderResponse struct {
	Type      string `json:"type"`
	Supported bool   `json:"supported"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toIntegrationResponse converts a domain IntegrationConfig to its JSON representation.
func toIntegrationResponse(cfg model.IntegrationConfig, supported bool) IntegrationResponse {
	keys := cfg.CredentialKeys()
	slices.Sort(keys)

	return IntegrationResponse{
		ID:             cfg.ID,
		Type:           string(cfg.Type),
		Name:           cfg.Name,
		IsEnabled:      cfg.IsEnabled,
		CredentialKeys: keys,
		ConnectedAt:    cfg.ConnectedAtMillis(),
		Supported:      supported,
	}
}

// toDiscoveryResponse converts an application DiscoveryResult to its JSON representation.
func toDiscoveryResponse(result application.DiscoveryResult) DiscoveryResponse {
	targets := make([]TargetResponse, 0, len(result.Targets))
	for _, t := range result.Targets {
		targets = append(targets, TargetResponse{ID: t.ID, Name: t.Name, Group: t.Group})
	}

	return DiscoveryResponse{
		State:     string(result.State),
		Available: result.Available,
		Targets:   targets,
	}
}
