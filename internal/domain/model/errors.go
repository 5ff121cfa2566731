package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownIntegrationType is returned when a string does not name a declared provider.
	ErrUnknownIntegrationType = errors.New("unknown integration type")

	// ErrIntegrationNotFound is returned when no config is stored for a provider type.
	ErrIntegrationNotFound = errors.New("integration not found")

	// ErrIntegrationDisabled is returned when a stored config is switched off.
	ErrIntegrationDisabled = errors.New("integration disabled")
)

// MissingCredentialsError reports required credential fields that are absent
// or empty. Adapters return it before issuing any network request.
type MissingCredentialsError struct {
	Provider IntegrationType
	Keys     []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("%s: missing credentials: %s", e.Provider, strings.Join(e.Keys, ", "))
}

// ProviderRequestError carries a non-success response from a provider. Body is
// the raw response text.
type ProviderRequestError struct {
	Provider   IntegrationType
	Operation  string
	StatusCode int
	Body       string
}

func (e *ProviderRequestError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Provider, e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Provider, e.Operation, e.StatusCode, e.Body)
}
