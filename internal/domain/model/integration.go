package model

import (
	"fmt"
	"strings"
	"time"
)

// IntegrationType identifies a third-party task-tracking provider.
type IntegrationType string

const (
	IntegrationTrello  IntegrationType = "trello"
	IntegrationNotion  IntegrationType = "notion"
	IntegrationJira    IntegrationType = "jira"
	IntegrationAsana   IntegrationType = "asana"
	IntegrationSlack   IntegrationType = "slack"
	IntegrationGitHub  IntegrationType = "github"
	IntegrationClickUp IntegrationType = "clickup"
	IntegrationMonday  IntegrationType = "monday"
)

// IntegrationTypes lists every declared provider type, implemented or not.
var IntegrationTypes = []IntegrationType{
	IntegrationTrello,
	IntegrationNotion,
	IntegrationJira,
	IntegrationAsana,
	IntegrationSlack,
	IntegrationGitHub,
	IntegrationClickUp,
	IntegrationMonday,
}

// ParseIntegrationType converts a raw string into an IntegrationType.
// Matching is case-insensitive; unknown values return ErrUnknownIntegrationType.
func ParseIntegrationType(s string) (IntegrationType, error) {
	candidate := IntegrationType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range IntegrationTypes {
		if t == candidate {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIntegrationType, s)
}

// Credential keys understood by provider adapters. The generic model does not
// validate which keys are present; each adapter checks its own requirements.
const (
	CredentialAPIKey      = "apiKey"
	CredentialAPIToken    = "apiToken"
	CredentialWorkspaceID = "workspaceId"
)

// IntegrationConfig is a stored connection to a provider. There is at most one
// canonical config per Type; the storage layer keys records by Type.
type IntegrationConfig struct {
	ID          string
	Type        IntegrationType
	Name        string
	IsEnabled   bool
	Credentials map[string]string
	ConnectedAt time.Time
}

// Credential returns the trimmed value for key, or "" when it is absent.
func (c IntegrationConfig) Credential(key string) string {
	return strings.TrimSpace(c.Credentials[key])
}

// MissingCredentials returns the subset of keys that are absent or blank,
// preserving the order in which they were requested.
func (c IntegrationConfig) MissingCredentials(keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if c.Credential(k) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// CredentialKeys returns the names of the stored credentials without their values.
func (c IntegrationConfig) CredentialKeys() []string {
	keys := make([]string, 0, len(c.Credentials))
	for k := range c.Credentials {
		keys = append(keys, k)
	}
	return keys
}

// ConnectedAtMillis returns ConnectedAt as Unix epoch milliseconds.
func (c IntegrationConfig) ConnectedAtMillis() int64 {
	if c.ConnectedAt.IsZero() {
		return 0
	}
	return c.ConnectedAt.UnixMilli()
}
