package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/exporthub/internal/domain/model"
)

func TestParseIntegrationType(t *testing.T) {
	got, err := model.ParseIntegrationType(" Trello ")
	require.NoError(t, err)
	assert.Equal(t, model.IntegrationTrello, got)

	_, err = model.ParseIntegrationType("basecamp")
	require.ErrorIs(t, err, model.ErrUnknownIntegrationType)
}

func TestIntegrationConfig_MissingCredentials(t *testing.T) {
	cfg := model.IntegrationConfig{
		Type: model.IntegrationTrello,
		Credentials: map[string]string{
			model.CredentialAPIKey:   "k",
			model.CredentialAPIToken: "   ",
		},
	}

	missing := cfg.MissingCredentials(model.CredentialAPIKey, model.CredentialAPIToken, model.CredentialWorkspaceID)
	assert.Equal(t, []string{model.CredentialAPIToken, model.CredentialWorkspaceID}, missing)

	var nilCreds model.IntegrationConfig
	assert.Equal(t, []string{model.CredentialAPIKey}, nilCreds.MissingCredentials(model.CredentialAPIKey))
}

func TestIntegrationConfig_ConnectedAtMillis(t *testing.T) {
	cfg := model.IntegrationConfig{ConnectedAt: time.UnixMilli(1760000000123).UTC()}
	assert.Equal(t, int64(1760000000123), cfg.ConnectedAtMillis())
	assert.Zero(t, model.IntegrationConfig{}.ConnectedAtMillis())
}

func TestProviderRequestError_Message(t *testing.T) {
	err := &model.ProviderRequestError{
		Provider:   model.IntegrationTrello,
		Operation:  "create card",
		StatusCode: 401,
		Body:       "invalid token",
	}
	assert.Equal(t, "trello create card: HTTP 401: invalid token", err.Error())
}

func TestExportState_IsTerminal(t *testing.T) {
	assert.False(t, model.ExportStateIdle.IsTerminal())
	assert.False(t, model.ExportStateDiscovering.IsTerminal())
	assert.True(t, model.ExportStateTargetsReady.IsTerminal())
	assert.True(t, model.ExportStateExportFailed.IsTerminal())
}
