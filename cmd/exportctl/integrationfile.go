package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/exporthub/internal/domain/model"
	"github.com/ericfisherdev/exporthub/internal/domain/port/driven"
)

// integrationFile is the YAML document describing a single integration.
// Credential values may reference environment variables as $VAR or ${VAR}.
type integrationFile struct {
	Type        string            `yaml:"type"`
	Name        string            `yaml:"name"`
	Enabled     *bool             `yaml:"enabled"`
	Credentials map[string]string `yaml:"credentials"`
}

// loadIntegrationFile reads and validates an integration YAML file.
func loadIntegrationFile(path string) (model.IntegrationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.IntegrationConfig{}, fmt.Errorf("read integration file: %w", err)
	}

	var f integrationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return model.IntegrationConfig{}, fmt.Errorf("parse integration file %s: %w", path, err)
	}

	t, err := model.ParseIntegrationType(f.Type)
	if err != nil {
		return model.IntegrationConfig{}, fmt.Errorf("integration file %s: %w", path, err)
	}

	enabled := true
	if f.Enabled != nil {
		enabled = *f.Enabled
	}

	creds := make(map[string]string, len(f.Credentials))
	for k, v := range f.Credentials {
		creds[k] = os.ExpandEnv(v)
	}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = string(t)
	}

	return model.IntegrationConfig{
		ID:          "file:" + path,
		Type:        t,
		Name:        name,
		IsEnabled:   enabled,
		Credentials: creds,
	}, nil
}

var errReadOnlyStore = errors.New("integration file store is read-only")

// fileStore serves the single integration loaded from a file so the CLI can
// share the export service with the server.
type fileStore struct {
	cfg model.IntegrationConfig
}

var _ driven.IntegrationStore = (*fileStore)(nil)

func (s *fileStore) Upsert(context.Context, model.IntegrationConfig) (model.IntegrationConfig, error) {
	return model.IntegrationConfig{}, errReadOnlyStore
}

func (s *fileStore) GetByType(_ context.Context, t model.IntegrationType) (*model.IntegrationConfig, error) {
	if t != s.cfg.Type {
		return nil, nil
	}
	cfg := s.cfg
	return &cfg, nil
}

func (s *fileStore) ListAll(context.Context) ([]model.IntegrationConfig, error) {
	return []model.IntegrationConfig{s.cfg}, nil
}

func (s *fileStore) ListEnabled(context.Context) ([]model.IntegrationConfig, error) {
	if !s.cfg.IsEnabled {
		return []model.IntegrationConfig{}, nil
	}
	return []model.IntegrationConfig{s.cfg}, nil
}

func (s *fileStore) Delete(context.Context, model.IntegrationType) error {
	return errReadOnlyStore
}
