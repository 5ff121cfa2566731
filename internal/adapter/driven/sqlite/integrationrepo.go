package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/exporthub/internal/domain/model"
	"github.com/ericfisherdev/exporthub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IntegrationStore = (*IntegrationRepo)(nil)

// IntegrationRepo is the SQLite implementation of the IntegrationStore port.
// The credential bag is JSON-encoded and encrypted with AES-256-GCM; the
// remaining columns are stored in clear. Rows are keyed by type.
type IntegrationRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil disables credential access.
	now func() time.Time
}

// NewIntegrationRepo creates a new IntegrationRepo. key must be 32 bytes for
// AES-256-GCM, or nil, in which case every operation that reads or writes
// credentials returns driven.ErrEncryptionKeyNotSet.
func NewIntegrationRepo(db *DB, key []byte) *IntegrationRepo {
	return &IntegrationRepo{db: db, key: key, now: time.Now}
}

// Upsert creates or replaces the config for cfg.Type. On replace, the stored
// ID and ConnectedAt are kept so the connection identity survives credential
// updates.
func (r *IntegrationRepo) Upsert(ctx context.Context, cfg model.IntegrationConfig) (model.IntegrationConfig, error) {
	if r.key == nil {
		return model.IntegrationConfig{}, driven.ErrEncryptionKeyNotSet
	}

	creds := cfg.Credentials
	if creds == nil {
		creds = map[string]string{}
	}
	plain, err := json.Marshal(creds)
	if err != nil {
		return model.IntegrationConfig{}, fmt.Errorf("encode credentials for %q: %w", cfg.Type, err)
	}
	encrypted, err := encrypt(r.key, plain, []byte(cfg.Type))
	if err != nil {
		return model.IntegrationConfig{}, fmt.Errorf("encrypt credentials for %q: %w", cfg.Type, err)
	}

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.ConnectedAt.IsZero() {
		cfg.ConnectedAt = r.now()
	}

	const query = `
		INSERT INTO integrations (type, id, name, is_enabled, credentials, connected_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(type) DO UPDATE SET
			name        = excluded.name,
			is_enabled  = excluded.is_enabled,
			credentials = excluded.credentials,
			updated_at  = CURRENT_TIMESTAMP
		RETURNING id, connected_at`

	var connectedAt int64
	err = r.db.Writer.QueryRowContext(ctx, query,
		string(cfg.Type),
		cfg.ID,
		cfg.Name,
		boolToInt(cfg.IsEnabled),
		encrypted,
		cfg.ConnectedAt.UnixMilli(),
	).Scan(&cfg.ID, &connectedAt)
	if err != nil {
		return model.IntegrationConfig{}, fmt.Errorf("upsert integration %q: %w", cfg.Type, err)
	}

	cfg.ConnectedAt = time.UnixMilli(connectedAt).UTC()
	cfg.Credentials = creds

	return cfg, nil
}

// GetByType returns the config stored for t, or nil, nil if none exists.
func (r *IntegrationRepo) GetByType(ctx context.Context, t model.IntegrationType) (*model.IntegrationConfig, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT type, id, name, is_enabled, credentials, connected_at FROM integrations WHERE type = ?`

	cfg, err := r.scan(r.db.Reader.QueryRowContext(ctx, query, string(t)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get integration %q: %w", t, err)
	}

	return &cfg, nil
}

// ListAll returns every stored config ordered by type.
func (r *IntegrationRepo) ListAll(ctx context.Context) ([]model.IntegrationConfig, error) {
	const query = `SELECT type, id, name, is_enabled, credentials, connected_at FROM integrations ORDER BY type`
	return r.list(ctx, query)
}

// ListEnabled returns configs with is_enabled set, ordered by type.
func (r *IntegrationRepo) ListEnabled(ctx context.Context) ([]model.IntegrationConfig, error) {
	const query = `SELECT type, id, name, is_enabled, credentials, connected_at FROM integrations WHERE is_enabled = 1 ORDER BY type`
	return r.list(ctx, query)
}

// Delete removes the config for t. Returns model.ErrIntegrationNotFound when
// nothing was stored.
func (r *IntegrationRepo) Delete(ctx context.Context, t model.IntegrationType) error {
	const query = `DELETE FROM integrations WHERE type = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, string(t))
	if err != nil {
		return fmt.Errorf("delete integration %q: %w", t, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete integration %q: %w", t, model.ErrIntegrationNotFound)
	}

	return nil
}

func (r *IntegrationRepo) list(ctx context.Context, query string) ([]model.IntegrationConfig, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	defer rows.Close()

	configs := []model.IntegrationConfig{}
	for rows.Next() {
		cfg, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate integrations: %w", err)
	}

	return configs, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *IntegrationRepo) scan(row rowScanner) (model.IntegrationConfig, error) {
	var (
		cfg         model.IntegrationConfig
		typ         string
		enabled     int
		encrypted   string
		connectedAt int64
	)

	if err := row.Scan(&typ, &cfg.ID, &cfg.Name, &enabled, &encrypted, &connectedAt); err != nil {
		return model.IntegrationConfig{}, err
	}

	plain, err := decrypt(r.key, encrypted, []byte(typ))
	if err != nil {
		return model.IntegrationConfig{}, fmt.Errorf("decrypt credentials for %q: %w", typ, err)
	}
	if err := json.Unmarshal(plain, &cfg.Credentials); err != nil {
		return model.IntegrationConfig{}, fmt.Errorf("decode credentials for %q: %w", typ, err)
	}

	cfg.Type = model.IntegrationType(typ)
	cfg.IsEnabled = enabled != 0
	cfg.ConnectedAt = time.UnixMilli(connectedAt).UTC()

	return cfg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
