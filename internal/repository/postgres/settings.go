package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RMahshie/rfcontrol/internal/repository"
	"github.com/RMahshie/rfcontrol/pkg/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS settings_changes (
		id         UUID PRIMARY KEY,
		device_id  TEXT NOT NULL,
		field      TEXT NOT NULL,
		value      DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS settings_changes_device_idx ON settings_changes (device_id, created_at DESC);`

// PostgresSettingsRepository implements SettingsRepository for PostgreSQL
type PostgresSettingsRepository struct {
	db *sql.DB
}

// NewPostgresSettingsRepository creates a new PostgreSQL settings repository
func NewPostgresSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

// EnsureSchema creates the settings_changes table if it does not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create settings schema: %w", err)
	}
	return nil
}

// RecordChange inserts a change record, filling in ID and CreatedAt when unset
func (r *PostgresSettingsRepository) RecordChange(ctx context.Context, change *models.SettingsChange) error {
	if change.ID == "" {
		change.ID = uuid.New().String()
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO settings_changes (id, device_id, field, value, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		change.ID,
		change.DeviceID,
		change.Field,
		change.Value,
		change.CreatedAt)

	return err
}

// ListChanges returns up to limit changes for a device, newest first
func (r *PostgresSettingsRepository) ListChanges(ctx context.Context, deviceID string, limit int) ([]*models.SettingsChange, error) {
	query := `
		SELECT id, device_id, field, value, created_at
		FROM settings_changes
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []*models.SettingsChange{}
	for rows.Next() {
		var change models.SettingsChange
		err := rows.Scan(
			&change.ID,
			&change.DeviceID,
			&change.Field,
			&change.Value,
			&change.CreatedAt)
		if err != nil {
			return nil, err
		}
		changes = append(changes, &change)
	}

	return changes, rows.Err()
}
