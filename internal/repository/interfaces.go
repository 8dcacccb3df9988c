package repository

import (
	"context"

	"github.com/RMahshie/rfcontrol/pkg/models"
)

// SettingsRepository defines the interface for the RF settings audit log
type SettingsRepository interface {
	RecordChange(ctx context.Context, change *models.SettingsChange) error
	ListChanges(ctx context.Context, deviceID string, limit int) ([]*models.SettingsChange, error)
}

// NopSettingsRepository discards changes. Used when no database is configured.
type NopSettingsRepository struct{}

func (NopSettingsRepository) RecordChange(ctx context.Context, change *models.SettingsChange) error {
	return nil
}

func (NopSettingsRepository) ListChanges(ctx context.Context, deviceID string, limit int) ([]*models.SettingsChange, error) {
	return []*models.SettingsChange{}, nil
}
