package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/repositories"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/persistence/database"
)

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)

// SettingsRepository stores values as given; encryption of secret keys is the
// settings service's job.
type SettingsRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

func NewSettingsRepository(db *sql.DB, logger *logging.ChanneledLogger) *SettingsRepository {
	return &SettingsRepository{db: db, logger: logger}
}

// Get returns nil without error when the key was never set.
func (r *SettingsRepository) Get(ctx context.Context, key string) (*checkout.Setting, error) {
	query := `SELECT key, value, encrypted, updated_at FROM settings WHERE key = ?`

	start := time.Now()
	setting, err := scanSetting(r.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Setting query failed", "error", err.Error(), "key", key)
		return nil, err
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), "settings.get")
	return setting, nil
}

func (r *SettingsRepository) All(ctx context.Context) ([]*checkout.Setting, error) {
	query := `SELECT key, value, encrypted, updated_at FROM settings ORDER BY key`

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Database().Error("Settings query failed", "error", err.Error())
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := []*checkout.Setting{}
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), "settings.all")
	return settings, nil
}

// Set inserts or replaces a setting.
func (r *SettingsRepository) Set(ctx context.Context, setting *checkout.Setting) error {
	query := `INSERT INTO settings (key, value, encrypted, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, encrypted = excluded.encrypted, updated_at = excluded.updated_at`

	if setting.UpdatedAt.IsZero() {
		setting.UpdatedAt = time.Now().UTC()
	}

	start := time.Now()
	r.logger.Database().Debug("Executing setting upsert", "key", setting.Key, "encrypted", setting.Encrypted)

	if _, err := r.db.ExecContext(ctx, query, setting.Key, setting.Value, setting.Encrypted, formatTime(setting.UpdatedAt)); err != nil {
		r.logger.Database().Error("Setting upsert failed", "error", err.Error(), "key", setting.Key)
		return fmt.Errorf("failed to store setting: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Setting stored", "key", setting.Key, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "settings.set")
	return nil
}

func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM settings WHERE key = ?`

	start := time.Now()
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		r.logger.Database().Error("Setting delete failed", "error", err.Error(), "key", key)
		return fmt.Errorf("failed to delete setting: %w", err)
	}

	r.logger.Database().Info("Setting deleted", "key", key)
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start), "settings.delete")
	return nil
}

func scanSetting(row rowScanner) (*checkout.Setting, error) {
	var s checkout.Setting
	var updatedAt string
	if err := row.Scan(&s.Key, &s.Value, &s.Encrypted, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan setting: %w", err)
	}
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}
