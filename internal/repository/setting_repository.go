package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
)

// SettingRepository provides data access methods for the system_setting
// table, a small key-value store for runtime configuration such as the
// CoinGecko API key.
type SettingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new SettingRepository with the provided database connection.
func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// GetSetting retrieves a single setting by key.
// Returns ErrSettingNotFound if the key is not stored.
func (r *SettingRepository) GetSetting(key string) (model.Setting, error) {
	query := `
        SELECT key, value, is_encrypted, updated_at
        FROM system_setting
        WHERE key = ?
    `

	var updatedAtStr string
	var s model.Setting

	err := r.db.QueryRow(query, key).Scan(
		&s.Key,
		&s.Value,
		&s.IsEncrypted,
		&updatedAtStr,
	)
	if err == sql.ErrNoRows {
		return model.Setting{}, apperrors.ErrSettingNotFound
	}
	if err != nil {
		return model.Setting{}, fmt.Errorf("failed to query system_setting table: %w", err)
	}

	s.UpdatedAt, err = ParseTime(updatedAtStr)
	if err != nil {
		return model.Setting{}, fmt.Errorf("failed to parse date: %w", err)
	}

	return s, nil
}

// GetSettings retrieves all stored settings sorted by key.
func (r *SettingRepository) GetSettings() ([]model.Setting, error) {
	query := `
        SELECT key, value, is_encrypted, updated_at
        FROM system_setting
        ORDER BY key ASC
    `

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query system_setting table: %w", err)
	}
	defer rows.Close()

	settings := []model.Setting{}

	for rows.Next() {
		var updatedAtStr string
		var s model.Setting

		err := rows.Scan(
			&s.Key,
			&s.Value,
			&s.IsEncrypted,
			&updatedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan system_setting table results: %w", err)
		}

		s.UpdatedAt, err = ParseTime(updatedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		settings = append(settings, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating system_setting table: %w", err)
	}

	return settings, nil
}

// UpsertSetting stores a setting value, replacing any existing row for the
// same key.
func (r *SettingRepository) UpsertSetting(ctx context.Context, s model.Setting) error {
	query := `
        INSERT INTO system_setting (key, value, is_encrypted, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, is_encrypted = excluded.is_encrypted, updated_at = excluded.updated_at
    `

	_, err := r.db.ExecContext(ctx, query,
		s.Key,
		s.Value,
		s.IsEncrypted,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert system_setting: %w", err)
	}

	return nil
}

// DeleteSetting removes a setting row.
// Returns ErrSettingNotFound if no row was deleted.
func (r *SettingRepository) DeleteSetting(ctx context.Context, key string) error {
	query := `DELETE FROM system_setting WHERE key = ?`

	result, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete system_setting: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.ErrSettingNotFound
	}

	return nil
}
