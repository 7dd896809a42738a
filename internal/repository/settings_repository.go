package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/youscore-api/internal/models"
)

// SettingsRepository persists per-user application settings as a JSON document.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

type settingsRow struct {
	UserID    string    `db:"user_id"`
	Document  []byte    `db:"document"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Get fetches the stored settings for a user. Returns sql.ErrNoRows when the
// user has never saved settings.
func (r *SettingsRepository) Get(ctx context.Context, userID string) (*models.AppSettings, error) {
	const query = `SELECT user_id, document, updated_at FROM user_settings WHERE user_id = $1`
	var row settingsRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	var settings models.AppSettings
	if err := json.Unmarshal(row.Document, &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &settings, nil
}

// Upsert stores the settings document for a user.
func (r *SettingsRepository) Upsert(ctx context.Context, userID string, settings *models.AppSettings) error {
	document, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	row := settingsRow{UserID: userID, Document: document, UpdatedAt: time.Now().UTC()}
	const query = `INSERT INTO user_settings (user_id, document, updated_at)
        VALUES (:user_id, :document, :updated_at)
        ON CONFLICT (user_id)
        DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// Delete removes the stored settings for a user.
func (r *SettingsRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM user_settings WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}
