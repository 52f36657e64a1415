package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"speedguard/internal/model"
	"speedguard/internal/repository"
)

// SettingsRepository implements repository.SettingsRepository for SQLite.
type SettingsRepository struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetThreshold returns threshold_speed of row 1, or ErrNotFound when unset.
func (r *SettingsRepository) GetThreshold(ctx context.Context) (float64, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var threshold float64
	err := r.db.Conn().QueryRowContext(ctx, `SELECT threshold_speed FROM settings WHERE id = 1`).Scan(&threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read threshold: %w", err)
	}
	return threshold, nil
}

// SetThreshold upserts row 1.
func (r *SettingsRepository) SetThreshold(ctx context.Context, threshold float64) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO settings (id, threshold_speed) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET threshold_speed = excluded.threshold_speed
	`, threshold)
	if err != nil {
		return fmt.Errorf("failed to update threshold: %w", err)
	}
	return nil
}

// EmailConfigRepository implements repository.EmailConfigRepository for SQLite.
type EmailConfigRepository struct {
	db *DB
}

func NewEmailConfigRepository(db *DB) *EmailConfigRepository {
	return &EmailConfigRepository{db: db}
}

// Get returns the active configuration, or ErrNotFound.
func (r *EmailConfigRepository) Get(ctx context.Context) (*model.EmailConfig, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var cfg model.EmailConfig
	err := r.db.Conn().QueryRowContext(ctx, `
		SELECT sender_email, sender_password, receiver_email, updated_at
		FROM email_config ORDER BY id DESC LIMIT 1
	`).Scan(&cfg.SenderEmail, &cfg.SenderPassword, &cfg.ReceiverEmail, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read email config: %w", err)
	}
	return &cfg, nil
}

// Replace drops any existing configuration and stores cfg as the only row.
func (r *EmailConfigRepository) Replace(ctx context.Context, cfg *model.EmailConfig) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM email_config`); err != nil {
		return fmt.Errorf("failed to clear email config: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO email_config (sender_email, sender_password, receiver_email)
		VALUES (?, ?, ?)
	`, cfg.SenderEmail, cfg.SenderPassword, cfg.ReceiverEmail); err != nil {
		return fmt.Errorf("failed to insert email config: %w", err)
	}

	return tx.Commit()
}
