package repository

import (
	"context"
	"errors"

	"speedguard/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ViolationRepository stores the one-per-track violation log (my_data).
type ViolationRepository interface {
	// Create operations
	Insert(ctx context.Context, rec *model.ViolationRecord) (int64, error)

	// Read operations
	GetLatest(ctx context.Context, limit int) ([]model.ViolationRecord, error)
	GetStats(ctx context.Context) (*model.Stats, error)
}

// BlacklistRepository manages blacklisted_vehicles.
type BlacklistRepository interface {
	Add(ctx context.Context, numberplate, reason string) error
	Remove(ctx context.Context, numberplate string) error
	IsBlacklisted(ctx context.Context, numberplate string) (bool, error)
	GetAll(ctx context.Context) ([]model.BlacklistEntry, error)
}

// SettingsRepository manages the single-row settings table.
type SettingsRepository interface {
	GetThreshold(ctx context.Context) (float64, error)
	SetThreshold(ctx context.Context, threshold float64) error
}

// EmailConfigRepository manages the single active email_config row.
type EmailConfigRepository interface {
	Get(ctx context.Context) (*model.EmailConfig, error)
	Replace(ctx context.Context, cfg *model.EmailConfig) error
}
