package sqlite

import (
	"context"
	"fmt"

	"speedguard/internal/model"
	"speedguard/internal/repository"
)

// BlacklistRepository implements repository.BlacklistRepository for SQLite.
type BlacklistRepository struct {
	db *DB
}

// NewBlacklistRepository creates a new SQLite blacklist repository.
func NewBlacklistRepository(db *DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Add blacklists a plate. Adding an existing plate updates its reason.
func (r *BlacklistRepository) Add(ctx context.Context, numberplate, reason string) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO blacklisted_vehicles (numberplate, reason) VALUES (?, ?)
		ON CONFLICT(numberplate) DO UPDATE SET reason = excluded.reason
	`, numberplate, reason)
	if err != nil {
		return fmt.Errorf("failed to blacklist %s: %w", numberplate, err)
	}
	return nil
}

// Remove deletes a plate from the blacklist.
func (r *BlacklistRepository) Remove(ctx context.Context, numberplate string) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().ExecContext(ctx, `DELETE FROM blacklisted_vehicles WHERE numberplate = ?`, numberplate)
	if err != nil {
		return fmt.Errorf("failed to remove %s from blacklist: %w", numberplate, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove %s from blacklist: %w", numberplate, err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IsBlacklisted reports whether the exact plate text is blacklisted.
func (r *BlacklistRepository) IsBlacklisted(ctx context.Context, numberplate string) (bool, error) {
	if numberplate == "" {
		return false, nil
	}

	r.db.RLock()
	defer r.db.RUnlock()

	var exists bool
	err := r.db.Conn().QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM blacklisted_vehicles WHERE numberplate = ?)`, numberplate).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists, nil
}

// GetAll lists blacklisted plates, newest first.
func (r *BlacklistRepository) GetAll(ctx context.Context) ([]model.BlacklistEntry, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT numberplate, reason, created_at
		FROM blacklisted_vehicles ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query blacklist: %w", err)
	}
	defer rows.Close()

	entries := make([]model.BlacklistEntry, 0)
	for rows.Next() {
		var e model.BlacklistEntry
		if err := rows.Scan(&e.Numberplate, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blacklist entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
