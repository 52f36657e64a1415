package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"speedguard/internal/model"
)

const topViolatorsLimit = 5

// ViolationRepository implements repository.ViolationRepository for SQLite.
type ViolationRepository struct {
	db *DB
}

// NewViolationRepository creates a new SQLite violation repository.
func NewViolationRepository(db *DB) *ViolationRepository {
	return &ViolationRepository{db: db}
}

// Insert adds a new violation record to my_data.
func (r *ViolationRepository) Insert(ctx context.Context, rec *model.ViolationRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO my_data (date, time, track_id, class_name, speed, numberplate, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.Date, rec.Time, rec.TrackID, rec.ClassName, rec.Speed, rec.Numberplate, string(rec.Status))
	if err != nil {
		return 0, fmt.Errorf("failed to insert violation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get violation id: %w", err)
	}
	rec.ID = id
	return id, nil
}

// GetLatest returns the most recent records, newest first.
func (r *ViolationRepository) GetLatest(ctx context.Context, limit int) ([]model.ViolationRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT id, date, time, track_id, class_name, speed, numberplate, status
		FROM my_data ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query violations: %w", err)
	}
	defer rows.Close()

	records := make([]model.ViolationRecord, 0)
	for rows.Next() {
		var rec model.ViolationRecord
		var status string
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Time, &rec.TrackID, &rec.ClassName, &rec.Speed, &rec.Numberplate, &status); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		rec.Status = model.Status(status)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetStats aggregates my_data for the dashboard.
func (r *ViolationRepository) GetStats(ctx context.Context) (*model.Stats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	conn := r.db.Conn()
	stats := &model.Stats{TopViolators: make([]model.TopViolator, 0)}

	var avg sql.NullFloat64
	err := conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			AVG(speed),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM my_data
	`, string(model.StatusOverSpeed), string(model.StatusBlacklisted)).
		Scan(&stats.TotalVehicles, &avg, &stats.Overspeeding, &stats.Blacklisted)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate violations: %w", err)
	}
	if avg.Valid {
		stats.AverageSpeed = math.Round(avg.Float64*100) / 100
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT numberplate, COUNT(*) AS violation_count
		FROM my_data
		WHERE status IN (?, ?)
		GROUP BY numberplate
		ORDER BY violation_count DESC, numberplate
		LIMIT ?
	`, string(model.StatusOverSpeed), string(model.StatusBlacklisted), topViolatorsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top violators: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tv model.TopViolator
		if err := rows.Scan(&tv.Numberplate, &tv.ViolationCount); err != nil {
			return nil, fmt.Errorf("failed to scan top violator: %w", err)
		}
		stats.TopViolators = append(stats.TopViolators, tv)
	}

	return stats, rows.Err()
}
