package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cancha/internal/domain"
	"cancha/internal/models"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

const overrideColumns = `id, date_start, date_end, hour_open, hour_close, created_at`

// FindOverride returns the override with the latest date_start covering date.
func (db *DB) FindOverride(ctx context.Context, date civil.Date) (*models.ScheduleOverride, error) {
	d := date.String()
	row := db.QueryRowContext(ctx, `SELECT `+overrideColumns+` FROM schedule_overrides
		WHERE date_start <= ? AND date_end >= ?
		ORDER BY date_start DESC, created_at DESC
		LIMIT 1`, d, d)

	o, err := scanOverride(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find schedule override: %w", err)
	}
	return o, nil
}

func (db *DB) ListOverrides(ctx context.Context) ([]*models.ScheduleOverride, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+overrideColumns+` FROM schedule_overrides ORDER BY date_start DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule overrides: %w", err)
	}
	defer rows.Close()

	var out []*models.ScheduleOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule override: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (db *DB) CreateOverride(ctx context.Context, o *models.ScheduleOverride) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = time.Now()

	_, err := db.ExecContext(ctx, `INSERT INTO schedule_overrides (`+overrideColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.DateStart.String(), o.DateEnd.String(), o.HourOpen, o.HourClose, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create schedule override: %w", err)
	}
	return nil
}

func (db *DB) DeleteOverride(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM schedule_overrides WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule override: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanOverride(r rowScanner) (*models.ScheduleOverride, error) {
	var (
		o          models.ScheduleOverride
		start, end string
	)
	if err := r.Scan(&o.ID, &start, &end, &o.HourOpen, &o.HourClose, &o.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if o.DateStart, err = civil.ParseDate(start); err != nil {
		return nil, fmt.Errorf("invalid stored date_start %q: %w", start, err)
	}
	if o.DateEnd, err = civil.ParseDate(end); err != nil {
		return nil, fmt.Errorf("invalid stored date_end %q: %w", end, err)
	}
	return &o, nil
}
