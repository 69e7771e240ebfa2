package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cancha/internal/domain"
	"cancha/internal/models"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

const bookingColumns = `id, series_id, client_name, client_email, client_phone, date, hour,
	play_status, payment_registered, payment_method, payment_reference,
	special_tariff_requested, special_tariff_name, special_tariff_id_number,
	special_tariff_status, tariff_eligible, created_by, created_at, updated_at`

// CreateBookings inserts every row in one transaction. The UNIQUE(date, hour)
// index is the authoritative duplicate check.
func (db *DB) CreateBookings(ctx context.Context, bookings []*models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare booking insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, b := range bookings {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		b.CreatedAt = now
		b.UpdatedAt = now

		_, err := stmt.ExecContext(ctx,
			b.ID,
			b.SeriesID,
			b.ClientName,
			b.ClientEmail,
			b.ClientPhone,
			b.Date.String(),
			b.Hour,
			string(b.PlayStatus),
			b.PaymentRegistered,
			string(b.PaymentMethod),
			b.PaymentReference,
			b.SpecialTariffRequested,
			b.SpecialTariffName,
			b.SpecialTariffIDNumber,
			string(b.SpecialTariffStatus),
			b.TariffEligible,
			b.CreatedBy,
			b.CreatedAt,
			b.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%s %s: %w", b.Date, b.Hour, domain.ErrSlotTaken)
			}
			return fmt.Errorf("failed to insert booking: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bookings: %w", err)
	}
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Date != nil {
		conds = append(conds, "date = ?")
		args = append(args, filter.Date.String())
	}
	if filter.From != nil {
		conds = append(conds, "date >= ?")
		args = append(args, filter.From.String())
	}
	if filter.To != nil {
		conds = append(conds, "date <= ?")
		args = append(args, filter.To.String())
	}
	if filter.PlayStatus != "" {
		conds = append(conds, "play_status = ?")
		args = append(args, string(filter.PlayStatus))
	}
	if filter.Paid != nil {
		conds = append(conds, "payment_registered = ?")
		args = append(args, *filter.Paid)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date ASC, hour ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) BookedHours(ctx context.Context, date civil.Date) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT hour FROM bookings WHERE date = ?`, date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get booked hours: %w", err)
	}
	defer rows.Close()

	var hours []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan hour: %w", err)
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

func (db *DB) FindConflicts(ctx context.Context, date civil.Date, hours []string, excludeID string) ([]string, error) {
	if len(hours) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(hours)+2)
	args = append(args, date.String())
	for _, h := range hours {
		args = append(args, h)
	}
	args = append(args, excludeID)

	query := fmt.Sprintf(`SELECT hour FROM bookings WHERE date = ? AND hour IN (%s) AND id <> ? ORDER BY hour`, placeholders(len(hours)))
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check conflicts: %w", err)
	}
	defer rows.Close()

	var taken []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan conflict: %w", err)
		}
		taken = append(taken, h)
	}
	return taken, rows.Err()
}

func (db *DB) UpdatePlayStatus(ctx context.Context, id string, status models.PlayStatus) (*models.Booking, error) {
	return db.updateBooking(ctx, id, `play_status = ?`, string(status))
}

func (db *DB) UpdateTariffStatus(ctx context.Context, id string, status models.TariffStatus, eligible bool) (*models.Booking, error) {
	return db.updateBooking(ctx, id, `special_tariff_status = ?, tariff_eligible = ?`, string(status), eligible)
}

func (db *DB) RegisterPayment(ctx context.Context, id string, method models.PaymentMethod, reference string) (*models.Booking, error) {
	return db.updateBooking(ctx, id, `payment_registered = 1, payment_method = ?, payment_reference = ?`, string(method), reference)
}

func (db *DB) RescheduleBooking(ctx context.Context, id string, date civil.Date, hour string) (*models.Booking, error) {
	b, err := db.updateBooking(ctx, id, `date = ?, hour = ?`, date.String(), hour)
	if err != nil && isUniqueViolation(err) {
		return nil, fmt.Errorf("%s %s: %w", date, hour, domain.ErrSlotTaken)
	}
	return b, err
}

func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
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

func (db *DB) updateBooking(ctx context.Context, id, set string, args ...any) (*models.Booking, error) {
	args = append(args, time.Now(), id)
	res, err := db.ExecContext(ctx, `UPDATE bookings SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}
	return db.GetBooking(ctx, id)
}

func scanBooking(r rowScanner) (*models.Booking, error) {
	var (
		b             models.Booking
		date          string
		playStatus    string
		paymentMethod string
		tariffStatus  string
		seriesID      sql.NullString
	)
	err := r.Scan(
		&b.ID,
		&seriesID,
		&b.ClientName,
		&b.ClientEmail,
		&b.ClientPhone,
		&date,
		&b.Hour,
		&playStatus,
		&b.PaymentRegistered,
		&paymentMethod,
		&b.PaymentReference,
		&b.SpecialTariffRequested,
		&b.SpecialTariffName,
		&b.SpecialTariffIDNumber,
		&tariffStatus,
		&b.TariffEligible,
		&b.CreatedBy,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.SeriesID = seriesID.String
	if b.Date, err = civil.ParseDate(date); err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	b.PlayStatus = models.PlayStatus(playStatus)
	b.PaymentMethod = models.PaymentMethod(paymentMethod)
	b.SpecialTariffStatus = models.TariffStatus(tariffStatus)
	return &b, nil
}
