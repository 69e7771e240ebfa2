package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"cancha/internal/domain"
	"cancha/internal/models"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(date civil.Date, hour string) *models.Booking {
	return &models.Booking{
		ClientName:          "Ana Pérez",
		ClientEmail:         "ana@example.com",
		ClientPhone:         "3001234567",
		Date:                date,
		Hour:                hour,
		PlayStatus:          models.PlayStatusPending,
		SpecialTariffStatus: models.TariffNotApplicable,
		CreatedBy:           "publico",
	}
}

func TestCreateBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	date := civil.Date{Year: 2026, Month: 10, Day: 20}

	bookings := []*models.Booking{newBooking(date, "10:00"), newBooking(date, "11:00")}
	require.NoError(t, db.CreateBookings(ctx, bookings))

	for _, b := range bookings {
		assert.NotEmpty(t, b.ID)
		assert.False(t, b.CreatedAt.IsZero())
	}

	got, err := db.GetBooking(ctx, bookings[0].ID)
	require.NoError(t, err)
	assert.Equal(t, date, got.Date)
	assert.Equal(t, "10:00", got.Hour)
	assert.Equal(t, "Ana Pérez", got.ClientName)
	assert.Equal(t, models.PlayStatusPending, got.PlayStatus)
	assert.Equal(t, models.TariffNotApplicable, got.SpecialTariffStatus)
	assert.False(t, got.PaymentRegistered)

	hours, err := db.BookedHours(ctx, date)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"10:00", "11:00"}, hours)

	require.NoError(t, db.CreateBookings(ctx, nil))
}

func TestCreateBookings_UniqueSlotIsAllOrNothing(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	date := civil.Date{Year: 2026, Month: 10, Day: 20}

	require.NoError(t, db.CreateBookings(ctx, []*models.Booking{newBooking(date, "11:00")}))

	batch := []*models.Booking{newBooking(date, "10:00"), newBooking(date, "11:00")}
	err := db.CreateBookings(ctx, batch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSlotTaken))
	assert.Contains(t, err.Error(), "11:00")

	hours, err := db.BookedHours(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, []string{"11:00"}, hours)
}

func TestCreateBookings_Concurrent(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "concurrency.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	date := civil.Date{Year: 2026, Month: 11, Day: 2}

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- db.CreateBookings(ctx, []*models.Booking{newBooking(date, "18:00")})
		}()
	}
	wg.Wait()
	close(results)

	var ok, taken int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrSlotTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, taken)
}

func TestFindConflicts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	date := civil.Date{Year: 2026, Month: 10, Day: 20}

	existing := newBooking(date, "11:00")
	require.NoError(t, db.CreateBookings(ctx, []*models.Booking{existing, newBooking(date, "13:00")}))

	taken, err := db.FindConflicts(ctx, date, []string{"10:00", "11:00", "12:00", "13:00"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"11:00", "13:00"}, taken)

	taken, err = db.FindConflicts(ctx, date, []string{"11:00"}, existing.ID)
	require.NoError(t, err)
	assert.Empty(t, taken)

	taken, err = db.FindConflicts(ctx, date.AddDays(1), []string{"11:00"}, "")
	require.NoError(t, err)
	assert.Empty(t, taken)

	taken, err = db.FindConflicts(ctx, date, nil, "")
	require.NoError(t, err)
	assert.Nil(t, taken)
}

func TestListBookings_Filters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	d1 := civil.Date{Year: 2026, Month: 10, Day: 20}
	d2 := civil.Date{Year: 2026, Month: 10, Day: 21}
	d3 := civil.Date{Year: 2026, Month: 10, Day: 25}

	played := newBooking(d1, "09:00")
	played.PlayStatus = models.PlayStatusPlayed
	paid := newBooking(d2, "12:00")
	paid.PaymentRegistered = true
	paid.PaymentMethod = models.PaymentCash
	require.NoError(t, db.CreateBookings(ctx, []*models.Booking{
		newBooking(d1, "10:00"), played, paid, newBooking(d3, "08:00"),
	}))

	all, err := db.ListBookings(ctx, models.BookingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "09:00", all[0].Hour)
	assert.Equal(t, d3, all[3].Date)

	byDate, err := db.ListBookings(ctx, models.BookingFilter{Date: &d1})
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	ranged, err := db.ListBookings(ctx, models.BookingFilter{From: &d2, To: &d3})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	byStatus, err := db.ListBookings(ctx, models.BookingFilter{PlayStatus: models.PlayStatusPlayed})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, played.ID, byStatus[0].ID)

	yes := true
	byPaid, err := db.ListBookings(ctx, models.BookingFilter{Paid: &yes})
	require.NoError(t, err)
	require.Len(t, byPaid, 1)
	assert.Equal(t, models.PaymentCash, byPaid[0].PaymentMethod)
}

func TestUpdateBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	date := civil.Date{Year: 2026, Month: 10, Day: 20}

	b := newBooking(date, "15:00")
	b.SpecialTariffRequested = true
	b.SpecialTariffStatus = models.TariffPending
	require.NoError(t, db.CreateBookings(ctx, []*models.Booking{b}))

	got, err := db.UpdatePlayStatus(ctx, b.ID, models.PlayStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.PlayStatusApproved, got.PlayStatus)

	got, err = db.UpdateTariffStatus(ctx, b.ID, models.TariffApproved, true)
	require.NoError(t, err)
	assert.Equal(t, models.TariffApproved, got.SpecialTariffStatus)
	assert.True(t, got.TariffEligible)

	got, err = db.RegisterPayment(ctx, b.ID, models.PaymentNequi, "NQ-123")
	require.NoError(t, err)
	assert.True(t, got.PaymentRegistered)
	assert.Equal(t, models.PaymentNequi, got.PaymentMethod)
	assert.Equal(t, "NQ-123", got.PaymentReference)

	_, err = db.UpdatePlayStatus(ctx, "missing", models.PlayStatusPlayed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRescheduleBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	date := civil.Date{Year: 2026, Month: 10, Day: 20}

	a := newBooking(date, "10:00")
	b := newBooking(date, "11:00")
	require.NoError(t, db.CreateBookings(ctx, []*models.Booking{a, b}))

	moved, err := db.RescheduleBooking(ctx, a.ID, date.AddDays(1), "19:00")
	require.NoError(t, err)
	assert.Equal(t, date.AddDays(1), moved.Date)
	assert.Equal(t, "19:00", moved.Hour)

	_, err = db.RescheduleBooking(ctx, a.ID, date, "11:00")
	assert.ErrorIs(t, err, domain.ErrSlotTaken)

	_, err = db.RescheduleBooking(ctx, "missing", date, "12:00")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	date := civil.Date{Year: 2026, Month: 10, Day: 20}

	b := newBooking(date, "10:00")
	require.NoError(t, db.CreateBookings(ctx, []*models.Booking{b}))

	require.NoError(t, db.DeleteBooking(ctx, b.ID))
	_, err := db.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, db.DeleteBooking(ctx, b.ID), domain.ErrNotFound)

	// The freed slot can be booked again.
	require.NoError(t, db.CreateBookings(ctx, []*models.Booking{newBooking(date, "10:00")}))
}

func TestBookings_ClosedDB(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	ctx := context.Background()
	date := civil.Date{Year: 2026, Month: 10, Day: 20}

	assert.Error(t, db.CreateBookings(ctx, []*models.Booking{newBooking(date, "10:00")}))
	_, err = db.GetBooking(ctx, "x")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	_, err = db.ListBookings(ctx, models.BookingFilter{})
	assert.Error(t, err)
	_, err = db.BookedHours(ctx, date)
	assert.Error(t, err)
	_, err = db.FindConflicts(ctx, date, []string{"10:00"}, "")
	assert.Error(t, err)
	assert.Error(t, db.DeleteBooking(ctx, "x"))
}
