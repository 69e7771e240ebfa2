package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cancha/internal/config"
	"cancha/internal/database"
	"cancha/internal/domain"
	"cancha/internal/models"
	"cancha/internal/pricing"
	"cancha/internal/schedule"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var bogota = time.FixedZone("America/Bogota", schedule.BogotaOffset)

// now is Friday 2026-10-16 10:30 in Bogota.
var now = time.Date(2026, 10, 16, 10, 30, 0, 0, bogota)

var testRates = config.PricingConfig{
	CutoffHour:   18,
	TariffDay:    60000,
	TariffNight:  80000,
	Weekend:      120000,
	WeekdayDay:   80000,
	WeekdayNight: 110000,
	UnitPrice:    100000,
}

func setupDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "cancha.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testClock() *schedule.Clock {
	return schedule.FixedClock(bogota, now)
}

func testCalculator() *pricing.Calculator {
	return pricing.NewCalculator(testRates, []pricing.Holiday{
		{Date: civil.Date{Year: 2026, Month: 12, Day: 8}, Name: "Inmaculada Concepción"},
	})
}

func newTestBookingService(repo domain.BookingRepository, finder schedule.OverrideFinder, bus domain.EventPublisher, sheets domain.SyncWorker) *BookingService {
	resolver := schedule.NewResolver(finder, 8, 21, nil)
	limits := config.BookingConfig{MaxConsecutiveHours: 3, MaxRecurrenceWeeks: 52}
	return NewBookingService(repo, resolver, testClock(), limits, bus, sheets, nil)
}

func validRequest(date string, hours ...string) BookingRequest {
	return BookingRequest{
		ClientName:  "Ana Pérez",
		ClientEmail: "Ana@Example.com",
		ClientPhone: "3001234567",
		Date:        date,
		Hours:       hours,
	}
}

func mustDate(raw string) civil.Date {
	d, err := civil.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// mockBookingRepo fails the test on any call without an expectation.
type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) CreateBookings(ctx context.Context, bookings []*models.Booking) error {
	return m.Called(ctx, bookings).Error(0)
}

func (m *mockBookingRepo) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *mockBookingRepo) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	args := m.Called(ctx, filter)
	b, _ := args.Get(0).([]*models.Booking)
	return b, args.Error(1)
}

func (m *mockBookingRepo) BookedHours(ctx context.Context, d civil.Date) ([]string, error) {
	args := m.Called(ctx, d)
	h, _ := args.Get(0).([]string)
	return h, args.Error(1)
}

func (m *mockBookingRepo) FindConflicts(ctx context.Context, d civil.Date, hours []string, excludeID string) ([]string, error) {
	args := m.Called(ctx, d, hours, excludeID)
	h, _ := args.Get(0).([]string)
	return h, args.Error(1)
}

func (m *mockBookingRepo) UpdatePlayStatus(ctx context.Context, id string, status models.PlayStatus) (*models.Booking, error) {
	args := m.Called(ctx, id, status)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *mockBookingRepo) UpdateTariffStatus(ctx context.Context, id string, status models.TariffStatus, eligible bool) (*models.Booking, error) {
	args := m.Called(ctx, id, status, eligible)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *mockBookingRepo) RegisterPayment(ctx context.Context, id string, method models.PaymentMethod, reference string) (*models.Booking, error) {
	args := m.Called(ctx, id, method, reference)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *mockBookingRepo) RescheduleBooking(ctx context.Context, id string, d civil.Date, hour string) (*models.Booking, error) {
	args := m.Called(ctx, id, d, hour)
	b, _ := args.Get(0).(*models.Booking)
	return b, args.Error(1)
}

func (m *mockBookingRepo) DeleteBooking(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type recordedTask struct {
	Type      string
	BookingID string
}

type fakeSync struct {
	mu    sync.Mutex
	tasks []recordedTask
}

func (f *fakeSync) EnqueueTask(_ context.Context, taskType string, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, recordedTask{Type: taskType, BookingID: b.ID})
	return nil
}

func (f *fakeSync) recorded() []recordedTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedTask(nil), f.tasks...)
}
