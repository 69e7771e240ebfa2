package supabasedb

import (
	"context"

	"cancha/internal/domain"
	"cancha/internal/models"

	"cloud.google.com/go/civil"
)

// Unconfigured stands in for the store when credentials are missing. Reads
// on the availability path fall back to defaults; everything else reports 503.
type Unconfigured struct{}

var _ domain.Repository = Unconfigured{}

func (Unconfigured) CreateBookings(context.Context, []*models.Booking) error {
	return domain.ErrStoreUnavailable
}

func (Unconfigured) GetBooking(context.Context, string) (*models.Booking, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) ListBookings(context.Context, models.BookingFilter) ([]*models.Booking, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) BookedHours(context.Context, civil.Date) ([]string, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) FindConflicts(context.Context, civil.Date, []string, string) ([]string, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) UpdatePlayStatus(context.Context, string, models.PlayStatus) (*models.Booking, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) UpdateTariffStatus(context.Context, string, models.TariffStatus, bool) (*models.Booking, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) RegisterPayment(context.Context, string, models.PaymentMethod, string) (*models.Booking, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) RescheduleBooking(context.Context, string, civil.Date, string) (*models.Booking, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) DeleteBooking(context.Context, string) error {
	return domain.ErrStoreUnavailable
}

func (Unconfigured) FindOverride(context.Context, civil.Date) (*models.ScheduleOverride, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) ListOverrides(context.Context) ([]*models.ScheduleOverride, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) CreateOverride(context.Context, *models.ScheduleOverride) error {
	return domain.ErrStoreUnavailable
}

func (Unconfigured) DeleteOverride(context.Context, string) error {
	return domain.ErrStoreUnavailable
}

func (Unconfigured) CreateUser(context.Context, *models.User) error {
	return domain.ErrStoreUnavailable
}

func (Unconfigured) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) GetUserByID(context.Context, string) (*models.User, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) ListUsers(context.Context) ([]*models.User, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Unconfigured) UpdateUser(context.Context, *models.User) error {
	return domain.ErrStoreUnavailable
}

func (Unconfigured) Ping(context.Context) error {
	return domain.ErrStoreUnavailable
}

func (Unconfigured) Close() error {
	return nil
}
