package domain

import (
	"context"
	"time"

	"cancha/internal/models"

	"cloud.google.com/go/civil"
)

// BookingRepository persists booking rows. Implementations enforce a unique
// (date, hour) pair and report violations as ErrSlotTaken.
type BookingRepository interface {
	// CreateBookings inserts all rows or none.
	CreateBookings(ctx context.Context, bookings []*models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	// BookedHours lists the hours already taken on date, unordered.
	BookedHours(ctx context.Context, date civil.Date) ([]string, error)
	// FindConflicts returns which of hours are taken on date, ignoring excludeID.
	FindConflicts(ctx context.Context, date civil.Date, hours []string, excludeID string) ([]string, error)
	UpdatePlayStatus(ctx context.Context, id string, status models.PlayStatus) (*models.Booking, error)
	UpdateTariffStatus(ctx context.Context, id string, status models.TariffStatus, eligible bool) (*models.Booking, error)
	RegisterPayment(ctx context.Context, id string, method models.PaymentMethod, reference string) (*models.Booking, error)
	RescheduleBooking(ctx context.Context, id string, date civil.Date, hour string) (*models.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

type ScheduleRepository interface {
	// FindOverride returns the override winning for date, or nil.
	FindOverride(ctx context.Context, date civil.Date) (*models.ScheduleOverride, error)
	ListOverrides(ctx context.Context) ([]*models.ScheduleOverride, error)
	CreateOverride(ctx context.Context, override *models.ScheduleOverride) error
	DeleteOverride(ctx context.Context, id string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// Repository is the full store handed to services at startup.
type Repository interface {
	BookingRepository
	ScheduleRepository
	UserRepository
	Ping(ctx context.Context) error
	Close() error
}

// RateLimitRepository counts attempts per key inside a window.
type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker mirrors booking changes to an external sheet asynchronously.
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error
}
