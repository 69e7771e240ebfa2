package service

import (
	"context"
	"regexp"
	"time"

	"cancha/internal/domain"
	"cancha/internal/models"
	"cancha/internal/pricing"
	"cancha/internal/schedule"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
)

const (
	PeriodDay   = "dia"
	PeriodMonth = "mes"

	msgStatsFailed = "Error al obtener estadísticas"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// TodaySummary is the operator's view of the current civil day.
type TodaySummary struct {
	Date     civil.Date        `json:"fecha"`
	Total    int               `json:"total"`
	Played   int               `json:"jugadas"`
	Pending  int               `json:"pendientes"`
	Bookings []*models.Booking `json:"reservas"`
}

// StatsService aggregates bookings for the dashboards.
type StatsService struct {
	repo      domain.BookingRepository
	clock     *schedule.Clock
	prices    *pricing.Calculator
	unitPrice int64
	logger    *zerolog.Logger
}

func NewStatsService(repo domain.BookingRepository, clock *schedule.Clock, prices *pricing.Calculator, unitPrice int64, logger *zerolog.Logger) *StatsService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &StatsService{
		repo:      repo,
		clock:     clock,
		prices:    prices,
		unitPrice: unitPrice,
		logger:    logger,
	}
}

func (s *StatsService) General(ctx context.Context) (*models.GeneralStats, error) {
	bookings, err := s.list(ctx, models.BookingFilter{})
	if err != nil {
		return nil, err
	}
	stats := &models.GeneralStats{Total: len(bookings)}
	for _, b := range bookings {
		if b.PlayStatus == models.PlayStatusPlayed {
			stats.Played++
		} else {
			stats.Pending++
		}
		if b.PaymentRegistered {
			stats.Paid++
		}
	}
	return stats, nil
}

// Collected totals paid bookings for one day (period "dia", value
// YYYY-MM-DD) or one month (period "mes", value YYYY-MM).
func (s *StatsService) Collected(ctx context.Context, period, value string) (*models.CollectedStats, error) {
	var from, to civil.Date
	switch period {
	case PeriodMonth:
		if !monthPattern.MatchString(value) {
			return nil, validationError("Mes inválido. Usa el formato YYYY-MM.")
		}
		first, err := civil.ParseDate(value + "-01")
		if err != nil {
			return nil, validationError("Mes inválido. Usa el formato YYYY-MM.")
		}
		from = first
		to = civil.DateOf(first.In(time.UTC).AddDate(0, 1, -1))
	default:
		d, err := parseDate(value)
		if err != nil {
			return nil, err
		}
		from, to = d, d
		value = d.String()
	}

	paid := true
	bookings, err := s.list(ctx, models.BookingFilter{From: &from, To: &to, Paid: &paid})
	if err != nil {
		return nil, err
	}

	stats := &models.CollectedStats{
		Period:    value,
		Paid:      len(bookings),
		UnitPrice: s.unitPrice,
		Total:     int64(len(bookings)) * s.unitPrice,
	}
	if s.prices != nil {
		for _, b := range bookings {
			stats.Estimated += s.prices.Price(b.Hour, b.Date, b.TariffEligible)
		}
	}
	return stats, nil
}

// PerDay groups the last 30 days of bookings by date.
func (s *StatsService) PerDay(ctx context.Context) ([]models.PeriodStat, error) {
	from := s.clock.Today().AddDays(-30)
	bookings, err := s.list(ctx, models.BookingFilter{From: &from})
	if err != nil {
		return nil, err
	}
	return groupBy(bookings, func(b *models.Booking) string { return b.Date.String() }), nil
}

// PerMonth groups the last 12 months of bookings by YYYY-MM.
func (s *StatsService) PerMonth(ctx context.Context) ([]models.PeriodStat, error) {
	from := s.clock.Today().AddDays(-365)
	bookings, err := s.list(ctx, models.BookingFilter{From: &from})
	if err != nil {
		return nil, err
	}
	return groupBy(bookings, func(b *models.Booking) string { return b.Date.String()[:7] }), nil
}

func (s *StatsService) Today(ctx context.Context) (*TodaySummary, error) {
	today := s.clock.Today()
	bookings, err := s.list(ctx, models.BookingFilter{Date: &today})
	if err != nil {
		return nil, err
	}
	summary := &TodaySummary{Date: today, Total: len(bookings), Bookings: bookings}
	for _, b := range bookings {
		if b.PlayStatus == models.PlayStatusPlayed {
			summary.Played++
		} else {
			summary.Pending++
		}
	}
	return summary, nil
}

func (s *StatsService) list(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	bookings, err := s.repo.ListBookings(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("load bookings for stats")
		return nil, storeError(err, "", msgStatsFailed)
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return bookings, nil
}

// groupBy keeps the order of bookings, which the store returns by date.
func groupBy(bookings []*models.Booking, key func(*models.Booking) string) []models.PeriodStat {
	out := []models.PeriodStat{}
	index := make(map[string]int)
	for _, b := range bookings {
		k := key(b)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, models.PeriodStat{Period: k})
		}
		out[i].Total++
		if b.PlayStatus == models.PlayStatusPlayed {
			out[i].Played++
		} else {
			out[i].Pending++
		}
	}
	return out
}
