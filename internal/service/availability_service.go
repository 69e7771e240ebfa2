package service

import (
	"context"

	"cancha/internal/domain"
	"cancha/internal/metrics"
	"cancha/internal/models"
	"cancha/internal/pricing"
	"cancha/internal/schedule"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
)

const msgAvailabilityFallback = "Se usó disponibilidad por defecto debido a un problema al consultar la base de datos"

// AvailabilityService answers which hours of a day can still be booked.
// It never fails: store errors degrade to the default schedule.
type AvailabilityService struct {
	bookings domain.BookingRepository
	resolver *schedule.Resolver
	clock    *schedule.Clock
	prices   *pricing.Calculator
	logger   *zerolog.Logger
}

func NewAvailabilityService(bookings domain.BookingRepository, resolver *schedule.Resolver, clock *schedule.Clock, prices *pricing.Calculator, logger *zerolog.Logger) *AvailabilityService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AvailabilityService{
		bookings: bookings,
		resolver: resolver,
		clock:    clock,
		prices:   prices,
		logger:   logger,
	}
}

func (s *AvailabilityService) GetAvailability(ctx context.Context, date civil.Date) *models.Availability {
	window := s.resolver.Resolve(ctx, date)

	booked, err := s.bookings.BookedHours(ctx, date)
	if err != nil {
		s.logger.Warn().Err(err).Str("date", date.String()).Msg("booked hours lookup failed, serving default availability")
		metrics.IncAvailabilityFallback()

		def := s.resolver.Default()
		return s.build(date, def, nil, true)
	}

	return s.build(date, window, booked, false)
}

func (s *AvailabilityService) build(date civil.Date, window schedule.Window, booked []string, fallback bool) *models.Availability {
	occupied := make(map[string]struct{}, len(booked))
	for _, h := range booked {
		if norm, ok := schedule.NormalizeHour(h); ok {
			occupied[norm] = struct{}{}
		}
	}

	free := make([]string, 0, len(window.Slots))
	occupiedSlots := make([]string, 0, len(occupied))
	for _, slot := range window.Slots {
		if _, taken := occupied[slot]; taken {
			occupiedSlots = append(occupiedSlots, slot)
			continue
		}
		if s.clock.IsPast(date, slot) {
			continue
		}
		free = append(free, slot)
	}
	// Bookings outside today's window still count as occupied.
	for h := range occupied {
		if schedule.IndexOf(window.Slots, h) < 0 {
			occupiedSlots = append(occupiedSlots, h)
		}
	}
	sortHours(occupiedSlots)

	a := &models.Availability{
		Date:          date,
		FreeSlots:     free,
		OccupiedSlots: occupiedSlots,
		Open:          window.Open,
		Close:         window.Close,
		Source:        window.Source,
		Fallback:      fallback,
	}
	if fallback {
		a.Notice = msgAvailabilityFallback
	}
	if s.prices != nil {
		a.Prices = s.prices.Prices(free, date, false)
	}
	return a
}

// PriceQuote is the display price of one slot.
type PriceQuote struct {
	Date           civil.Date `json:"fecha"`
	Hour           string     `json:"hora"`
	TariffApproved bool       `json:"tarifa_especial"`
	Price          int64      `json:"precio"`
	Holiday        string     `json:"festivo,omitempty"`
}

func (s *AvailabilityService) Quote(rawDate, rawHour string, tariffApproved bool) (*PriceQuote, error) {
	date, err := parseDate(rawDate)
	if err != nil {
		return nil, err
	}
	hour, ok := schedule.NormalizeHour(rawHour)
	if !ok {
		return nil, validationError("Hora inválida. Usa el formato HH:mm.")
	}
	if s.prices == nil {
		return nil, &Error{Kind: KindUnavailable, Message: "Tarifas no configuradas"}
	}
	q := &PriceQuote{
		Date:           date,
		Hour:           hour,
		TariffApproved: tariffApproved,
		Price:          s.prices.Price(hour, date, tariffApproved),
	}
	if name, ok := s.prices.HolidayName(date); ok {
		q.Holiday = name
	}
	return q, nil
}
