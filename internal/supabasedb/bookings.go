package supabasedb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cancha/internal/domain"
	"cancha/internal/models"
	"cancha/internal/schedule"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

type bookingRow struct {
	ID                     string  `json:"id"`
	SeriesID               *string `json:"serie_id"`
	ClientName             string  `json:"nombre_cliente"`
	ClientEmail            string  `json:"email_cliente"`
	ClientPhone            string  `json:"celular_cliente"`
	Date                   string  `json:"fecha"`
	Hour                   string  `json:"hora"`
	PlayStatus             string  `json:"estado"`
	PaymentRegistered      bool    `json:"pago_registrado"`
	PaymentMethod          *string `json:"metodo_pago"`
	PaymentReference       *string `json:"referencia_nequi"`
	SpecialTariffRequested bool    `json:"es_familia_gemellista"`
	SpecialTariffName      *string `json:"nombre_gemellista"`
	SpecialTariffIDNumber  *string `json:"cedula_gemellista"`
	SpecialTariffStatus    string  `json:"estado_gemellista"`
	TariffEligible         bool    `json:"tarifa_especial"`
	CreatedBy              *string `json:"creado_por"`
	CreatedAt              string  `json:"created_at,omitempty"`
	UpdatedAt              string  `json:"updated_at,omitempty"`
}

func toBookingRow(b *models.Booking) bookingRow {
	return bookingRow{
		ID:                     b.ID,
		SeriesID:               nullable(b.SeriesID),
		ClientName:             b.ClientName,
		ClientEmail:            b.ClientEmail,
		ClientPhone:            b.ClientPhone,
		Date:                   b.Date.String(),
		Hour:                   b.Hour,
		PlayStatus:             string(b.PlayStatus),
		PaymentRegistered:      b.PaymentRegistered,
		PaymentMethod:          nullable(string(b.PaymentMethod)),
		PaymentReference:       nullable(b.PaymentReference),
		SpecialTariffRequested: b.SpecialTariffRequested,
		SpecialTariffName:      nullable(b.SpecialTariffName),
		SpecialTariffIDNumber:  nullable(b.SpecialTariffIDNumber),
		SpecialTariffStatus:    string(b.SpecialTariffStatus),
		TariffEligible:         b.TariffEligible,
		CreatedBy:              nullable(b.CreatedBy),
		CreatedAt:              formatTimestamp(b.CreatedAt),
		UpdatedAt:              formatTimestamp(b.UpdatedAt),
	}
}

func (r bookingRow) toModel() (*models.Booking, error) {
	date, err := civil.ParseDate(r.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid stored fecha %q: %w", r.Date, err)
	}
	hour, ok := schedule.NormalizeHour(r.Hour)
	if !ok {
		return nil, fmt.Errorf("invalid stored hora %q", r.Hour)
	}
	status := models.TariffStatus(r.SpecialTariffStatus)
	if status == "" {
		status = models.TariffNotApplicable
	}
	return &models.Booking{
		ID:                     r.ID,
		SeriesID:               deref(r.SeriesID),
		ClientName:             r.ClientName,
		ClientEmail:            r.ClientEmail,
		ClientPhone:            r.ClientPhone,
		Date:                   date,
		Hour:                   hour,
		PlayStatus:             models.PlayStatus(r.PlayStatus),
		PaymentRegistered:      r.PaymentRegistered,
		PaymentMethod:          models.PaymentMethod(deref(r.PaymentMethod)),
		PaymentReference:       deref(r.PaymentReference),
		SpecialTariffRequested: r.SpecialTariffRequested,
		SpecialTariffName:      deref(r.SpecialTariffName),
		SpecialTariffIDNumber:  deref(r.SpecialTariffIDNumber),
		SpecialTariffStatus:    status,
		TariffEligible:         r.TariffEligible,
		CreatedBy:              deref(r.CreatedBy),
		CreatedAt:              parseTimestamp(r.CreatedAt),
		UpdatedAt:              parseTimestamp(r.UpdatedAt),
	}, nil
}

func toBookings(rows []bookingRow) ([]*models.Booking, error) {
	out := make([]*models.Booking, 0, len(rows))
	for _, r := range rows {
		b, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// CreateBookings sends all rows in one bulk insert, which PostgREST runs as
// a single statement: a unique violation on (fecha, hora) rejects the batch.
func (s *Store) CreateBookings(ctx context.Context, bookings []*models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	rows := make([]bookingRow, 0, len(bookings))
	for _, b := range bookings {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		b.CreatedAt = now
		b.UpdatedAt = now
		rows = append(rows, toBookingRow(b))
	}

	_, _, err := s.from(BookingsTable).Insert(rows, false, "", "minimal", "").Execute()
	if err != nil {
		s.logger.Warn().Err(err).Int("rows", len(rows)).Msg("booking insert rejected")
		return translate(err, "insert bookings", fmt.Errorf("%s %s: %w", bookings[0].Date, bookings[0].Hour, domain.ErrSlotTaken))
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := s.from(BookingsTable).Select("*", "", false).Eq("id", id).Limit(1, "").Execute()
	if err != nil {
		return nil, translate(err, "get booking", nil)
	}
	rows, err := decode[bookingRow](data, "booking")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0].toModel()
}

func (s *Store) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := s.from(BookingsTable).Select("*", "", false)
	if filter.Date != nil {
		q = q.Eq("fecha", filter.Date.String())
	}
	if filter.From != nil {
		q = q.Gte("fecha", filter.From.String())
	}
	if filter.To != nil {
		q = q.Lte("fecha", filter.To.String())
	}
	if filter.PlayStatus != "" {
		q = q.Eq("estado", string(filter.PlayStatus))
	}
	if filter.Paid != nil {
		q = q.Eq("pago_registrado", strconv.FormatBool(*filter.Paid))
	}

	data, _, err := q.Order("fecha", &postgrest.OrderOpts{Ascending: true}).Execute()
	if err != nil {
		return nil, translate(err, "list bookings", nil)
	}
	rows, err := decode[bookingRow](data, "bookings")
	if err != nil {
		return nil, err
	}
	bookings, err := toBookings(rows)
	if err != nil {
		return nil, err
	}
	sortByDateHour(bookings, func(b *models.Booking) string { return b.Date.String() + " " + b.Hour })
	return bookings, nil
}

func (s *Store) BookedHours(ctx context.Context, date civil.Date) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := s.from(BookingsTable).Select("hora", "", false).Eq("fecha", date.String()).Execute()
	if err != nil {
		return nil, translate(err, "get booked hours", nil)
	}
	rows, err := decode[bookingRow](data, "booked hours")
	if err != nil {
		return nil, err
	}
	hours := make([]string, 0, len(rows))
	for _, r := range rows {
		if h, ok := schedule.NormalizeHour(r.Hour); ok {
			hours = append(hours, h)
		}
	}
	return hours, nil
}

func (s *Store) FindConflicts(ctx context.Context, date civil.Date, hours []string, excludeID string) ([]string, error) {
	if len(hours) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := s.from(BookingsTable).Select("id,hora", "", false).Eq("fecha", date.String()).In("hora", hours)
	if excludeID != "" {
		q = q.Neq("id", excludeID)
	}
	data, _, err := q.Execute()
	if err != nil {
		return nil, translate(err, "check conflicts", nil)
	}
	rows, err := decode[bookingRow](data, "conflicts")
	if err != nil {
		return nil, err
	}
	var taken []string
	for _, r := range rows {
		if r.ID == excludeID && excludeID != "" {
			continue
		}
		if h, ok := schedule.NormalizeHour(r.Hour); ok {
			taken = append(taken, h)
		}
	}
	sortByDateHour(taken, func(h string) string { return h })
	return taken, nil
}

func (s *Store) UpdatePlayStatus(ctx context.Context, id string, status models.PlayStatus) (*models.Booking, error) {
	return s.updateBooking(ctx, id, map[string]any{"estado": string(status)}, nil)
}

func (s *Store) UpdateTariffStatus(ctx context.Context, id string, status models.TariffStatus, eligible bool) (*models.Booking, error) {
	return s.updateBooking(ctx, id, map[string]any{
		"estado_gemellista": string(status),
		"tarifa_especial":   eligible,
	}, nil)
}

func (s *Store) RegisterPayment(ctx context.Context, id string, method models.PaymentMethod, reference string) (*models.Booking, error) {
	return s.updateBooking(ctx, id, map[string]any{
		"pago_registrado":  true,
		"metodo_pago":      string(method),
		"referencia_nequi": nullable(reference),
	}, nil)
}

func (s *Store) RescheduleBooking(ctx context.Context, id string, date civil.Date, hour string) (*models.Booking, error) {
	return s.updateBooking(ctx, id, map[string]any{
		"fecha": date.String(),
		"hora":  hour,
	}, fmt.Errorf("%s %s: %w", date, hour, domain.ErrSlotTaken))
}

func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, _, err := s.from(BookingsTable).Delete("representation", "").Eq("id", id).Execute()
	if err != nil {
		return translate(err, "delete booking", nil)
	}
	rows, err := decode[bookingRow](data, "deleted booking")
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) updateBooking(ctx context.Context, id string, values map[string]any, unique error) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	values["updated_at"] = formatTimestamp(time.Now())

	data, _, err := s.from(BookingsTable).Update(values, "representation", "").Eq("id", id).Execute()
	if err != nil {
		return nil, translate(err, "update booking", unique)
	}
	rows, err := decode[bookingRow](data, "updated booking")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0].toModel()
}
