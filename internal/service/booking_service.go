package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"cancha/internal/config"
	"cancha/internal/domain"
	"cancha/internal/events"
	"cancha/internal/metrics"
	"cancha/internal/models"
	"cancha/internal/schedule"
	"cancha/internal/worker"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	SourcePublic = "public"
	SourceManual = "manual"

	msgBookingNotFound = "Reserva no encontrada"
	msgInvalidDate     = "Fecha inválida. Usa el formato YYYY-MM-DD."
)

// BookingRequest is the body of the public and manual create endpoints.
// Hour is the legacy single-hour field; Hours wins when both are set.
type BookingRequest struct {
	ClientName            string   `json:"nombre_cliente"`
	ClientEmail           string   `json:"email_cliente"`
	ClientPhone           string   `json:"celular_cliente"`
	Date                  string   `json:"fecha"`
	Hours                 []string `json:"horas"`
	Hour                  string   `json:"hora"`
	SpecialTariff         bool     `json:"es_familia_gemellista"`
	SpecialTariffName     string   `json:"nombre_gemellista"`
	SpecialTariffIDNumber string   `json:"cedula_gemellista"`
	Recurring             bool     `json:"reserva_recurrente"`
	Weeks                 int      `json:"semanas_repeticion"`
	DaysOfWeek            []int    `json:"dias_semana"`
}

func (r *BookingRequest) requestedHours() []string {
	if len(r.Hours) > 0 {
		return r.Hours
	}
	if strings.TrimSpace(r.Hour) != "" {
		return []string{r.Hour}
	}
	return nil
}

type RescheduleRequest struct {
	Date string `json:"fecha"`
	Hour string `json:"hora"`
}

type PaymentRequest struct {
	Method    string `json:"metodo_pago"`
	Reference string `json:"referencia_nequi"`
}

type ListQuery struct {
	Date   string
	Status string
	From   string
	To     string
}

// BookingService validates and persists reservations. Writes are fail-hard:
// any store failure aborts the request.
type BookingService struct {
	repo     domain.BookingRepository
	resolver *schedule.Resolver
	clock    *schedule.Clock
	limits   config.BookingConfig
	eventBus domain.EventPublisher
	sheets   domain.SyncWorker
	logger   *zerolog.Logger
}

func NewBookingService(
	repo domain.BookingRepository,
	resolver *schedule.Resolver,
	clock *schedule.Clock,
	limits config.BookingConfig,
	eventBus domain.EventPublisher,
	sheets domain.SyncWorker,
	logger *zerolog.Logger,
) *BookingService {
	if limits.MaxConsecutiveHours <= 0 {
		limits.MaxConsecutiveHours = 3
	}
	if limits.MaxRecurrenceWeeks <= 0 {
		limits.MaxRecurrenceWeeks = 52
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		repo:     repo,
		resolver: resolver,
		clock:    clock,
		limits:   limits,
		eventBus: eventBus,
		sheets:   sheets,
		logger:   logger,
	}
}

// CreatePublic books hours for an anonymous client. Recurrence is ignored.
func (s *BookingService) CreatePublic(ctx context.Context, req BookingRequest) ([]*models.Booking, error) {
	req.Recurring = false
	req.Weeks = 0
	req.DaysOfWeek = nil
	return s.create(ctx, req, "", SourcePublic)
}

// CreateManual books hours on behalf of a client and stamps the staff user.
func (s *BookingService) CreateManual(ctx context.Context, req BookingRequest, createdBy string) ([]*models.Booking, error) {
	return s.create(ctx, req, createdBy, SourceManual)
}

func (s *BookingService) create(ctx context.Context, req BookingRequest, createdBy, source string) ([]*models.Booking, error) {
	raw := req.requestedHours()
	if len(raw) > s.limits.MaxConsecutiveHours {
		return nil, validationError("Solo puedes reservar máximo %d horas consecutivas", s.limits.MaxConsecutiveHours)
	}

	client := clientFields{
		Name:  sanitize(req.ClientName),
		Email: strings.ToLower(sanitize(req.ClientEmail)),
		Phone: sanitize(req.ClientPhone),
	}
	if err := checkStruct(client); err != nil {
		return nil, err
	}

	var tariff tariffFields
	if req.SpecialTariff {
		tariff = tariffFields{
			Name:     sanitize(req.SpecialTariffName),
			IDNumber: sanitize(req.SpecialTariffIDNumber),
		}
		if err := checkStruct(tariff); err != nil {
			return nil, err
		}
	}

	date, err := s.parseBookableDate(req.Date)
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return nil, validationError("Debes seleccionar al menos una hora")
	}
	hours, err := normalizeHours(raw)
	if err != nil {
		return nil, err
	}

	dates := []civil.Date{date}
	if req.Recurring {
		dates, err = s.expandRecurrence(date, req.Weeks, req.DaysOfWeek)
		if err != nil {
			return nil, err
		}
	}

	for _, d := range dates {
		ordered, err := s.checkSlots(ctx, d, date, hours, "")
		if err != nil {
			return nil, err
		}
		hours = ordered
	}

	seriesID := ""
	if len(dates)*len(hours) > 1 {
		seriesID = uuid.NewString()
	}
	tariffStatus := models.TariffNotApplicable
	if req.SpecialTariff {
		tariffStatus = models.TariffPending
	}

	rows := make([]*models.Booking, 0, len(dates)*len(hours))
	for _, d := range dates {
		for _, h := range hours {
			rows = append(rows, &models.Booking{
				SeriesID:               seriesID,
				ClientName:             client.Name,
				ClientEmail:            client.Email,
				ClientPhone:            client.Phone,
				Date:                   d,
				Hour:                   h,
				PlayStatus:             models.PlayStatusPending,
				SpecialTariffRequested: req.SpecialTariff,
				SpecialTariffName:      tariff.Name,
				SpecialTariffIDNumber:  tariff.IDNumber,
				SpecialTariffStatus:    tariffStatus,
				CreatedBy:              createdBy,
			})
		}
	}

	if err := s.repo.CreateBookings(ctx, rows); err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			metrics.IncBookingConflict()
			return nil, s.conflictAfterInsert(ctx, dates, date, hours, err)
		}
		s.logger.Error().Err(err).Str("date", date.String()).Msg("create bookings")
		return nil, storeError(err, "", "Error al crear la reserva")
	}

	metrics.AddBookingsCreated(source, len(rows))
	s.logger.Info().
		Str("source", source).
		Str("date", date.String()).
		Strs("hours", hours).
		Int("rows", len(rows)).
		Msg("bookings created")

	for _, b := range rows {
		s.notify(ctx, events.EventBookingCreated, b, createdBy, worker.TaskUpsert)
	}
	return rows, nil
}

// checkSlots validates hours against date's schedule and existing bookings.
// It returns hours ordered by slot position.
func (s *BookingService) checkSlots(ctx context.Context, date, base civil.Date, hours []string, excludeID string) ([]string, error) {
	suffix := ""
	if date != base {
		suffix = " el " + date.String()
	}

	window := s.resolver.Resolve(ctx, date)
	positions := make(map[string]int, len(hours))
	for _, h := range hours {
		idx := schedule.IndexOf(window.Slots, h)
		if idx < 0 {
			return nil, validationError("La hora %s está fuera del horario de atención (%s a %s)%s",
				h, schedule.FormatHour(window.Open), schedule.FormatHour(window.Close), suffix)
		}
		positions[h] = idx
	}

	ordered := append([]string(nil), hours...)
	sort.Slice(ordered, func(i, j int) bool { return positions[ordered[i]] < positions[ordered[j]] })
	for i := 1; i < len(ordered); i++ {
		if positions[ordered[i]]-positions[ordered[i-1]] != 1 {
			return nil, validationError("Las horas seleccionadas deben ser consecutivas")
		}
	}

	for _, h := range ordered {
		if s.clock.IsPast(date, h) {
			return nil, validationError("La hora %s%s ya pasó. Elige un horario futuro", h, suffix)
		}
	}

	taken, err := s.repo.FindConflicts(ctx, date, ordered, excludeID)
	if err != nil {
		s.logger.Error().Err(err).Str("date", date.String()).Msg("conflict lookup")
		return nil, storeError(err, "", "Error al verificar la disponibilidad")
	}
	if len(taken) > 0 {
		metrics.IncBookingConflict()
		return nil, conflictError(taken, suffix)
	}
	return ordered, nil
}

// conflictAfterInsert names the hours that lost a race at insert time.
func (s *BookingService) conflictAfterInsert(ctx context.Context, dates []civil.Date, base civil.Date, hours []string, cause error) error {
	for _, d := range dates {
		taken, err := s.repo.FindConflicts(ctx, d, hours, "")
		if err != nil || len(taken) == 0 {
			continue
		}
		suffix := ""
		if d != base {
			suffix = " el " + d.String()
		}
		e := conflictError(taken, suffix)
		e.Err = cause
		return e
	}
	e := conflictError(hours, "")
	e.Err = cause
	return e
}

func conflictError(hours []string, suffix string) *Error {
	sorted := append([]string(nil), hours...)
	sortHours(sorted)
	return &Error{
		Kind:    KindConflict,
		Message: "Ya existe una reserva para: " + strings.Join(sorted, ", ") + suffix,
	}
}

func (s *BookingService) expandRecurrence(base civil.Date, weeks int, days []int) ([]civil.Date, error) {
	if weeks < 1 || weeks > s.limits.MaxRecurrenceWeeks {
		return nil, validationError("Las semanas de repetición deben estar entre 1 y %d", s.limits.MaxRecurrenceWeeks)
	}
	if len(days) == 0 {
		return nil, validationError("Debes seleccionar al menos un día de la semana para la repetición")
	}
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, validationError("Día de la semana inválido: %d", d)
		}
	}
	dates := schedule.ExpandWeekly(base, weeks, days)
	if len(dates) == 0 {
		return nil, validationError("La repetición no genera fechas para reservar")
	}
	return dates, nil
}

func (s *BookingService) parseBookableDate(raw string) (civil.Date, error) {
	date, err := parseDate(raw)
	if err != nil {
		return civil.Date{}, err
	}
	if s.clock.IsPastDate(date) {
		return civil.Date{}, validationError("No puedes reservar en una fecha pasada")
	}
	return date, nil
}

// Reschedule moves one booking to a new date and hour.
func (s *BookingService) Reschedule(ctx context.Context, id string, req RescheduleRequest, actor string) (*models.Booking, error) {
	current, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "Error al obtener la reserva")
	}

	date, err := s.parseBookableDate(req.Date)
	if err != nil {
		return nil, err
	}
	hour, ok := schedule.NormalizeHour(req.Hour)
	if !ok {
		return nil, validationError("Hora inválida. Usa el formato HH:mm.")
	}
	if current.Date == date && current.Hour == hour {
		return current, nil
	}

	if _, err := s.checkSlots(ctx, date, date, []string{hour}, id); err != nil {
		return nil, err
	}

	updated, err := s.repo.RescheduleBooking(ctx, id, date, hour)
	if err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			metrics.IncBookingConflict()
			e := conflictError([]string{hour}, "")
			e.Err = err
			return nil, e
		}
		return nil, storeError(err, msgBookingNotFound, "No pudimos actualizar la reserva")
	}

	s.logger.Info().Str("booking_id", id).Str("date", date.String()).Str("hour", hour).Msg("booking rescheduled")
	s.notify(ctx, events.EventBookingRescheduled, updated, actor, worker.TaskUpsert)
	return updated, nil
}

func (s *BookingService) UpdatePlayStatus(ctx context.Context, id, status, actor string) (*models.Booking, error) {
	next, err := models.ParsePlayStatus(status)
	if err != nil {
		return nil, validationError("Estado inválido")
	}
	updated, err := s.repo.UpdatePlayStatus(ctx, id, next)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "Error al actualizar el estado")
	}
	s.notify(ctx, events.EventBookingStatusChanged, updated, actor, worker.TaskUpsert)
	return updated, nil
}

// TransitionTariff moves the special tariff through its approval workflow.
func (s *BookingService) TransitionTariff(ctx context.Context, id, status, actor string) (*models.Booking, error) {
	next, err := models.ParseTariffStatus(status)
	if err != nil {
		return nil, validationError("Estado de tarifa especial inválido")
	}

	current, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "Error al obtener la reserva")
	}
	if current.SpecialTariffStatus == next {
		return current, nil
	}
	if !current.SpecialTariffStatus.CanTransition(next) {
		return nil, validationError("No se puede cambiar la tarifa especial de %s a %s", current.SpecialTariffStatus, next)
	}

	updated, err := s.repo.UpdateTariffStatus(ctx, id, next, next.Eligible())
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "Error al actualizar la tarifa especial")
	}
	s.notify(ctx, events.EventTariffStatusChanged, updated, actor, worker.TaskUpsert)
	return updated, nil
}

// RegisterPayment records how a booking was paid. The reference is kept
// only for Nequi.
func (s *BookingService) RegisterPayment(ctx context.Context, id string, req PaymentRequest, actor string) (*models.Booking, error) {
	method, err := models.ParsePaymentMethod(strings.TrimSpace(req.Method))
	if err != nil {
		return nil, validationError("Método de pago inválido. Usa Nequi o Efectivo.")
	}
	reference := ""
	if method == models.PaymentNequi {
		reference = sanitize(req.Reference)
		if len([]rune(reference)) > 100 {
			return nil, validationError("La referencia de Nequi es demasiado larga")
		}
	}

	updated, err := s.repo.RegisterPayment(ctx, id, method, reference)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "Error al registrar el pago")
	}
	s.notify(ctx, events.EventPaymentRegistered, updated, actor, worker.TaskUpsert)
	return updated, nil
}

func (s *BookingService) Delete(ctx context.Context, id, actor string) error {
	current, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return storeError(err, msgBookingNotFound, "Error al eliminar la reserva")
	}
	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return storeError(err, msgBookingNotFound, "Error al eliminar la reserva")
	}
	s.logger.Info().Str("booking_id", id).Str("actor", actor).Msg("booking deleted")
	s.notify(ctx, events.EventBookingDeleted, current, actor, worker.TaskDelete)
	return nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "Error al obtener la reserva")
	}
	return b, nil
}

// List returns bookings ordered by date and hour.
func (s *BookingService) List(ctx context.Context, q ListQuery) ([]*models.Booking, error) {
	var filter models.BookingFilter
	for _, f := range []struct {
		raw string
		dst **civil.Date
	}{{q.Date, &filter.Date}, {q.From, &filter.From}, {q.To, &filter.To}} {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		d, err := parseDate(f.raw)
		if err != nil {
			return nil, err
		}
		*f.dst = &d
	}
	if q.Status != "" {
		status, err := models.ParsePlayStatus(q.Status)
		if err != nil {
			return nil, validationError("Estado inválido")
		}
		filter.PlayStatus = status
	}

	bookings, err := s.repo.ListBookings(ctx, filter)
	if err != nil {
		return nil, storeError(err, "", "Error al obtener reservas")
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return bookings, nil
}

// notify publishes a booking event and mirrors the row to the sheet. Both
// are best effort.
func (s *BookingService) notify(ctx context.Context, eventType string, b *models.Booking, actor, task string) {
	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(eventType, events.NewBookingPayload(b, actor)); err != nil {
			s.logger.Warn().Err(err).Str("event", eventType).Str("booking_id", b.ID).Msg("publish event")
		} else {
			metrics.IncEvent(eventType)
		}
	}
	if s.sheets != nil {
		if err := s.sheets.EnqueueTask(ctx, task, b); err != nil {
			s.logger.Warn().Err(err).Str("booking_id", b.ID).Msg("enqueue sheet sync")
		}
	}
}

// ParseDate parses a YYYY-MM-DD civil date with the user-facing error.
func ParseDate(raw string) (civil.Date, error) {
	return parseDate(raw)
}

func parseDate(raw string) (civil.Date, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != len(models.DateLayout) {
		return civil.Date{}, validationError(msgInvalidDate)
	}
	d, err := civil.ParseDate(raw)
	if err != nil || !d.IsValid() {
		return civil.Date{}, validationError(msgInvalidDate)
	}
	return d, nil
}

// normalizeHours converts labels to HH:MM and drops duplicates, keeping the
// first occurrence.
func normalizeHours(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, h := range raw {
		norm, ok := schedule.NormalizeHour(h)
		if !ok {
			return nil, validationError("Hora inválida: %s. Usa el formato HH:mm.", sanitize(h))
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out, nil
}

func sortHours(hours []string) {
	sort.Strings(hours)
}
