package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cancha/internal/domain"
	"cancha/internal/export"
	"cancha/internal/service"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"estado": "ok"})
}

func (s *HTTPServer) handleStoreHealth(w http.ResponseWriter, r *http.Request) {
	if s.svc.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "Base de datos no configurada")
		return
	}
	if err := s.svc.Store.Ping(r.Context()); err != nil {
		s.logger.Warn().Err(err).Msg("store health check failed")
		msg := "No se pudo conectar a la base de datos"
		if errors.Is(err, domain.ErrStoreUnavailable) {
			msg = "Base de datos no configurada"
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"estado":  "ok",
		"mensaje": "Base de datos operativa",
	})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	date, err := service.ParseDate(r.PathValue("fecha"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Availability.GetAvailability(r.Context(), date))
}

func (s *HTTPServer) handlePrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tariff, _ := strconv.ParseBool(q.Get("tarifa_especial"))
	quote, err := s.svc.Availability.Quote(q.Get("fecha"), q.Get("hora"), tariff)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) handleCreatePublic(w http.ResponseWriter, r *http.Request) {
	var req service.BookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rows, err := s.svc.Bookings.CreatePublic(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Reserva creada exitosamente",
		"reservas": rows,
	})
}

func (s *HTTPServer) handleCreateManual(w http.ResponseWriter, r *http.Request) {
	var req service.BookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rows, err := s.svc.Bookings.CreateManual(r.Context(), req, actorID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Reserva creada exitosamente",
		"reservas": rows,
	})
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bookings, err := s.svc.Bookings.List(r.Context(), service.ListQuery{
		Date:   q.Get("fecha"),
		Status: q.Get("estado"),
		From:   q.Get("desde"),
		To:     q.Get("hasta"),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservas": bookings})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.svc.Bookings.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reserva": booking})
}

type statusRequest struct {
	Status string `json:"estado"`
}

func (s *HTTPServer) handlePlayStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	booking, err := s.svc.Bookings.UpdatePlayStatus(r.Context(), r.PathValue("id"), req.Status, actorID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Estado actualizado exitosamente",
		"reserva": booking,
	})
}

type tariffRequest struct {
	Status string `json:"estado_gemellista"`
}

func (s *HTTPServer) handleTariff(w http.ResponseWriter, r *http.Request) {
	var req tariffRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	booking, err := s.svc.Bookings.TransitionTariff(r.Context(), r.PathValue("id"), req.Status, actorID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Tarifa especial actualizada",
		"reserva": booking,
	})
}

func (s *HTTPServer) handlePayment(w http.ResponseWriter, r *http.Request) {
	var req service.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	booking, err := s.svc.Bookings.RegisterPayment(r.Context(), r.PathValue("id"), req, actorID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Pago registrado exitosamente",
		"reserva": booking,
	})
}

func (s *HTTPServer) handleReschedule(w http.ResponseWriter, r *http.Request) {
	var req service.RescheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	booking, err := s.svc.Bookings.Reschedule(r.Context(), r.PathValue("id"), req, actorID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Reserva reprogramada exitosamente",
		"reserva": booking,
	})
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Bookings.Delete(r.Context(), r.PathValue("id"), actorID(r.Context())); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reserva eliminada exitosamente"})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := service.ParseDate(q.Get("desde"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	to, err := service.ParseDate(q.Get("hasta"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "La fecha fin debe ser mayor o igual a la fecha inicio.")
		return
	}

	bookings, err := s.svc.Bookings.List(r.Context(), service.ListQuery{From: from.String(), To: to.String()})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	path, err := export.Bookings(s.svc.ExportDir, from, to, bookings, s.svc.Prices)
	if err != nil {
		s.logger.Error().Err(err).Msg("export bookings")
		writeError(w, http.StatusInternalServerError, "Error al generar el archivo de exportación")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(from, to)))
	http.ServeFile(w, r, path)
}

func (s *HTTPServer) handleStatsGeneral(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats.General(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleStatsCollected reads ?tipo=mes&mes=YYYY-MM or ?fecha=YYYY-MM-DD.
func (s *HTTPServer) handleStatsCollected(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, value := service.PeriodDay, q.Get("fecha")
	if strings.TrimSpace(q.Get("tipo")) == service.PeriodMonth {
		period, value = service.PeriodMonth, q.Get("mes")
	}
	stats, err := s.svc.Stats.Collected(r.Context(), period, value)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleStatsPerDay(w http.ResponseWriter, r *http.Request) {
	days, err := s.svc.Stats.PerDay(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservasPorDia": days})
}

func (s *HTTPServer) handleStatsPerMonth(w http.ResponseWriter, r *http.Request) {
	months, err := s.svc.Stats.PerMonth(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservasPorMes": months})
}

func (s *HTTPServer) handleStatsToday(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Stats.Today(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *HTTPServer) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := s.svc.Schedules.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"configuraciones": overrides})
}

func (s *HTTPServer) handleCreateOverride(w http.ResponseWriter, r *http.Request) {
	var req service.OverrideRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	override, err := s.svc.Schedules.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"configuracion": override,
		"message":       "Horario actualizado correctamente.",
	})
}

func (s *HTTPServer) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Schedules.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Horario eliminado correctamente."})
}
