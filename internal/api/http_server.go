package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cancha/internal/config"
	"cancha/internal/metrics"
	"cancha/internal/pricing"
	"cancha/internal/service"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20

	msgInvalidBody = "Cuerpo de la solicitud inválido"
)

// StorePinger reports whether the backing store answers.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// Services bundles what the HTTP handlers call into.
type Services struct {
	Availability *service.AvailabilityService
	Bookings     *service.BookingService
	Schedules    *service.ScheduleService
	Stats        *service.StatsService
	Auth         *service.AuthService
	Prices       *pricing.Calculator
	Store        StorePinger
	ExportDir    string
}

// HTTPServer exposes the reservation API.
type HTTPServer struct {
	cfg     config.APIConfig
	svc     Services
	server  *http.Server
	limiter *rateLimiter
	logger  zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:     cfg,
		svc:     svc,
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  zerolog.Nop(),
	}
	if logger != nil {
		srv.logger = logger.With().Str("component", "http").Logger()
	}

	mux := http.NewServeMux()
	srv.routes(mux)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Content-Disposition"},
	})
	handler := srv.loggingMiddleware(c.Handler(srv.limiter.Wrap(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/health/store", s.handleStoreHealth)

	mux.HandleFunc("GET /api/reservas/disponibilidad/{fecha}", s.handleAvailability)
	mux.HandleFunc("GET /api/reservas/precio", s.handlePrice)
	mux.HandleFunc("POST /api/reservas/crear", s.handleCreatePublic)

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/registro", s.handleRegister)
	mux.HandleFunc("GET /api/auth/verificar", s.authenticate(s.handleVerify))

	mux.HandleFunc("POST /api/reservas/manual", s.staff(s.handleCreateManual))
	mux.HandleFunc("GET /api/reservas", s.staff(s.handleListBookings))
	mux.HandleFunc("GET /api/reservas/exportar", s.admin(s.handleExport))
	mux.HandleFunc("GET /api/reservas/{id}", s.staff(s.handleGetBooking))
	mux.HandleFunc("PATCH /api/reservas/{id}/estado", s.staff(s.handlePlayStatus))
	mux.HandleFunc("PATCH /api/reservas/{id}/gemellista", s.staff(s.handleTariff))
	mux.HandleFunc("PATCH /api/reservas/{id}/pago", s.staff(s.handlePayment))
	mux.HandleFunc("PATCH /api/reservas/{id}/reprogramar", s.staff(s.handleReschedule))
	mux.HandleFunc("DELETE /api/reservas/{id}", s.admin(s.handleDeleteBooking))

	mux.HandleFunc("GET /api/estadisticas/general", s.admin(s.handleStatsGeneral))
	mux.HandleFunc("GET /api/estadisticas/recaudado", s.admin(s.handleStatsCollected))
	mux.HandleFunc("GET /api/estadisticas/por-dia", s.admin(s.handleStatsPerDay))
	mux.HandleFunc("GET /api/estadisticas/por-mes", s.admin(s.handleStatsPerMonth))
	mux.HandleFunc("GET /api/estadisticas/hoy", s.staff(s.handleStatsToday))

	mux.HandleFunc("GET /api/configuracion/horarios", s.admin(s.handleListOverrides))
	mux.HandleFunc("POST /api/configuracion/horarios", s.admin(s.handleCreateOverride))
	mux.HandleFunc("DELETE /api/configuracion/horarios/{id}", s.admin(s.handleDeleteOverride))

	mux.HandleFunc("GET /api/usuarios", s.admin(s.handleListUsers))
	mux.HandleFunc("PATCH /api/usuarios/{id}/rol", s.admin(s.handleChangeRole))

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Ruta no encontrada")
	})
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		endpoint := r.Pattern
		if endpoint == "" || endpoint == "/" {
			endpoint = "unmatched"
		}
		metrics.IncHTTP(endpoint, fmt.Sprintf("%dxx", recorder.status/100))

		event := s.logger.Info()
		if recorder.status >= http.StatusInternalServerError {
			event = s.logger.Error()
		}
		event.
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps a service failure to its status. Causes of 5xx
// responses are logged; clients only see the message.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	svcErr := service.AsError(err)
	status := svcErr.Kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		s.logger.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("request_id", w.Header().Get(requestIDHeader)).
			Msg("request failed")
	}
	writeError(w, status, svcErr.Message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
