package service

import (
	"context"
	"strings"

	"cancha/internal/domain"
	"cancha/internal/models"
	"cancha/internal/schedule"

	"github.com/rs/zerolog"
)

type OverrideRequest struct {
	DateStart string `json:"fecha_inicio" yaml:"fecha_inicio"`
	DateEnd   string `json:"fecha_fin" yaml:"fecha_fin"`
	HourOpen  string `json:"hora_apertura" yaml:"hora_apertura"`
	HourClose string `json:"hora_cierre" yaml:"hora_cierre"`
}

// ScheduleService manages date-ranged opening hour overrides.
type ScheduleService struct {
	repo   domain.ScheduleRepository
	logger *zerolog.Logger
}

func NewScheduleService(repo domain.ScheduleRepository, logger *zerolog.Logger) *ScheduleService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ScheduleService{repo: repo, logger: logger}
}

func (s *ScheduleService) List(ctx context.Context) ([]*models.ScheduleOverride, error) {
	overrides, err := s.repo.ListOverrides(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list schedule overrides")
		return nil, storeError(err, "", "No pudimos cargar los horarios configurados.")
	}
	if overrides == nil {
		overrides = []*models.ScheduleOverride{}
	}
	return overrides, nil
}

func (s *ScheduleService) Create(ctx context.Context, req OverrideRequest) (*models.ScheduleOverride, error) {
	override, err := parseOverride(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateOverride(ctx, override); err != nil {
		s.logger.Error().Err(err).Msg("create schedule override")
		return nil, storeError(err, "", "No pudimos guardar el horario.")
	}
	s.logger.Info().
		Str("override_id", override.ID).
		Str("from", override.DateStart.String()).
		Str("to", override.DateEnd.String()).
		Int("open", override.HourOpen).
		Int("close", override.HourClose).
		Msg("schedule override created")
	return override, nil
}

func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteOverride(ctx, id); err != nil {
		return storeError(err, "Horario no encontrado.", "No pudimos eliminar el horario.")
	}
	return nil
}

func parseOverride(req OverrideRequest) (*models.ScheduleOverride, error) {
	if strings.TrimSpace(req.DateStart) == "" || strings.TrimSpace(req.DateEnd) == "" ||
		strings.TrimSpace(req.HourOpen) == "" || strings.TrimSpace(req.HourClose) == "" {
		return nil, validationError("Todos los campos son obligatorios.")
	}

	start, err := parseDate(req.DateStart)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.DateEnd)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, validationError("La fecha fin debe ser mayor o igual a la fecha inicio.")
	}

	open, okOpen := schedule.HourOf(req.HourOpen)
	closing, okClose := schedule.HourOf(req.HourClose)
	if !okOpen || !okClose {
		return nil, validationError("Formato de hora inválido. Usa HH:mm.")
	}
	if closing <= open {
		return nil, validationError("La hora de cierre debe ser mayor a la hora de apertura.")
	}

	return &models.ScheduleOverride{
		DateStart: start,
		DateEnd:   end,
		HourOpen:  open,
		HourClose: closing,
	}, nil
}
