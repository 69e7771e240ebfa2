package supabasedb

import (
	"context"
	"fmt"
	"time"

	"cancha/internal/domain"
	"cancha/internal/models"
	"cancha/internal/schedule"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

// overrideRow stores opening and closing hours as "HH:MM" text.
type overrideRow struct {
	ID        string `json:"id"`
	DateStart string `json:"fecha_inicio"`
	DateEnd   string `json:"fecha_fin"`
	HourOpen  string `json:"hora_apertura"`
	HourClose string `json:"hora_cierre"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (r overrideRow) toModel() (*models.ScheduleOverride, error) {
	start, err := civil.ParseDate(r.DateStart)
	if err != nil {
		return nil, fmt.Errorf("invalid stored fecha_inicio %q: %w", r.DateStart, err)
	}
	end, err := civil.ParseDate(r.DateEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid stored fecha_fin %q: %w", r.DateEnd, err)
	}
	open, ok := schedule.HourOf(r.HourOpen)
	if !ok {
		return nil, fmt.Errorf("invalid stored hora_apertura %q", r.HourOpen)
	}
	closeHour, ok := schedule.HourOf(r.HourClose)
	if !ok {
		return nil, fmt.Errorf("invalid stored hora_cierre %q", r.HourClose)
	}
	return &models.ScheduleOverride{
		ID:        r.ID,
		DateStart: start,
		DateEnd:   end,
		HourOpen:  open,
		HourClose: closeHour,
		CreatedAt: parseTimestamp(r.CreatedAt),
	}, nil
}

func (s *Store) FindOverride(ctx context.Context, date civil.Date) (*models.ScheduleOverride, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := date.String()
	data, _, err := s.from(OverridesTable).Select("*", "", false).
		Lte("fecha_inicio", d).
		Gte("fecha_fin", d).
		Order("fecha_inicio", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, translate(err, "find schedule override", nil)
	}
	rows, err := decode[overrideRow](data, "schedule override")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toModel()
}

func (s *Store) ListOverrides(ctx context.Context) ([]*models.ScheduleOverride, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := s.from(OverridesTable).Select("*", "", false).
		Order("fecha_inicio", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, translate(err, "list schedule overrides", nil)
	}
	rows, err := decode[overrideRow](data, "schedule overrides")
	if err != nil {
		return nil, err
	}
	out := make([]*models.ScheduleOverride, 0, len(rows))
	for _, r := range rows {
		o, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *Store) CreateOverride(ctx context.Context, o *models.ScheduleOverride) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = time.Now()

	row := overrideRow{
		ID:        o.ID,
		DateStart: o.DateStart.String(),
		DateEnd:   o.DateEnd.String(),
		HourOpen:  schedule.FormatHour(o.HourOpen),
		HourClose: schedule.FormatHour(o.HourClose),
		CreatedAt: formatTimestamp(o.CreatedAt),
	}
	if _, _, err := s.from(OverridesTable).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return translate(err, "create schedule override", nil)
	}
	return nil
}

func (s *Store) DeleteOverride(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, _, err := s.from(OverridesTable).Delete("representation", "").Eq("id", id).Execute()
	if err != nil {
		return translate(err, "delete schedule override", nil)
	}
	rows, err := decode[overrideRow](data, "deleted schedule override")
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}
