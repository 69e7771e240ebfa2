package schedule

import (
	"context"

	"cancha/internal/models"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
)

const (
	SourceDefault  = "default"
	SourceOverride = "override"
)

// Window is the opening schedule resolved for one date.
type Window struct {
	Open   int
	Close  int
	Slots  []string
	Source string
}

// OverrideFinder returns the winning override for a date, or nil when no
// override covers it.
type OverrideFinder interface {
	FindOverride(ctx context.Context, date civil.Date) (*models.ScheduleOverride, error)
}

// Resolver turns a date into its opening window. Lookups never fail: any
// store error degrades to the default window.
type Resolver struct {
	finder       OverrideFinder
	defaultOpen  int
	defaultClose int
	logger       *zerolog.Logger
}

func NewResolver(finder OverrideFinder, defaultOpen, defaultClose int, logger *zerolog.Logger) *Resolver {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Resolver{
		finder:       finder,
		defaultOpen:  defaultOpen,
		defaultClose: defaultClose,
		logger:       logger,
	}
}

// Default is the window used when no override applies.
func (r *Resolver) Default() Window {
	return Window{
		Open:   r.defaultOpen,
		Close:  r.defaultClose,
		Slots:  GenerateSlots(r.defaultOpen, r.defaultClose),
		Source: SourceDefault,
	}
}

func (r *Resolver) Resolve(ctx context.Context, date civil.Date) Window {
	if r.finder == nil {
		return r.Default()
	}

	override, err := r.finder.FindOverride(ctx, date)
	if err != nil {
		r.logger.Warn().Err(err).Str("date", date.String()).Msg("schedule override lookup failed, using default window")
		return r.Default()
	}
	if override == nil {
		return r.Default()
	}
	if override.HourClose <= override.HourOpen {
		r.logger.Warn().Str("override_id", override.ID).Msg("ignoring override with empty window")
		return r.Default()
	}

	return Window{
		Open:   override.HourOpen,
		Close:  override.HourClose,
		Slots:  GenerateSlots(override.HourOpen, override.HourClose),
		Source: SourceOverride,
	}
}

// PickOverride applies the winning rule to a candidate list: among the
// overrides containing date, the one with the latest DateStart wins.
// Stores that cannot sort server-side use it directly.
func PickOverride(overrides []*models.ScheduleOverride, date civil.Date) *models.ScheduleOverride {
	var best *models.ScheduleOverride
	for _, o := range overrides {
		if o == nil || !o.Contains(date) {
			continue
		}
		if best == nil || o.DateStart.After(best.DateStart) {
			best = o
		}
	}
	return best
}
