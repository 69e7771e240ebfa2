// Package supabasedb stores bookings, schedule overrides and users in a
// Supabase Postgres database through its PostgREST endpoint.
package supabasedb

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"cancha/internal/config"
	"cancha/internal/domain"

	"github.com/rs/zerolog"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const (
	BookingsTable  = "reservas"
	OverridesTable = "configuracion_horarios"
	UsersTable     = "usuarios"
)

// PostgREST and Postgres error codes the store cares about.
const (
	codeUniqueViolation = "23505"
	codeNoRows          = "PGRST116"
)

var unavailableCodes = map[string]bool{
	"42501":    true, // insufficient_privilege
	"42P01":    true, // undefined_table
	"PGRST301": true, // JWT rejected
	"PGRST302": true, // anonymous access disabled
}

var errorCodePattern = regexp.MustCompile(`^\(([0-9A-Z]+)\)`)

// Store implements domain.Repository on top of supabase-go.
type Store struct {
	client *supabase.Client
	logger *zerolog.Logger
}

var _ domain.Repository = (*Store)(nil)

// Open returns a PostgREST-backed repository. Missing credentials produce a
// repository whose every call fails with domain.ErrStoreUnavailable.
func Open(cfg config.SupabaseConfig, logger *zerolog.Logger) (domain.Repository, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if !cfg.Configured() {
		logger.Warn().Msg("supabase url or key missing, store calls will report unavailable")
		return Unconfigured{}, nil
	}

	client, err := supabase.NewClient(strings.TrimRight(cfg.URL, "/"), cfg.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	logger.Info().Str("url", cfg.URL).Msg("supabase store initialized")
	return &Store{client: client, logger: logger}, nil
}

func (s *Store) from(table string) *postgrest.QueryBuilder {
	return s.client.From(table)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.from(BookingsTable).Select("id", "", false).Limit(1, "").Execute()
	if err != nil {
		return translate(err, "ping store", nil)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no long-lived connections of its own.
func (s *Store) Close() error {
	return nil
}

// errorCode extracts the "(CODE)" prefix postgrest-go puts on failed responses.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	m := errorCodePattern.FindStringSubmatch(err.Error())
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// translate maps a PostgREST failure onto the domain sentinels. unique is
// returned for unique violations when non-nil.
func translate(err error, op string, unique error) error {
	code := errorCode(err)
	switch {
	case code == codeUniqueViolation && unique != nil:
		return unique
	case code == codeNoRows:
		return domain.ErrNotFound
	case code == "" || unavailableCodes[code]:
		return fmt.Errorf("failed to %s: %w: %s", op, domain.ErrStoreUnavailable, err.Error())
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func decode[T any](data []byte, op string) ([]T, error) {
	var rows []T
	if len(data) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return rows, nil
}

// parseTimestamp accepts timestamptz and timestamp renderings.
func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sortByDateHour[T any](rows []T, key func(T) string) {
	sort.SliceStable(rows, func(i, j int) bool { return key(rows[i]) < key(rows[j]) })
}
