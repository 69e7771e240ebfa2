package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"cancha/internal/config"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRates() config.PricingConfig {
	return config.PricingConfig{
		CutoffHour:   17,
		TariffDay:    90000,
		TariffNight:  110000,
		Weekend:      130000,
		WeekdayDay:   100000,
		WeekdayNight: 130000,
	}
}

func TestPrice(t *testing.T) {
	calc := NewCalculator(defaultRates(), nil)
	wednesday := civil.Date{Year: 2026, Month: 10, Day: 14}
	saturday := civil.Date{Year: 2026, Month: 10, Day: 17}
	sunday := civil.Date{Year: 2026, Month: 10, Day: 18}

	tests := []struct {
		name   string
		hour   string
		date   civil.Date
		tariff bool
		want   int64
	}{
		{"weekday morning", "10:00", wednesday, false, 100000},
		{"weekday before cutoff", "16:00", wednesday, false, 100000},
		{"weekday at cutoff", "17:00", wednesday, false, 130000},
		{"weekday night", "21:00", wednesday, false, 130000},
		{"saturday morning", "08:00", saturday, false, 130000},
		{"sunday night", "20:00", sunday, false, 130000},
		{"tariff day", "10:00", wednesday, true, 90000},
		{"tariff night", "18:00", wednesday, true, 110000},
		{"tariff beats weekend", "09:00", saturday, true, 90000},
		{"bad hour", "x", wednesday, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.Price(tt.hour, tt.date, tt.tariff))
		})
	}
}

func TestHolidayPricing(t *testing.T) {
	holiday := civil.Date{Year: 2026, Month: 12, Day: 8} // Tuesday
	holidays := []Holiday{{Date: holiday, Name: "Inmaculada Concepción"}}

	t.Run("DisplayOnlyByDefault", func(t *testing.T) {
		calc := NewCalculator(defaultRates(), holidays)
		assert.Equal(t, int64(100000), calc.Price("10:00", holiday, false))
		name, ok := calc.HolidayName(holiday)
		assert.True(t, ok)
		assert.Equal(t, "Inmaculada Concepción", name)
	})

	t.Run("WeekendRateWhenEnabled", func(t *testing.T) {
		rates := defaultRates()
		rates.HolidayWeekend = true
		calc := NewCalculator(rates, holidays)
		assert.Equal(t, int64(130000), calc.Price("10:00", holiday, false))
		assert.Equal(t, int64(90000), calc.Price("10:00", holiday, true))
	})
}

func TestPrices(t *testing.T) {
	calc := NewCalculator(defaultRates(), nil)
	prices := calc.Prices([]string{"16:00", "17:00"}, civil.Date{Year: 2026, Month: 10, Day: 14}, false)
	assert.Equal(t, map[string]int64{"16:00": 100000, "17:00": 130000}, prices)
}

func TestLoadHolidays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.yaml")
	content := `
holidays:
  - date: "2026-12-08"
    name: "Inmaculada Concepción"
  - date: "2026-12-25"
    name: "Navidad"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	holidays, err := LoadHolidays(path)
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, civil.Date{Year: 2026, Month: 12, Day: 25}, holidays[1].Date)

	require.NoError(t, os.WriteFile(path, []byte("holidays:\n  - date: \"2026-13-01\"\n"), 0o644))
	_, err = LoadHolidays(path)
	assert.Error(t, err)

	_, err = LoadHolidays(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
