package export

import (
	"path/filepath"
	"testing"

	"cancha/internal/config"
	"cancha/internal/models"
	"cancha/internal/pricing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBookings(t *testing.T) {
	from := civil.Date{Year: 2026, Month: 10, Day: 1}
	to := civil.Date{Year: 2026, Month: 10, Day: 31}
	bookings := []*models.Booking{
		{
			ID:                  "b1",
			ClientName:          "Ana Pérez",
			ClientEmail:         "ana@example.com",
			ClientPhone:         "3001234567",
			Date:                civil.Date{Year: 2026, Month: 10, Day: 20},
			Hour:                "09:00",
			PlayStatus:          models.PlayStatusPlayed,
			PaymentRegistered:   true,
			PaymentMethod:       models.PaymentNequi,
			PaymentReference:    "M123",
			SpecialTariffStatus: models.TariffNotApplicable,
		},
		{
			ID:                    "b2",
			ClientName:            "Luis Gómez",
			ClientEmail:           "luis@example.com",
			ClientPhone:           "3107654321",
			Date:                  civil.Date{Year: 2026, Month: 10, Day: 24},
			Hour:                  "19:00",
			PlayStatus:            models.PlayStatusPending,
			SpecialTariffName:     "Luis Gómez",
			SpecialTariffIDNumber: "1234567",
			SpecialTariffStatus:   models.TariffApproved,
			TariffEligible:        true,
		},
	}
	prices := pricing.NewCalculator(config.PricingConfig{
		CutoffHour: 18, TariffNight: 80000, WeekdayDay: 80000, Weekend: 120000,
	}, nil)

	dir := filepath.Join(t.TempDir(), "exports")
	path, err := Bookings(dir, from, to, bookings, prices)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reservas_2026-10-01_a_2026-10-31.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	title, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Periodo: 2026-10-01 - 2026-10-31", title)

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, headers, rows[1])
	assert.Equal(t, []string{"2026-10-20", "09:00", "Ana Pérez", "ana@example.com", "3001234567", "Jugado", "Sí", "Nequi", "M123", "", "", "No aplica", "80000"}, rows[2])
	assert.Equal(t, "Aprobado", rows[3][11])
	assert.Equal(t, "80000", rows[3][12])

	label, _ := f.GetCellValue(SheetName, "L5")
	total, _ := f.GetCellValue(SheetName, "M5")
	assert.Equal(t, "Total (2 reservas)", label)
	assert.Equal(t, "160000", total)
}

func TestBuild_Empty(t *testing.T) {
	d := civil.Date{Year: 2026, Month: 10, Day: 16}
	f, err := Build(d, d, nil, nil)
	require.NoError(t, err)
	defer f.Close()

	total, err := f.GetCellValue(SheetName, "M3")
	require.NoError(t, err)
	assert.Equal(t, "0", total)
}
