// Package export writes booking reports as Excel workbooks.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"cancha/internal/models"
	"cancha/internal/pricing"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Reservas"

var headers = []string{
	"Fecha", "Hora", "Cliente", "Email", "Celular", "Estado",
	"Pagado", "Método de pago", "Referencia Nequi",
	"Gemellista", "Cédula", "Estado tarifa", "Precio",
}

// FileName is the workbook name for a date range.
func FileName(from, to civil.Date) string {
	return fmt.Sprintf("reservas_%s_a_%s.xlsx", from, to)
}

// Bookings saves the bookings of [from, to] into dir and returns the file
// path. prices may be nil, in which case the price column stays empty.
func Bookings(dir string, from, to civil.Date, bookings []*models.Booking, prices *pricing.Calculator) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := Build(from, to, bookings, prices)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, FileName(from, to))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return path, nil
}

// Build lays the bookings out one row per reserved hour under a period title.
func Build(from, to civil.Date, bookings []*models.Booking, prices *pricing.Calculator) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(SheetName, "A1", fmt.Sprintf("Periodo: %s - %s", from, to))
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.MergeCell(SheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(SheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(SheetName, cell, h)
		_ = f.SetCellStyle(SheetName, cell, cell, headerStyle)
	}

	var total int64
	row := 3
	for _, b := range bookings {
		var price int64
		if prices != nil {
			price = prices.Price(b.Hour, b.Date, b.TariffEligible)
			total += price
		}
		values := []interface{}{
			b.Date.String(),
			b.Hour,
			b.ClientName,
			b.ClientEmail,
			b.ClientPhone,
			string(b.PlayStatus),
			yesNo(b.PaymentRegistered),
			string(b.PaymentMethod),
			b.PaymentReference,
			b.SpecialTariffName,
			b.SpecialTariffIDNumber,
			string(b.SpecialTariffStatus),
			price,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("error writing row %d: %w", row, err)
		}
		row++
	}

	totalStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	labelCell, _ := excelize.CoordinatesToCellName(len(headers)-1, row)
	totalCell, _ := excelize.CoordinatesToCellName(len(headers), row)
	_ = f.SetCellValue(SheetName, labelCell, fmt.Sprintf("Total (%d reservas)", len(bookings)))
	_ = f.SetCellValue(SheetName, totalCell, total)
	_ = f.SetCellStyle(SheetName, labelCell, totalCell, totalStyle)

	_ = f.SetColWidth(SheetName, "A", "B", 12)
	_ = f.SetColWidth(SheetName, "C", "D", 28)
	_ = f.SetColWidth(SheetName, "E", lastCol, 16)

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

func yesNo(v bool) string {
	if v {
		return "Sí"
	}
	return "No"
}
