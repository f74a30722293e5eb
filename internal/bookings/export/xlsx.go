package export

import (
	"fmt"
	"io"
	"time"

	"megastrength/pkg/model"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Bookings"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []any{
	"ID", "Customer Name", "Email", "Phone", "Service",
	"Vehicle", "Registration", "Preferred Date", "Preferred Time", "Urgency",
	"Status", "Location", "Estimated Cost", "Actual Cost", "Paid",
	"Payment Method", "Notes", "Created At",
}

// FileName is the attachment name for an export generated at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("bookings-%s.xlsx", now.UTC().Format("20060102-150405"))
}

// WriteXLSX renders bookings as a single-sheet workbook, one row per booking under a styled header.
func WriteXLSX(w io.Writer, bookings []*model.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("error naming sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i, b := range bookings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(b)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func row(b *model.Booking) []any {
	var vehicle, registration string
	if v := b.VehicleInfo; v != nil {
		vehicle = v.Make + " " + v.Model
		if v.Year > 0 {
			vehicle = fmt.Sprintf("%s (%d)", vehicle, v.Year)
		}
		registration = v.Registration
	}

	paid := "No"
	if b.IsPaid {
		paid = "Yes"
	}

	return []any{
		b.ID,
		b.CustomerName,
		b.CustomerEmail,
		b.CustomerPhone,
		b.Service,
		vehicle,
		registration,
		b.PreferredDate.String(),
		b.PreferredTime,
		b.Urgency,
		b.Status,
		b.Location,
		cost(b.EstimatedCost),
		cost(b.ActualCost),
		paid,
		b.PaymentMethod,
		b.Notes,
		b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func cost(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
