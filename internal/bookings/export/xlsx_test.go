package export

import (
	"bytes"
	"testing"
	"time"

	"megastrength/pkg/model"

	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	date, _ := model.ParseDate("2030-06-10")
	cost := 4500.0
	bookings := []*model.Booking{
		{
			ID:            "1",
			CustomerName:  "Jane Wanjiku",
			CustomerEmail: "jane@example.com",
			CustomerPhone: "+254712345678",
			Service:       "Fuel Injection Services",
			VehicleInfo:   &model.VehicleInfo{Make: "Toyota", Model: "Hilux", Year: 2018, Registration: "KCA 123A"},
			PreferredDate: date,
			PreferredTime: "09:00",
			Status:        model.StatusConfirmed,
			EstimatedCost: &cost,
			IsPaid:        true,
		},
		{ID: "2", CustomerName: "Otieno Odhiambo", PreferredDate: date, PreferredTime: "10:00"},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, bookings); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}

	tests := []struct {
		cell string
		want string
	}{
		{"A1", "ID"},
		{"B2", "Jane Wanjiku"},
		{"F2", "Toyota Hilux (2018)"},
		{"G2", "KCA 123A"},
		{"H2", "2030-06-10"},
		{"I3", "10:00"},
		{"M2", "4500"},
		{"O2", "Yes"},
		{"O3", "No"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(SheetName, tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.cell, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2030, 6, 10, 9, 5, 0, 0, time.UTC))
	if got != "bookings-20300610-090500.xlsx" {
		t.Errorf("FileName() = %q", got)
	}
}
