package export

import (
	"bytes"
	"testing"

	"rosterassist/internal/service"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func sampleRows() []service.WageReportRow {
	return []service.WageReportRow{
		{
			UserID:     7,
			UserName:   "Sam Lee",
			TotalHours: decimal.RequireFromString("16"),
			HourlyRate: decimal.RequireFromString("25.5"),
			TotalWages: decimal.RequireFromString("408"),
		},
		{
			UserID:     9,
			UserName:   "Jo, Smith",
			TotalHours: decimal.RequireFromString("7.25"),
			HourlyRate: decimal.RequireFromString("30"),
			TotalWages: decimal.RequireFromString("217.5"),
		},
	}
}

func TestWriteWageReportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWageReportCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteWageReportCSV: %v", err)
	}

	want := "User ID,User Name,Total Hours,Hourly Rate,Total Wages\n" +
		"7,Sam Lee,16.00,25.50,408.00\n" +
		"9,\"Jo, Smith\",7.25,30.00,217.50\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteWageReportCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWageReportCSV(&buf, nil); err != nil {
		t.Fatalf("WriteWageReportCSV: %v", err)
	}
	if buf.String() != "User ID,User Name,Total Hours,Hourly Rate,Total Wages\n" {
		t.Errorf("csv = %q", buf.String())
	}
}

func TestWriteWageReportXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWageReportXLSX(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteWageReportXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(wageReportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][4] != "Total Wages" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "Sam Lee" || rows[1][4] != "408.00" {
		t.Errorf("first row = %v", rows[1])
	}
	if rows[2][2] != "7.25" {
		t.Errorf("second row hours = %q", rows[2][2])
	}
}
