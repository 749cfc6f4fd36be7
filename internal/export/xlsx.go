package export

import (
	"fmt"
	"io"

	"rosterassist/internal/service"

	"github.com/xuri/excelize/v2"
)

const wageReportSheet = "Wage Report"

// WriteWageReportXLSX writes the same columns as the CSV export as a
// single-sheet workbook with numeric cells.
func WriteWageReportXLSX(w io.Writer, rows []service.WageReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", wageReportSheet); err != nil {
		return err
	}

	header := make([]interface{}, len(wageReportHeader))
	for i, h := range wageReportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(wageReportSheet, "A1", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(wageReportSheet, "A1", "E1", bold); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.UserID,
			r.UserName,
			r.TotalHours.InexactFloat64(),
			r.HourlyRate.InexactFloat64(),
			r.TotalWages.InexactFloat64(),
		}
		if err := f.SetSheetRow(wageReportSheet, cell, &values); err != nil {
			return fmt.Errorf("write row for user %d: %w", r.UserID, err)
		}
	}

	if len(rows) > 0 {
		// Built-in format 2 is "0.00".
		fixed, err := f.NewStyle(&excelize.Style{NumFmt: 2})
		if err != nil {
			return err
		}
		last := fmt.Sprintf("E%d", len(rows)+1)
		if err := f.SetCellStyle(wageReportSheet, "C2", last, fixed); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(wageReportSheet, "B", "B", 24); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
