package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"rosterassist/internal/service"
)

var wageReportHeader = []string{"User ID", "User Name", "Total Hours", "Hourly Rate", "Total Wages"}

// WriteWageReportCSV writes one line per row with money and hours to two decimals.
func WriteWageReportCSV(w io.Writer, rows []service.WageReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(wageReportHeader); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			strconv.FormatUint(uint64(r.UserID), 10),
			r.UserName,
			r.TotalHours.StringFixed(2),
			r.HourlyRate.StringFixed(2),
			r.TotalWages.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row for user %d: %w", r.UserID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
