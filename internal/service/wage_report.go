package service

import (
	"fmt"
	"time"

	"rosterassist/internal/models"
	"rosterassist/internal/repository"
	"rosterassist/pkg/shifttime"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type WageReportRow struct {
	UserID     uint            `json:"user_id"`
	UserName   string          `json:"user_name"`
	TotalHours decimal.Decimal `json:"total_hours"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	TotalWages decimal.Decimal `json:"total_wages"`
}

// WageReportGenerator sums completed time entries into per-user wages.
type WageReportGenerator struct {
	entries repository.TimeEntryRepository
	loc     *time.Location
	logger  *logrus.Logger
}

func NewWageReportGenerator(entries repository.TimeEntryRepository, loc *time.Location) *WageReportGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &WageReportGenerator{entries: entries, loc: loc, logger: newLogger()}
}

// Generate covers completed entries whose clock-in falls on a calendar date
// in [startDate, endDate], both inclusive, in the business time zone. Rows
// come out in the order of each user's earliest clock-in. startDate must be strictly
// before endDate. An empty userIDs means every user of the actor's business.
// Staff only ever see their own row.
func (g *WageReportGenerator) Generate(actor *models.User, startDate, endDate time.Time, userIDs []uint) ([]WageReportRow, error) {
	if actor == nil || startDate.IsZero() || endDate.IsZero() {
		return nil, ErrArgumentRequired
	}

	if !actor.CanManageRosters() {
		userIDs = []uint{actor.ID}
	}

	start := shifttime.DateOnly(startDate)
	end := shifttime.DateOnly(endDate)
	if !start.Before(end) {
		g.logger.WithFields(logrus.Fields{
			"start_date": start.Format("2006-01-02"),
			"end_date":   end.Format("2006-01-02"),
		}).Warn("Invalid wage report date range")
		return nil, ErrInvalidDateRange
	}

	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, g.loc)
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, g.loc).AddDate(0, 0, 1)

	entries, err := g.entries.ListCompletedClockedInBetween(from, to, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load time entries: %w", err)
	}

	tenant := actor.TenantID()
	index := map[uint]int{}
	worked := []time.Duration{}
	var rows []WageReportRow

	for _, e := range entries {
		if !e.IsCompleted() || e.User.ID == 0 || e.User.TenantID() != tenant {
			continue
		}
		i, ok := index[e.UserID]
		if !ok {
			i = len(rows)
			index[e.UserID] = i
			rows = append(rows, WageReportRow{
				UserID:     e.UserID,
				UserName:   e.User.Name,
				HourlyRate: e.User.Rate(),
			})
			worked = append(worked, 0)
		}
		worked[i] += e.ClockOut.Sub(e.ClockIn)
	}

	for i := range rows {
		hours := decimal.NewFromFloat(worked[i].Hours())
		rows[i].TotalHours = hours.Round(2)
		rows[i].TotalWages = hours.Mul(rows[i].HourlyRate).Round(2)
	}

	g.logger.WithFields(logrus.Fields{
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
		"entries":    len(entries),
		"rows":       len(rows),
	}).Info("Wage report generated")

	return rows, nil
}
