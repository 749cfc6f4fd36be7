package service

import (
	"errors"
	"fmt"
	"time"

	"rosterassist/internal/models"
	"rosterassist/internal/repository"
	"rosterassist/pkg/shifttime"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RosterGenerator expands a shift template into a dated roster for one week.
type RosterGenerator struct {
	templates repository.ShiftTemplateRepository
	rosters   repository.DatedRosterRepository
	shifts    repository.DatedShiftRepository
	tx        repository.Transactor
	loc       *time.Location
	logger    *logrus.Logger
}

func NewRosterGenerator(
	templates repository.ShiftTemplateRepository,
	rosters repository.DatedRosterRepository,
	shifts repository.DatedShiftRepository,
	tx repository.Transactor,
	loc *time.Location,
) *RosterGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &RosterGenerator{
		templates: templates,
		rosters:   rosters,
		shifts:    shifts,
		tx:        tx,
		loc:       loc,
		logger:    newLogger(),
	}
}

// GenerateForOwner loads the actor's template and generates the week that
// starts on weekStart, which must be a Monday.
func (g *RosterGenerator) GenerateForOwner(actor *models.User, templateID uint, weekStart time.Time) (*models.DatedRoster, error) {
	if actor == nil || weekStart.IsZero() {
		return nil, ErrArgumentRequired
	}
	if !actor.CanManageRosters() {
		return nil, ErrForbidden
	}
	if !shifttime.IsMonday(weekStart) {
		g.logger.WithField("week_start_date", weekStart.Format("2006-01-02")).Warn("Week start is not a Monday")
		return nil, ErrNotMonday
	}

	template, err := g.templates.GetWithShifts(templateID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if template == nil || template.UserID != actor.TenantID() {
		return nil, ErrNotFound
	}

	return g.Generate(template, weekStart)
}

// Generate creates the dated roster and one unassigned dated shift per
// template shift in a single transaction. A second call for the same
// template and week fails with ErrAlreadyExists.
func (g *RosterGenerator) Generate(template *models.ShiftTemplate, weekStart time.Time) (*models.DatedRoster, error) {
	if template == nil || weekStart.IsZero() {
		return nil, ErrArgumentRequired
	}

	weekStartDate := shifttime.DateOnly(weekStart)
	log := g.logger.WithFields(logrus.Fields{
		"shift_template_id": template.ID,
		"week_start_date":   weekStartDate.Format("2006-01-02"),
	})
	log.Info("Generating dated roster")

	templateID := template.ID
	roster := &models.DatedRoster{
		UserID:          template.UserID,
		ShiftTemplateID: &templateID,
		Name:            template.Name,
		WeekStartDate:   weekStartDate,
		WeekEndDate:     shifttime.WeekEnd(weekStartDate),
		WeekType:        template.WeekType,
		Status:          models.RosterDraft,
	}

	err := g.tx.InTx(func(tx *gorm.DB) error {
		rosters := g.rosters.WithTx(tx)
		shifts := g.shifts.WithTx(tx)

		existing, err := rosters.GetByTemplateAndWeek(template.ID, weekStartDate)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyExists
		}
		if len(template.Shifts) == 0 {
			return ErrNoShiftsInTemplate
		}

		if err := rosters.Create(roster); err != nil {
			return err
		}

		for i := range template.Shifts {
			shift := g.instantiate(roster, &template.Shifts[i])
			if err := shifts.Create(shift); err != nil {
				return err
			}
			roster.Shifts = append(roster.Shifts, *shift)
		}
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrDuplicatedKey):
		log.Warn("Dated roster created concurrently for this week")
		return nil, ErrAlreadyExists
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrNoShiftsInTemplate):
		log.WithError(err).Warn("Roster generation rejected")
		return nil, err
	default:
		log.WithError(err).Error("Roster generation failed")
		return nil, fmt.Errorf("generate roster: %w", err)
	}

	log.WithFields(logrus.Fields{
		"dated_roster_id": roster.ID,
		"shifts":          len(roster.Shifts),
	}).Info("Dated roster generated successfully")

	return roster, nil
}

func (g *RosterGenerator) instantiate(roster *models.DatedRoster, ts *models.TemplateShift) *models.DatedShift {
	date := shifttime.DateFor(ts.DayOfWeek, roster.WeekStartDate)
	start, end := shifttime.Instantiate(date, ts.StartTime, ts.EndTime, g.loc)

	shift := &models.DatedShift{
		DatedRosterID: roster.ID,
		DayOfWeek:     ts.DayOfWeek,
		StartTime:     start,
		EndTime:       end,
		WorkSectionID: ts.WorkSectionID,
	}
	if ts.ShiftType != nil {
		st := *ts.ShiftType
		shift.ShiftType = &st
	}
	return shift
}
