package service

import (
	"time"

	"rosterassist/internal/models"
	"rosterassist/internal/repository"
	"rosterassist/pkg/shifttime"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ScopeKind int

const (
	// ScopeDatedRoster checks staff-scoped overlaps inside one dated roster.
	ScopeDatedRoster ScopeKind = iota
	// ScopeTemplate checks overlaps between template shifts of the same day.
	ScopeTemplate
)

type Scope struct {
	Kind ScopeKind
	ID   uint
}

func DatedRosterScope(rosterID uint) Scope { return Scope{Kind: ScopeDatedRoster, ID: rosterID} }
func TemplateScope(templateID uint) Scope  { return Scope{Kind: ScopeTemplate, ID: templateID} }

// templateAnchor is the date template shifts are placed on for comparison.
var templateAnchor = time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)

// TemplateInterval places a date-less template shift on a fixed anchor date
// so it can be compared with the same interval test as dated shifts.
func TemplateInterval(start, end shifttime.TimeOfDay) (time.Time, time.Time) {
	return shifttime.Instantiate(templateAnchor, start, end, time.UTC)
}

type ConflictDetector struct {
	datedShifts    repository.DatedShiftRepository
	templateShifts repository.TemplateShiftRepository
	logger         *logrus.Logger
}

func NewConflictDetector(
	datedShifts repository.DatedShiftRepository,
	templateShifts repository.TemplateShiftRepository,
) *ConflictDetector {
	return &ConflictDetector{
		datedShifts:    datedShifts,
		templateShifts: templateShifts,
		logger:         newLogger(),
	}
}

func (d *ConflictDetector) withTx(tx *gorm.DB) *ConflictDetector {
	return &ConflictDetector{
		datedShifts:    d.datedShifts.WithTx(tx),
		templateShifts: d.templateShifts,
		logger:         d.logger,
	}
}

// FindOverlaps returns the shifts in scope that intersect [start, end) on day.
// In a dated roster only shifts of the same staff member count and an
// unassigned candidate (nil staffID) never conflicts. In a template every
// shift of the day counts. excludeID skips the row being updated.
func (d *ConflictDetector) FindOverlaps(scope Scope, day shifttime.Weekday, staffID *uint, start, end time.Time, excludeID uint) ([]Conflict, error) {
	switch scope.Kind {
	case ScopeDatedRoster:
		return d.findDated(scope.ID, day, staffID, start, end, excludeID)
	case ScopeTemplate:
		return d.findTemplate(scope.ID, day, start, end, excludeID)
	}
	return nil, nil
}

func (d *ConflictDetector) findDated(rosterID uint, day shifttime.Weekday, staffID *uint, start, end time.Time, excludeID uint) ([]Conflict, error) {
	if staffID == nil {
		return nil, nil
	}

	candidates, err := d.datedShifts.ListForStaffDay(rosterID, *staffID, day)
	if err != nil {
		return nil, err
	}

	var conflicts []Conflict
	for _, c := range candidates {
		if c.ID == excludeID {
			continue
		}
		if shifttime.Overlaps(start, end, c.StartTime, c.EndTime) {
			conflicts = append(conflicts, conflictFromShift(c))
		}
	}

	if len(conflicts) > 0 {
		d.logger.WithFields(logrus.Fields{
			"dated_roster_id": rosterID,
			"staff_id":        *staffID,
			"day_of_week":     day.String(),
			"conflicts":       len(conflicts),
		}).Debug("Dated shift overlaps found")
	}

	return conflicts, nil
}

func (d *ConflictDetector) findTemplate(templateID uint, day shifttime.Weekday, start, end time.Time, excludeID uint) ([]Conflict, error) {
	candidates, err := d.templateShifts.ListByTemplateAndDay(templateID, day)
	if err != nil {
		return nil, err
	}

	var conflicts []Conflict
	for _, c := range candidates {
		if c.ID == excludeID {
			continue
		}
		cStart, cEnd := TemplateInterval(c.StartTime, c.EndTime)
		if shifttime.Overlaps(start, end, cStart, cEnd) {
			conflicts = append(conflicts, Conflict{ShiftID: c.ID, Start: cStart, End: cEnd})
		}
	}
	return conflicts, nil
}

func conflictFromShift(s *models.DatedShift) Conflict {
	c := Conflict{ShiftID: s.ID, Start: s.StartTime, End: s.EndTime}
	if s.UserID != nil {
		c.StaffID = *s.UserID
	}
	if s.User != nil {
		c.StaffName = s.User.Name
	}
	return c
}

// overlapsWithin finds pairwise staff overlaps inside a batch not yet saved.
// It returns the index of the later shift of each clashing pair.
func overlapsWithin(shifts []*models.DatedShift) map[int][]int {
	clashes := map[int][]int{}
	for i := 0; i < len(shifts); i++ {
		a := shifts[i]
		if a == nil || a.UserID == nil {
			continue
		}
		for j := i + 1; j < len(shifts); j++ {
			b := shifts[j]
			if b == nil || b.UserID == nil || *a.UserID != *b.UserID || a.DayOfWeek != b.DayOfWeek {
				continue
			}
			if shifttime.Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
				clashes[j] = append(clashes[j], i)
			}
		}
	}
	return clashes
}
