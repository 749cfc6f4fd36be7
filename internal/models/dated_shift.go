package models

import (
	"time"

	"rosterassist/pkg/shifttime"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DatedShift is a concrete shift inside a DatedRoster. Start and end are full
// timestamps so an overnight shift spans two calendar dates.
type DatedShift struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	DatedRosterID uint              `gorm:"not null;index:idx_dated_shifts_roster_staff_day" json:"dated_roster_id"`
	UserID        *uint             `gorm:"index:idx_dated_shifts_roster_staff_day" json:"user_id,omitempty"`
	DayOfWeek     shifttime.Weekday `gorm:"not null;index:idx_dated_shifts_roster_staff_day" json:"day_of_week"`
	StartTime     time.Time         `gorm:"not null" json:"start_time"`
	EndTime       time.Time         `gorm:"not null" json:"end_time"`
	BreakStart    *time.Time        `json:"break_start,omitempty"`
	BreakEnd      *time.Time        `json:"break_end,omitempty"`
	ShiftType     *ShiftType        `gorm:"type:varchar(20)" json:"shift_type,omitempty"`
	WorkSectionID *uint             `gorm:"index" json:"work_section_id,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	WorkSection *WorkSection `gorm:"foreignKey:WorkSectionID;constraint:OnDelete:SET NULL" json:"work_section,omitempty"`
}

func (DatedShift) TableName() string {
	return "dated_shifts"
}

// ShiftSnapshot is a point-in-time copy of the fields staff care about,
// used to describe what changed in a shift-changed notification.
type ShiftSnapshot struct {
	UserID     *uint             `json:"user_id,omitempty"`
	DayOfWeek  shifttime.Weekday `json:"day_of_week"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time"`
	BreakStart *time.Time        `json:"break_start,omitempty"`
	BreakEnd   *time.Time        `json:"break_end,omitempty"`
	ShiftType  *ShiftType        `json:"shift_type,omitempty"`
}

func (s *DatedShift) Snapshot() ShiftSnapshot {
	snap := ShiftSnapshot{
		DayOfWeek: s.DayOfWeek,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
	}
	if s.UserID != nil {
		id := *s.UserID
		snap.UserID = &id
	}
	if s.BreakStart != nil {
		t := *s.BreakStart
		snap.BreakStart = &t
	}
	if s.BreakEnd != nil {
		t := *s.BreakEnd
		snap.BreakEnd = &t
	}
	if s.ShiftType != nil {
		st := *s.ShiftType
		snap.ShiftType = &st
	}
	return snap
}

func (s *DatedShift) IsAssigned() bool {
	return s.UserID != nil
}

// Duration is end minus start, wrapped by a day when negative.
func (s *DatedShift) Duration() time.Duration {
	return shifttime.Span(s.StartTime, s.EndTime)
}

func (s *DatedShift) BreakDuration() time.Duration {
	if s.BreakStart == nil || s.BreakEnd == nil {
		return 0
	}
	return s.BreakEnd.Sub(*s.BreakStart)
}

// PaidHours excludes the break.
func (s *DatedShift) PaidHours() decimal.Decimal {
	return decimal.NewFromFloat((s.Duration() - s.BreakDuration()).Hours())
}

// WageCost is paid hours at the assigned staff member's rate, zero when unassigned.
func (s *DatedShift) WageCost() decimal.Decimal {
	if s.User == nil {
		return decimal.Zero
	}
	return s.PaidHours().Mul(s.User.Rate()).Round(2)
}

func (s *DatedShift) SectionLabel() string {
	return sectionLabel(s.WorkSection, s.ShiftType)
}

func (s *DatedShift) Validate() FieldErrors {
	errs := FieldErrors{}
	if s.DatedRosterID == 0 {
		errs.Add("dated_roster_id", "is required")
	}
	if !s.DayOfWeek.IsValid() {
		errs.Add("day_of_week", "is not a valid day")
	}
	if s.StartTime.IsZero() {
		errs.Add("start_time", "can't be blank")
	}
	if s.EndTime.IsZero() {
		errs.Add("end_time", "can't be blank")
	}
	if errs.Any() {
		return errs
	}

	if !s.EndTime.After(s.StartTime) {
		errs.Add("end_time", "must be after start time")
	}
	if !shifttime.OnQuarterHour(s.StartTime) {
		errs.Add("start_time", "must be in 15-minute increments")
	}
	if !shifttime.OnQuarterHour(s.EndTime) {
		errs.Add("end_time", "must be in 15-minute increments")
	}
	if s.ShiftType != nil && !s.ShiftType.IsValid() {
		errs.Add("shift_type", "is not included in the list")
	}

	switch {
	case s.BreakStart == nil && s.BreakEnd == nil:
	case s.BreakStart == nil || s.BreakEnd == nil:
		errs.Add("break_start", "break needs both a start and an end")
	default:
		if !s.BreakEnd.After(*s.BreakStart) {
			errs.Add("break_end", "must be after break start")
		}
		if s.BreakStart.Before(s.StartTime) || s.BreakEnd.After(s.EndTime) {
			errs.Add("break_start", "break must be within the shift")
		}
	}
	return errs
}

func (s *DatedShift) IsValid() bool {
	return !s.Validate().Any()
}

// BeforeSave stores timestamps in UTC so interval comparisons are zone-free.
func (s *DatedShift) BeforeSave(tx *gorm.DB) error {
	s.StartTime = s.StartTime.UTC()
	s.EndTime = s.EndTime.UTC()
	if s.BreakStart != nil {
		t := s.BreakStart.UTC()
		s.BreakStart = &t
	}
	if s.BreakEnd != nil {
		t := s.BreakEnd.UTC()
		s.BreakEnd = &t
	}
	return nil
}
