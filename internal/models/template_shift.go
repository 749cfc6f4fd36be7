package models

import (
	"time"

	"rosterassist/pkg/shifttime"
)

// TemplateShift is one date-less slot of a ShiftTemplate.
type TemplateShift struct {
	ID              uint                `gorm:"primarykey" json:"id"`
	ShiftTemplateID uint                `gorm:"not null;index:idx_template_shifts_day" json:"shift_template_id"`
	DayOfWeek       shifttime.Weekday   `gorm:"not null;index:idx_template_shifts_day" json:"day_of_week"`
	StartTime       shifttime.TimeOfDay `gorm:"type:varchar(8);not null" json:"start_time"`
	EndTime         shifttime.TimeOfDay `gorm:"type:varchar(8);not null" json:"end_time"`
	ShiftType       *ShiftType          `gorm:"type:varchar(20)" json:"shift_type,omitempty"`
	WorkSectionID   *uint               `gorm:"index" json:"work_section_id,omitempty"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`

	WorkSection *WorkSection `gorm:"foreignKey:WorkSectionID;constraint:OnDelete:SET NULL" json:"work_section,omitempty"`
}

func (TemplateShift) TableName() string {
	return "template_shifts"
}

// Duration is the shift length; an end at or before the start wraps to the next day.
func (s *TemplateShift) Duration() time.Duration {
	return shifttime.TimeOfDaySpan(s.StartTime, s.EndTime)
}

// SectionLabel groups the shift in budget breakdowns.
func (s *TemplateShift) SectionLabel() string {
	return sectionLabel(s.WorkSection, s.ShiftType)
}

func (s *TemplateShift) Validate() FieldErrors {
	errs := FieldErrors{}
	if s.ShiftTemplateID == 0 {
		errs.Add("shift_template_id", "is required")
	}
	if !s.DayOfWeek.IsValid() {
		errs.Add("day_of_week", "is not a valid day")
	}
	if !shifttime.ValidTemplateSpan(s.StartTime, s.EndTime) {
		errs.Add("end_time", "overnight shifts must last between 1 and 23 hours")
	}
	if s.ShiftType == nil && s.WorkSectionID == nil {
		errs.Add("shift_type", "is required when no work section is set")
	}
	if s.ShiftType != nil && !s.ShiftType.IsValid() {
		errs.Add("shift_type", "is not included in the list")
	}
	return errs
}

func (s *TemplateShift) IsValid() bool {
	return !s.Validate().Any()
}

func sectionLabel(section *WorkSection, shiftType *ShiftType) string {
	if section != nil && section.Name != "" {
		return section.Name
	}
	if shiftType != nil {
		return shiftType.Title()
	}
	return "Unassigned"
}
