package models

import (
	"time"

	"rosterassist/pkg/shifttime"

	"gorm.io/gorm"
)

// DatedRoster is a template instantiated for one Monday-start week.
type DatedRoster struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	ShiftTemplateID *uint     `gorm:"uniqueIndex:idx_dated_rosters_template_week" json:"shift_template_id,omitempty"`
	Name            string    `gorm:"type:varchar(150);not null" json:"name"`
	WeekStartDate   time.Time `gorm:"type:date;not null;uniqueIndex:idx_dated_rosters_template_week;index" json:"week_start_date"`
	WeekEndDate     time.Time `gorm:"type:date;not null" json:"week_end_date"`
	WeekType        WeekType  `gorm:"type:varchar(20);not null;default:'weekly'" json:"week_type"`

	Status        RosterStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	FinalizedAt   *time.Time   `json:"finalized_at,omitempty"`
	FinalizedByID *uint        `json:"finalized_by_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	ShiftTemplate *ShiftTemplate `gorm:"foreignKey:ShiftTemplateID;constraint:OnDelete:SET NULL" json:"-"`
	Shifts        []DatedShift   `gorm:"foreignKey:DatedRosterID;constraint:OnDelete:CASCADE" json:"shifts,omitempty"`
}

func (DatedRoster) TableName() string {
	return "dated_rosters"
}

func (r *DatedRoster) IsFinalized() bool {
	return r.Status == RosterFinalized
}

func (r *DatedRoster) BeforeSave(tx *gorm.DB) error {
	r.WeekStartDate = shifttime.DateOnly(r.WeekStartDate)
	r.WeekEndDate = shifttime.DateOnly(r.WeekEndDate)
	if r.Status == "" {
		r.Status = RosterDraft
	}
	if r.WeekType == "" {
		r.WeekType = WeekTypeWeekly
	}
	return nil
}

func (r *DatedRoster) IsValid() bool {
	if r.UserID == 0 || r.Name == "" {
		return false
	}
	if !shifttime.IsMonday(r.WeekStartDate) {
		return false
	}
	if !shifttime.DateOnly(r.WeekEndDate).Equal(shifttime.WeekEnd(shifttime.DateOnly(r.WeekStartDate))) {
		return false
	}
	return r.Status == RosterDraft || r.Status == RosterFinalized
}
