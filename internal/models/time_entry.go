package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TimeEntry is one clock-in/clock-out interval. ClockOut is nil while the
// user is still on the clock.
type TimeEntry struct {
	ID     uint `gorm:"primarykey" json:"id"`
	UserID uint `gorm:"not null;index;index:idx_time_entries_ongoing,unique,where:clock_out IS NULL" json:"user_id"`

	ClockIn  time.Time  `gorm:"not null;index" json:"clock_in"`
	ClockOut *time.Time `json:"clock_out"`

	// Calculated on save.
	WorkedMinutes int `gorm:"not null;default:0" json:"worked_minutes"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (TimeEntry) TableName() string {
	return "time_entries"
}

// IsOngoing reports whether the user is still clocked in.
func (e *TimeEntry) IsOngoing() bool {
	return e.ClockOut == nil
}

func (e *TimeEntry) IsCompleted() bool {
	return e.ClockOut != nil
}

// Elapsed is the time on the clock, measured up to now for an ongoing entry.
func (e *TimeEntry) Elapsed(now time.Time) time.Duration {
	if e.ClockOut != nil {
		return e.ClockOut.Sub(e.ClockIn)
	}
	return now.Sub(e.ClockIn)
}

// Hours is the completed duration in fractional hours, zero while ongoing.
func (e *TimeEntry) Hours() float64 {
	if e.ClockOut == nil {
		return 0
	}
	return e.ClockOut.Sub(e.ClockIn).Hours()
}

func (e *TimeEntry) CalculateWorkedMinutes() int {
	if e.ClockOut == nil {
		return 0
	}
	return int(e.ClockOut.Sub(e.ClockIn).Minutes())
}

// Duration formats the worked time for display, e.g. "7h 30m".
func (e *TimeEntry) Duration() string {
	if e.ClockOut == nil {
		return "still on the clock"
	}

	d := e.ClockOut.Sub(e.ClockIn)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func (e *TimeEntry) BeforeSave(tx *gorm.DB) error {
	e.ClockIn = e.ClockIn.UTC()
	if e.ClockOut != nil {
		out := e.ClockOut.UTC()
		e.ClockOut = &out
	}
	e.WorkedMinutes = e.CalculateWorkedMinutes()
	return nil
}

func (e *TimeEntry) IsValid() bool {
	if e.UserID == 0 {
		return false
	}
	if e.ClockIn.IsZero() {
		return false
	}
	if e.ClockOut != nil && !e.ClockOut.After(e.ClockIn) {
		return false
	}
	return true
}
