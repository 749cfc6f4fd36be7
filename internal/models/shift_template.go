package models

import (
	"time"

	"rosterassist/pkg/shifttime"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DayAllocations maps a lower-case day name to a manual daily wage budget.
type DayAllocations map[string]float64

// ShiftTemplate is the recurring weekly pattern a dated roster is generated from.
type ShiftTemplate struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"type:varchar(150);not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	StartsAt *time.Time `gorm:"type:date" json:"starts_at,omitempty"`
	EndsAt   *time.Time `gorm:"type:date" json:"ends_at,omitempty"`
	WeekType WeekType   `gorm:"type:varchar(20);not null;default:'weekly'" json:"week_type"`

	OpeningTime         *shifttime.TimeOfDay `gorm:"type:varchar(8)" json:"opening_time,omitempty"`
	ClosingTime         *shifttime.TimeOfDay `gorm:"type:varchar(8)" json:"closing_time,omitempty"`
	SlotIntervalMinutes int                  `gorm:"not null;default:30" json:"slot_interval_minutes"`

	WeeklySalesForecast    decimal.NullDecimal                 `gorm:"type:decimal(14,2)" json:"weekly_sales_forecast"`
	WagePercentageOverride decimal.NullDecimal                 `gorm:"type:decimal(5,2)" json:"wage_percentage_override"`
	EstimatedHourlyRate    decimal.NullDecimal                 `gorm:"type:decimal(10,2)" json:"estimated_hourly_rate"`
	DailyBudgetAllocations datatypes.JSONType[DayAllocations] `json:"daily_budget_allocations"`

	User   User            `gorm:"foreignKey:UserID" json:"-"`
	Shifts []TemplateShift `gorm:"foreignKey:ShiftTemplateID;constraint:OnDelete:CASCADE" json:"shifts,omitempty"`
}

func (ShiftTemplate) TableName() string {
	return "shift_templates"
}

// Allocation returns the manual budget for a day, if one was entered.
func (t *ShiftTemplate) Allocation(day shifttime.Weekday) (decimal.Decimal, bool) {
	allocations := t.DailyBudgetAllocations.Data()
	if allocations == nil {
		return decimal.Zero, false
	}
	v, ok := allocations[day.String()]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v), true
}

// IsCustomized reports whether the owner overrode the weekly sales figure
// or the wage percentage for this template.
func (t *ShiftTemplate) IsCustomized() bool {
	return t.WeeklySalesForecast.Valid || t.WagePercentageOverride.Valid
}

func (t *ShiftTemplate) Validate() FieldErrors {
	errs := FieldErrors{}
	if t.UserID == 0 {
		errs.Add("user_id", "is required")
	}
	if t.Name == "" {
		errs.Add("name", "can't be blank")
	}
	if t.WeekType != "" && !t.WeekType.IsValid() {
		errs.Add("week_type", "must be weekly or fortnightly")
	}
	if t.StartsAt != nil && t.EndsAt != nil && t.EndsAt.Before(*t.StartsAt) {
		errs.Add("ends_at", "must be on or after the start date")
	}
	if t.OpeningTime != nil && t.ClosingTime != nil && !t.OpeningTime.Before(*t.ClosingTime) {
		errs.Add("closing_time", "must be after opening time")
	}
	if t.SlotIntervalMinutes < 0 {
		errs.Add("slot_interval_minutes", "must not be negative")
	}
	if t.WeeklySalesForecast.Valid && t.WeeklySalesForecast.Decimal.IsNegative() {
		errs.Add("weekly_sales_forecast", "must not be negative")
	}
	if t.WagePercentageOverride.Valid {
		p := t.WagePercentageOverride.Decimal
		if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
			errs.Add("wage_percentage_override", "must be between 0 and 100")
		}
	}
	for day := range t.DailyBudgetAllocations.Data() {
		if _, err := shifttime.ParseWeekday(day); err != nil {
			errs.Add("daily_budget_allocations", "has an unknown day "+day)
		}
	}
	return errs
}

func (t *ShiftTemplate) IsValid() bool {
	return !t.Validate().Any()
}
