package handler

import (
	"time"

	"rosterassist/internal/models"
	"rosterassist/pkg/shifttime"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

type userRequest struct {
	Name               string              `json:"name" validate:"required,max=100"`
	Email              string              `json:"email" validate:"required,email"`
	Role               models.Role         `json:"role" validate:"omitempty,oneof=admin manager staff"`
	HourlyRate         decimal.NullDecimal `json:"hourly_rate"`
	YearlySales        decimal.NullDecimal `json:"yearly_sales"`
	WagePercentageGoal *int                `json:"wage_percentage_goal" validate:"omitempty,min=0,max=100"`
}

func (r *userRequest) toModel() *models.User {
	return &models.User{
		Name:               r.Name,
		Email:              r.Email,
		Role:               r.Role,
		HourlyRate:         r.HourlyRate,
		YearlySales:        r.YearlySales,
		WagePercentageGoal: r.WagePercentageGoal,
	}
}

type roleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=manager staff"`
}

type pinRequest struct {
	Pin string `json:"pin" validate:"required,numeric,min=4,max=6"`
}

type sectionRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"max=20"`
}

type templateRequest struct {
	Name                   string                `json:"name" validate:"required,max=150"`
	StartsAt               string                `json:"starts_at" validate:"omitempty,datetime=2006-01-02"`
	EndsAt                 string                `json:"ends_at" validate:"omitempty,datetime=2006-01-02"`
	WeekType               models.WeekType       `json:"week_type" validate:"omitempty,oneof=weekly fortnightly"`
	OpeningTime            *shifttime.TimeOfDay  `json:"opening_time"`
	ClosingTime            *shifttime.TimeOfDay  `json:"closing_time"`
	SlotIntervalMinutes    int                   `json:"slot_interval_minutes" validate:"min=0,max=240"`
	WeeklySalesForecast    decimal.NullDecimal   `json:"weekly_sales_forecast"`
	WagePercentageOverride decimal.NullDecimal   `json:"wage_percentage_override"`
	EstimatedHourlyRate    decimal.NullDecimal   `json:"estimated_hourly_rate"`
	DailyBudgetAllocations models.DayAllocations `json:"daily_budget_allocations"`
}

func (h *Handler) templateFromRequest(r *templateRequest) (*models.ShiftTemplate, error) {
	t := &models.ShiftTemplate{
		Name:                   r.Name,
		WeekType:               r.WeekType,
		OpeningTime:            r.OpeningTime,
		ClosingTime:            r.ClosingTime,
		SlotIntervalMinutes:    r.SlotIntervalMinutes,
		WeeklySalesForecast:    r.WeeklySalesForecast,
		WagePercentageOverride: r.WagePercentageOverride,
		EstimatedHourlyRate:    r.EstimatedHourlyRate,
	}
	if t.SlotIntervalMinutes == 0 {
		t.SlotIntervalMinutes = 30
	}
	if r.DailyBudgetAllocations != nil {
		t.DailyBudgetAllocations = datatypes.NewJSONType(r.DailyBudgetAllocations)
	}
	if r.StartsAt != "" {
		d, err := h.parseDate(r.StartsAt)
		if err != nil {
			return nil, err
		}
		t.StartsAt = &d
	}
	if r.EndsAt != "" {
		d, err := h.parseDate(r.EndsAt)
		if err != nil {
			return nil, err
		}
		t.EndsAt = &d
	}
	return t, nil
}

type templateShiftRequest struct {
	DayOfWeek     *shifttime.Weekday   `json:"day_of_week" validate:"required"`
	StartTime     *shifttime.TimeOfDay `json:"start_time" validate:"required"`
	EndTime       *shifttime.TimeOfDay `json:"end_time" validate:"required"`
	ShiftType     *models.ShiftType    `json:"shift_type" validate:"omitempty,oneof=morning afternoon evening night"`
	WorkSectionID *uint                `json:"work_section_id"`
}

func (r *templateShiftRequest) toModel() *models.TemplateShift {
	return &models.TemplateShift{
		DayOfWeek:     *r.DayOfWeek,
		StartTime:     *r.StartTime,
		EndTime:       *r.EndTime,
		ShiftType:     r.ShiftType,
		WorkSectionID: r.WorkSectionID,
	}
}

type generateRequest struct {
	WeekStartDate string `json:"week_start_date" validate:"required,datetime=2006-01-02"`
}

// shiftRequest is one dated shift as the calendar sends it. The day of
// week defaults to the local day of the start time.
type shiftRequest struct {
	UserID        *uint              `json:"user_id"`
	DayOfWeek     *shifttime.Weekday `json:"day_of_week"`
	StartTime     time.Time          `json:"start_time" validate:"required"`
	EndTime       time.Time          `json:"end_time" validate:"required"`
	BreakStart    *time.Time         `json:"break_start"`
	BreakEnd      *time.Time         `json:"break_end"`
	ShiftType     *models.ShiftType  `json:"shift_type" validate:"omitempty,oneof=morning afternoon evening night"`
	WorkSectionID *uint              `json:"work_section_id"`
	Notes         string             `json:"notes" validate:"max=500"`
}

func (h *Handler) shiftFromRequest(r *shiftRequest) *models.DatedShift {
	day := shifttime.WeekdayOf(r.StartTime.In(h.loc))
	if r.DayOfWeek != nil {
		day = *r.DayOfWeek
	}
	return &models.DatedShift{
		UserID:        r.UserID,
		DayOfWeek:     day,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		BreakStart:    r.BreakStart,
		BreakEnd:      r.BreakEnd,
		ShiftType:     r.ShiftType,
		WorkSectionID: r.WorkSectionID,
		Notes:         r.Notes,
	}
}

type bulkShiftRequest struct {
	Shifts []shiftRequest `json:"shifts" validate:"required,min=1,max=200,dive"`
}

type conflictCheckRequest struct {
	UserID    *uint              `json:"user_id"`
	DayOfWeek *shifttime.Weekday `json:"day_of_week"`
	StartTime time.Time          `json:"start_time" validate:"required"`
	EndTime   time.Time          `json:"end_time" validate:"required"`
	ExcludeID uint               `json:"exclude_id"`
}

type forecastRequest struct {
	StartDate      string              `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string              `json:"end_date" validate:"required,datetime=2006-01-02"`
	ProjectedSales decimal.Decimal     `json:"projected_sales"`
	ActualSales    decimal.NullDecimal `json:"actual_sales"`
	Confidence     *int                `json:"confidence_level" validate:"omitempty,min=0,max=100"`
	Notes          string              `json:"notes" validate:"max=1000"`
}

func (h *Handler) forecastFromRequest(r *forecastRequest) (*models.SalesForecast, error) {
	start, err := h.parseDate(r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := h.parseDate(r.EndDate)
	if err != nil {
		return nil, err
	}
	return &models.SalesForecast{
		StartDate:      start,
		EndDate:        end,
		ProjectedSales: r.ProjectedSales,
		ActualSales:    r.ActualSales,
		Confidence:     r.Confidence,
		Notes:          r.Notes,
	}, nil
}

type awardRequest struct {
	UserID         *uint           `json:"user_id"`
	AwardCode      string          `json:"award_code" validate:"required,min=2,max=20"`
	Classification string          `json:"classification" validate:"required,max=100"`
	Rate           decimal.Decimal `json:"rate"`
	EffectiveDate  string          `json:"effective_date" validate:"required,datetime=2006-01-02"`
	Description    string          `json:"description" validate:"max=500"`
}

type assignRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

type refreshRequest struct {
	AwardCode      string `json:"award_code" validate:"required,min=2,max=20"`
	Classification string `json:"classification" validate:"required,max=100"`
}

type clockRequest struct {
	Pin string `json:"pin" validate:"required"`
}
