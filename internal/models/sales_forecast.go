package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesForecast is an owner's projected (and later actual) takings for a date range.
type SalesForecast struct {
	ID             uint                `gorm:"primarykey" json:"id"`
	UserID         uint                `gorm:"not null;index" json:"user_id"`
	StartDate      time.Time           `gorm:"type:date;not null;index" json:"start_date"`
	EndDate        time.Time           `gorm:"type:date;not null" json:"end_date"`
	ProjectedSales decimal.Decimal     `gorm:"type:decimal(14,2);not null;default:0" json:"projected_sales"`
	ActualSales    decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"actual_sales"`
	Confidence     *int                `json:"confidence_level,omitempty"`
	Notes          string              `json:"notes,omitempty"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SalesForecast) TableName() string {
	return "sales_forecasts"
}

func (f *SalesForecast) Validate() FieldErrors {
	errs := FieldErrors{}
	if f.UserID == 0 {
		errs.Add("user_id", "is required")
	}
	if f.StartDate.IsZero() {
		errs.Add("start_date", "can't be blank")
	}
	if f.EndDate.IsZero() {
		errs.Add("end_date", "can't be blank")
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		errs.Add("end_date", "must be after or equal to start date")
	}
	if f.ProjectedSales.IsNegative() {
		errs.Add("projected_sales", "must be greater than or equal to 0")
	}
	if f.ActualSales.Valid && f.ActualSales.Decimal.IsNegative() {
		errs.Add("actual_sales", "must be greater than or equal to 0")
	}
	if f.Confidence != nil && (*f.Confidence < 0 || *f.Confidence > 100) {
		errs.Add("confidence_level", "must be between 0 and 100")
	}
	return errs
}

// Variance is actual minus projected, once actual sales are known.
func (f *SalesForecast) Variance() (decimal.Decimal, bool) {
	if !f.ActualSales.Valid {
		return decimal.Zero, false
	}
	return f.ActualSales.Decimal.Sub(f.ProjectedSales), true
}
