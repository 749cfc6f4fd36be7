package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AwardRate is a Fair Work award pay rate, optionally bound to a staff member.
type AwardRate struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	UserID         *uint           `gorm:"index:idx_award_rates_lookup" json:"user_id,omitempty"`
	AwardCode      string          `gorm:"type:varchar(20);not null;index:idx_award_rates_lookup" json:"award_code"`
	Classification string          `gorm:"type:varchar(100);not null;index:idx_award_rates_lookup" json:"classification"`
	Rate           decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"rate"`
	EffectiveDate  *time.Time      `gorm:"type:date" json:"effective_date,omitempty"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

func (AwardRate) TableName() string {
	return "award_rates"
}

func (a *AwardRate) IsValid() bool {
	if a.AwardCode == "" || a.Classification == "" {
		return false
	}
	return !a.Rate.IsNegative()
}
