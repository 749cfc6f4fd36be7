package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a business owner, a manager or a staff member. Staff and managers
// point at their owner through OwnerID; owners have none.
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OwnerID *uint  `gorm:"index" json:"owner_id,omitempty"`
	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"uniqueIndex;not null" json:"email"`
	Role    Role   `gorm:"type:varchar(20);not null;default:'staff'" json:"role"`

	HourlyRate         decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"hourly_rate"`
	YearlySales        decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"yearly_sales"`
	WagePercentageGoal *int                `json:"wage_percentage_goal"`

	TelegramChatID int64 `gorm:"default:0" json:"telegram_chat_id,omitempty"`

	// HMAC of the clock-in PIN. Nullable so users without a PIN don't collide.
	PinDigest *string `gorm:"type:varchar(64);uniqueIndex" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanManageRosters reports whether the user may edit templates and rosters.
func (u *User) CanManageRosters() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}

// TenantID is the owner account every query of this user is scoped by.
func (u *User) TenantID() uint {
	if u.OwnerID != nil {
		return *u.OwnerID
	}
	return u.ID
}

// Rate returns the hourly rate, or zero when none is set.
func (u *User) Rate() decimal.Decimal {
	if u.HourlyRate.Valid {
		return u.HourlyRate.Decimal
	}
	return decimal.Zero
}

func (u *User) HasPin() bool {
	return u.PinDigest != nil && *u.PinDigest != ""
}
