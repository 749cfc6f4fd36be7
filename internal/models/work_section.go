package models

import "time"

// WorkSection is an owner-defined shift category ("Kitchen", "Bar").
type WorkSection struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_work_sections_owner_name" json:"user_id"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_work_sections_owner_name" json:"name"`
	Color     string    `gorm:"type:varchar(20)" json:"color,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WorkSection) TableName() string {
	return "work_sections"
}

func (ws *WorkSection) IsValid() bool {
	return ws.UserID != 0 && ws.Name != ""
}
