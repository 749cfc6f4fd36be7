package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	JobPending = "pending"
	JobSent    = "sent"
	JobFailed  = "failed"
)

// NotificationJob is a queued staff notification, delivered at least once
// by the dispatcher.
type NotificationJob struct {
	ID          uuid.UUID      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Template    string         `gorm:"type:varchar(40);not null" json:"template"`
	RecipientID uint           `gorm:"not null;index" json:"recipient_id"`
	Payload     datatypes.JSON `json:"payload"`
	Status      string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	LastError   string         `json:"last_error,omitempty"`
	SentAt      *time.Time     `json:"sent_at,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (NotificationJob) TableName() string {
	return "notification_jobs"
}

func (j *NotificationJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = JobPending
	}
	return nil
}

func (j *NotificationJob) IsValid() bool {
	if j.RecipientID == 0 {
		return false
	}
	return j.Template == NotificationShiftsAssigned || j.Template == NotificationShiftChanged
}
