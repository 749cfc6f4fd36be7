package repository

import (
	"time"

	"rosterassist/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type NotificationJobRepository interface {
	Create(job *models.NotificationJob) error
	ListPending(limit int) ([]*models.NotificationJob, error)
	MarkSent(id uuid.UUID, at time.Time) error
	MarkAttemptFailed(id uuid.UUID, attempts int, lastError string, final bool) error
	CountByStatus(status string) (int64, error)
}

type GormNotificationJobRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormNotificationJobRepository(db *gorm.DB) (*GormNotificationJobRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.NotificationJob{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate notification_jobs table")
		return nil, err
	}

	return &GormNotificationJobRepository{db: db, logger: logger}, nil
}

func (r *GormNotificationJobRepository) Create(job *models.NotificationJob) error {
	if err := r.db.Create(job).Error; err != nil {
		r.logger.WithError(err).Error("Failed to enqueue notification job")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"id":           job.ID.String(),
		"template":     job.Template,
		"recipient_id": job.RecipientID,
	}).Info("Notification job enqueued")

	return nil
}

// ListPending returns the oldest pending jobs first.
func (r *GormNotificationJobRepository) ListPending(limit int) ([]*models.NotificationJob, error) {
	var jobs []*models.NotificationJob

	query := r.db.Where("status = ?", models.JobPending).Order("created_at, id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&jobs).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list pending notification jobs")
		return nil, err
	}
	return jobs, nil
}

func (r *GormNotificationJobRepository) MarkSent(id uuid.UUID, at time.Time) error {
	result := r.db.Model(&models.NotificationJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     models.JobSent,
		"sent_at":    at.UTC(),
		"last_error": "",
	})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to mark notification job sent")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAttemptFailed records a failed delivery. A final failure stops retries.
func (r *GormNotificationJobRepository) MarkAttemptFailed(id uuid.UUID, attempts int, lastError string, final bool) error {
	status := models.JobPending
	if final {
		status = models.JobFailed
	}

	result := r.db.Model(&models.NotificationJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"attempts":   attempts,
		"last_error": lastError,
	})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to record notification job failure")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormNotificationJobRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.NotificationJob{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
