package repository

import (
	"errors"
	"time"

	"rosterassist/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TimeEntryRepository interface {
	Create(entry *models.TimeEntry) error
	Update(entry *models.TimeEntry) error
	GetByID(id uint) (*models.TimeEntry, error)
	GetOngoingByUserID(userID uint) (*models.TimeEntry, error)
	GetByUserID(userID uint, limit int) ([]*models.TimeEntry, error)
	ListCompletedClockedInBetween(from, to time.Time, userIDs []uint) ([]*models.TimeEntry, error)
	CompleteEntry(userID uint, clockOut time.Time) (*models.TimeEntry, error)
	DeleteByID(id uint) error
	UserHasOngoingEntry(userID uint) (bool, error)
}

type GormTimeEntryRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormTimeEntryRepository(db *gorm.DB) (*GormTimeEntryRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.TimeEntry{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate time_entries table")
		return nil, err
	}

	logger.Info("Time entry repository initialized")

	return &GormTimeEntryRepository{db: db, logger: logger}, nil
}

func (r *GormTimeEntryRepository) Create(entry *models.TimeEntry) error {
	r.logger.WithFields(logrus.Fields{
		"user_id":  entry.UserID,
		"clock_in": entry.ClockIn.Format(time.RFC3339),
	}).Info("Creating time entry")

	if !entry.IsValid() {
		r.logger.WithField("user_id", entry.UserID).Warn("Invalid time entry data")
		return errors.New("invalid time entry data")
	}

	if err := r.db.Omit(clause.Associations).Create(entry).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create time entry")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"id":      entry.ID,
		"user_id": entry.UserID,
	}).Info("Time entry created successfully")

	return nil
}

func (r *GormTimeEntryRepository) Update(entry *models.TimeEntry) error {
	r.logger.WithFields(logrus.Fields{
		"id":      entry.ID,
		"user_id": entry.UserID,
	}).Info("Updating time entry")

	if !entry.IsValid() {
		r.logger.WithField("id", entry.ID).Warn("Invalid time entry data for update")
		return errors.New("invalid time entry data")
	}

	result := r.db.Omit(clause.Associations).Save(entry)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update time entry")
		return result.Error
	}
	return nil
}

func (r *GormTimeEntryRepository) GetByID(id uint) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	result := r.db.Preload("User").First(&entry, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Time entry not found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get time entry by ID")
		return nil, result.Error
	}

	return &entry, nil
}

func (r *GormTimeEntryRepository) GetOngoingByUserID(userID uint) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	result := r.db.Where("user_id = ? AND clock_out IS NULL", userID).First(&entry)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("user_id", userID).Debug("No ongoing time entry found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get ongoing time entry")
		return nil, result.Error
	}

	return &entry, nil
}

func (r *GormTimeEntryRepository) GetByUserID(userID uint, limit int) ([]*models.TimeEntry, error) {
	var entries []*models.TimeEntry

	query := r.db.Where("user_id = ?", userID).Order("clock_in DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&entries).Error; err != nil {
		r.logger.WithError(err).Error("Failed to get time entries by user ID")
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"count":   len(entries),
		"limit":   limit,
	}).Debug("Retrieved time entries by user ID")

	return entries, nil
}

// ListCompletedClockedInBetween returns completed entries whose clock-in lies
// in [from, to), earliest clock-in first, with their users loaded. An empty
// userIDs means every user.
func (r *GormTimeEntryRepository) ListCompletedClockedInBetween(from, to time.Time, userIDs []uint) ([]*models.TimeEntry, error) {
	var entries []*models.TimeEntry

	query := r.db.Preload("User").
		Where("clock_out IS NOT NULL AND clock_in >= ? AND clock_in < ?", from.UTC(), to.UTC())
	if len(userIDs) > 0 {
		query = query.Where("user_id IN ?", userIDs)
	}

	if err := query.Order("clock_in, id").Find(&entries).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list completed time entries")
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"from":  from.Format(time.RFC3339),
		"to":    to.Format(time.RFC3339),
		"count": len(entries),
	}).Debug("Retrieved completed time entries")

	return entries, nil
}

func (r *GormTimeEntryRepository) CompleteEntry(userID uint, clockOut time.Time) (*models.TimeEntry, error) {
	r.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"clock_out": clockOut.Format(time.RFC3339),
	}).Info("Completing time entry")

	entry, err := r.GetOngoingByUserID(userID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		r.logger.WithField("user_id", userID).Warn("No ongoing time entry found to complete")
		return nil, ErrNotFound
	}

	entry.ClockOut = &clockOut
	if !entry.IsValid() {
		return nil, errors.New("clock out must be after clock in")
	}

	if err := r.db.Omit(clause.Associations).Save(entry).Error; err != nil {
		r.logger.WithError(err).Error("Failed to complete time entry")
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"id":             entry.ID,
		"user_id":        userID,
		"worked_minutes": entry.WorkedMinutes,
	}).Info("Time entry completed successfully")

	return entry, nil
}

func (r *GormTimeEntryRepository) DeleteByID(id uint) error {
	r.logger.WithField("id", id).Info("Deleting time entry by ID")

	result := r.db.Delete(&models.TimeEntry{}, id)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete time entry")
		return result.Error
	}
	if result.RowsAffected == 0 {
		r.logger.WithField("id", id).Warn("Time entry not found for deletion")
		return ErrNotFound
	}

	r.logger.WithField("id", id).Info("Time entry deleted successfully")
	return nil
}

func (r *GormTimeEntryRepository) UserHasOngoingEntry(userID uint) (bool, error) {
	entry, err := r.GetOngoingByUserID(userID)
	if err != nil {
		return false, err
	}
	return entry != nil, nil
}
