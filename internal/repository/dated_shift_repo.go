package repository

import (
	"errors"

	"rosterassist/internal/models"
	"rosterassist/pkg/shifttime"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DatedShiftRepository interface {
	WithTx(tx *gorm.DB) DatedShiftRepository
	Create(shift *models.DatedShift) error
	Update(shift *models.DatedShift) error
	GetByID(id uint) (*models.DatedShift, error)
	ListByRoster(rosterID uint) ([]*models.DatedShift, error)
	ListForStaffDay(rosterID, staffID uint, day shifttime.Weekday) ([]*models.DatedShift, error)
	ListByRosterAndStaff(rosterID, staffID uint) ([]*models.DatedShift, error)
	AssignedStaffIDs(rosterID uint) ([]uint, error)
	Delete(id uint) error
}

type GormDatedShiftRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormDatedShiftRepository(db *gorm.DB) (*GormDatedShiftRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.DatedShift{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate dated_shifts table")
		return nil, err
	}

	return &GormDatedShiftRepository{db: db, logger: logger}, nil
}

func (r *GormDatedShiftRepository) WithTx(tx *gorm.DB) DatedShiftRepository {
	return &GormDatedShiftRepository{db: tx, logger: r.logger}
}

func (r *GormDatedShiftRepository) Create(shift *models.DatedShift) error {
	r.logger.WithFields(logrus.Fields{
		"dated_roster_id": shift.DatedRosterID,
		"user_id":         shift.UserID,
		"day_of_week":     shift.DayOfWeek.String(),
	}).Info("Creating dated shift")

	if err := r.db.Omit(clause.Associations).Create(shift).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create dated shift")
		return err
	}
	return nil
}

func (r *GormDatedShiftRepository) Update(shift *models.DatedShift) error {
	r.logger.WithFields(logrus.Fields{
		"id":      shift.ID,
		"user_id": shift.UserID,
	}).Info("Updating dated shift")

	if err := r.db.Omit(clause.Associations).Save(shift).Error; err != nil {
		r.logger.WithError(err).Error("Failed to update dated shift")
		return err
	}
	return nil
}

func (r *GormDatedShiftRepository) GetByID(id uint) (*models.DatedShift, error) {
	var shift models.DatedShift
	result := r.db.Preload("User").Preload("WorkSection").First(&shift, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Dated shift not found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get dated shift")
		return nil, result.Error
	}
	return &shift, nil
}

func (r *GormDatedShiftRepository) ListByRoster(rosterID uint) ([]*models.DatedShift, error) {
	var shifts []*models.DatedShift
	result := r.db.Preload("User").Preload("WorkSection").
		Where("dated_roster_id = ?", rosterID).
		Order("start_time, id").
		Find(&shifts)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list dated shifts")
		return nil, result.Error
	}
	return shifts, nil
}

// ListForStaffDay is the candidate set for the overlap check. Interval
// comparison happens in Go.
func (r *GormDatedShiftRepository) ListForStaffDay(rosterID, staffID uint, day shifttime.Weekday) ([]*models.DatedShift, error) {
	var shifts []*models.DatedShift
	result := r.db.Preload("User").
		Where("dated_roster_id = ? AND user_id = ? AND day_of_week = ?", rosterID, staffID, day).
		Order("start_time, id").
		Find(&shifts)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list staff shifts for day")
		return nil, result.Error
	}
	return shifts, nil
}

func (r *GormDatedShiftRepository) ListByRosterAndStaff(rosterID, staffID uint) ([]*models.DatedShift, error) {
	var shifts []*models.DatedShift
	result := r.db.Preload("User").Preload("WorkSection").
		Where("dated_roster_id = ? AND user_id = ?", rosterID, staffID).
		Order("start_time, id").
		Find(&shifts)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list staff shifts")
		return nil, result.Error
	}
	return shifts, nil
}

// AssignedStaffIDs returns the distinct staff with at least one shift in the roster.
func (r *GormDatedShiftRepository) AssignedStaffIDs(rosterID uint) ([]uint, error) {
	var ids []uint
	result := r.db.Model(&models.DatedShift{}).
		Where("dated_roster_id = ? AND user_id IS NOT NULL", rosterID).
		Distinct().
		Order("user_id").
		Pluck("user_id", &ids)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get assigned staff")
		return nil, result.Error
	}
	return ids, nil
}

func (r *GormDatedShiftRepository) Delete(id uint) error {
	r.logger.WithField("id", id).Info("Deleting dated shift")

	result := r.db.Delete(&models.DatedShift{}, id)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete dated shift")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
