package repository

import (
	"errors"

	"rosterassist/internal/models"
	"rosterassist/pkg/shifttime"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TemplateShiftRepository interface {
	Create(shift *models.TemplateShift) error
	Update(shift *models.TemplateShift) error
	GetByID(id uint) (*models.TemplateShift, error)
	ListByTemplate(templateID uint) ([]*models.TemplateShift, error)
	ListByTemplateAndDay(templateID uint, day shifttime.Weekday) ([]*models.TemplateShift, error)
	CountByTemplate(templateID uint) (int64, error)
	Delete(id uint) error
}

type GormTemplateShiftRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormTemplateShiftRepository(db *gorm.DB) (*GormTemplateShiftRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.TemplateShift{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate template_shifts table")
		return nil, err
	}

	return &GormTemplateShiftRepository{db: db, logger: logger}, nil
}

func (r *GormTemplateShiftRepository) Create(shift *models.TemplateShift) error {
	r.logger.WithFields(logrus.Fields{
		"shift_template_id": shift.ShiftTemplateID,
		"day_of_week":       shift.DayOfWeek.String(),
		"start_time":        shift.StartTime.String(),
		"end_time":          shift.EndTime.String(),
	}).Info("Creating template shift")

	if err := r.db.Omit(clause.Associations).Create(shift).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create template shift")
		return err
	}
	return nil
}

func (r *GormTemplateShiftRepository) Update(shift *models.TemplateShift) error {
	r.logger.WithField("id", shift.ID).Info("Updating template shift")

	if err := r.db.Omit(clause.Associations).Save(shift).Error; err != nil {
		r.logger.WithError(err).Error("Failed to update template shift")
		return err
	}
	return nil
}

func (r *GormTemplateShiftRepository) GetByID(id uint) (*models.TemplateShift, error) {
	var shift models.TemplateShift
	result := r.db.Preload("WorkSection").First(&shift, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get template shift")
		return nil, result.Error
	}
	return &shift, nil
}

func (r *GormTemplateShiftRepository) ListByTemplate(templateID uint) ([]*models.TemplateShift, error) {
	var shifts []*models.TemplateShift
	result := r.db.Preload("WorkSection").
		Where("shift_template_id = ?", templateID).
		Order("day_of_week, start_time, id").
		Find(&shifts)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list template shifts")
		return nil, result.Error
	}
	return shifts, nil
}

func (r *GormTemplateShiftRepository) ListByTemplateAndDay(templateID uint, day shifttime.Weekday) ([]*models.TemplateShift, error) {
	var shifts []*models.TemplateShift
	result := r.db.
		Where("shift_template_id = ? AND day_of_week = ?", templateID, day).
		Order("start_time, id").
		Find(&shifts)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list template shifts for day")
		return nil, result.Error
	}
	return shifts, nil
}

func (r *GormTemplateShiftRepository) CountByTemplate(templateID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.TemplateShift{}).Where("shift_template_id = ?", templateID).Count(&count).Error
	return count, err
}

func (r *GormTemplateShiftRepository) Delete(id uint) error {
	r.logger.WithField("id", id).Info("Deleting template shift")

	result := r.db.Delete(&models.TemplateShift{}, id)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete template shift")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
