package repository

import (
	"errors"

	"rosterassist/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShiftTemplateRepository interface {
	Create(template *models.ShiftTemplate) error
	Update(template *models.ShiftTemplate) error
	GetByID(id uint) (*models.ShiftTemplate, error)
	GetWithShifts(id uint) (*models.ShiftTemplate, error)
	ListByOwner(ownerID uint) ([]*models.ShiftTemplate, error)
	Delete(id uint) error
}

type GormShiftTemplateRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormShiftTemplateRepository(db *gorm.DB) (*GormShiftTemplateRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.ShiftTemplate{}, &models.TemplateShift{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate shift template tables")
		return nil, err
	}

	logger.Info("Shift template repository initialized")

	return &GormShiftTemplateRepository{db: db, logger: logger}, nil
}

func (r *GormShiftTemplateRepository) Create(template *models.ShiftTemplate) error {
	r.logger.WithFields(logrus.Fields{
		"user_id": template.UserID,
		"name":    template.Name,
	}).Info("Creating shift template")

	if err := r.db.Omit(clause.Associations).Create(template).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create shift template")
		return err
	}

	r.logger.WithField("id", template.ID).Info("Shift template created successfully")
	return nil
}

func (r *GormShiftTemplateRepository) Update(template *models.ShiftTemplate) error {
	r.logger.WithField("id", template.ID).Info("Updating shift template")

	result := r.db.Omit(clause.Associations).Save(template)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update shift template")
		return result.Error
	}
	return nil
}

func (r *GormShiftTemplateRepository) GetByID(id uint) (*models.ShiftTemplate, error) {
	var template models.ShiftTemplate
	result := r.db.First(&template, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Shift template not found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get shift template")
		return nil, result.Error
	}

	return &template, nil
}

// GetWithShifts loads the template with its owner, its shifts and their sections.
func (r *GormShiftTemplateRepository) GetWithShifts(id uint) (*models.ShiftTemplate, error) {
	var template models.ShiftTemplate
	result := r.db.
		Preload("User").
		Preload("Shifts", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week, start_time, id")
		}).
		Preload("Shifts.WorkSection").
		First(&template, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get shift template with shifts")
		return nil, result.Error
	}

	return &template, nil
}

func (r *GormShiftTemplateRepository) ListByOwner(ownerID uint) ([]*models.ShiftTemplate, error) {
	var templates []*models.ShiftTemplate
	if err := r.db.Where("user_id = ?", ownerID).Order("name").Find(&templates).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list shift templates")
		return nil, err
	}
	return templates, nil
}

// Delete removes the template and its shifts. Dated rosters generated from
// it are kept and lose their template reference.
func (r *GormShiftTemplateRepository) Delete(id uint) error {
	r.logger.WithField("id", id).Info("Deleting shift template")

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shift_template_id = ?", id).Delete(&models.TemplateShift{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.DatedRoster{}).
			Where("shift_template_id = ?", id).
			Update("shift_template_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ShiftTemplate{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to delete shift template")
		return err
	}

	r.logger.WithField("id", id).Info("Shift template deleted successfully")
	return nil
}
