package repository

import (
	"errors"

	"rosterassist/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type WorkSectionRepository interface {
	Create(section *models.WorkSection) error
	Update(section *models.WorkSection) error
	GetByID(id uint) (*models.WorkSection, error)
	GetByOwnerAndName(ownerID uint, name string) (*models.WorkSection, error)
	ListByOwner(ownerID uint) ([]*models.WorkSection, error)
	Delete(id uint) error
}

type GormWorkSectionRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormWorkSectionRepository(db *gorm.DB) (*GormWorkSectionRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.WorkSection{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate work_sections table")
		return nil, err
	}

	return &GormWorkSectionRepository{db: db, logger: logger}, nil
}

func (r *GormWorkSectionRepository) Create(section *models.WorkSection) error {
	r.logger.WithFields(logrus.Fields{
		"user_id": section.UserID,
		"name":    section.Name,
	}).Info("Creating work section")

	if !section.IsValid() {
		return errors.New("invalid work section data")
	}

	if err := r.db.Create(section).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create work section")
		return err
	}
	return nil
}

func (r *GormWorkSectionRepository) Update(section *models.WorkSection) error {
	r.logger.WithField("id", section.ID).Info("Updating work section")

	if !section.IsValid() {
		return errors.New("invalid work section data")
	}

	if err := r.db.Save(section).Error; err != nil {
		r.logger.WithError(err).Error("Failed to update work section")
		return err
	}
	return nil
}

func (r *GormWorkSectionRepository) GetByID(id uint) (*models.WorkSection, error) {
	var section models.WorkSection
	result := r.db.First(&section, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get work section")
		return nil, result.Error
	}
	return &section, nil
}

func (r *GormWorkSectionRepository) GetByOwnerAndName(ownerID uint, name string) (*models.WorkSection, error) {
	var section models.WorkSection
	result := r.db.Where("user_id = ? AND name = ?", ownerID, name).First(&section)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get work section by name")
		return nil, result.Error
	}
	return &section, nil
}

func (r *GormWorkSectionRepository) ListByOwner(ownerID uint) ([]*models.WorkSection, error) {
	var sections []*models.WorkSection
	if err := r.db.Where("user_id = ?", ownerID).Order("name").Find(&sections).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list work sections")
		return nil, err
	}
	return sections, nil
}

// Delete removes the section; shifts tagged with it keep existing untagged.
func (r *GormWorkSectionRepository) Delete(id uint) error {
	r.logger.WithField("id", id).Info("Deleting work section")

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.TemplateShift{}, &models.DatedShift{}} {
			if err := tx.Model(model).Where("work_section_id = ?", id).Update("work_section_id", nil).Error; err != nil {
				return err
			}
		}
		result := tx.Delete(&models.WorkSection{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to delete work section")
		return err
	}

	r.logger.WithField("id", id).Info("Work section deleted successfully")
	return nil
}
