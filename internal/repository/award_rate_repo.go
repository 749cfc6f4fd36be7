package repository

import (
	"errors"

	"rosterassist/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AwardRateRepository interface {
	Save(rate *models.AwardRate) error
	GetByID(id uint) (*models.AwardRate, error)
	FindForUser(userID uint, awardCode, classification string) (*models.AwardRate, error)
	ListByUser(userID uint) ([]*models.AwardRate, error)
	ListUserBound() ([]*models.AwardRate, error)
	SetUser(id uint, userID *uint) error
}

type GormAwardRateRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAwardRateRepository(db *gorm.DB) (*GormAwardRateRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.AwardRate{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate award_rates table")
		return nil, err
	}

	return &GormAwardRateRepository{db: db, logger: logger}, nil
}

// Save inserts a new rate or updates an existing one.
func (r *GormAwardRateRepository) Save(rate *models.AwardRate) error {
	r.logger.WithFields(logrus.Fields{
		"id":             rate.ID,
		"award_code":     rate.AwardCode,
		"classification": rate.Classification,
		"rate":           rate.Rate.String(),
	}).Info("Saving award rate")

	if !rate.IsValid() {
		return errors.New("invalid award rate data")
	}

	if err := r.db.Omit(clause.Associations).Save(rate).Error; err != nil {
		r.logger.WithError(err).Error("Failed to save award rate")
		return err
	}
	return nil
}

func (r *GormAwardRateRepository) GetByID(id uint) (*models.AwardRate, error) {
	var rate models.AwardRate
	result := r.db.First(&rate, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get award rate")
		return nil, result.Error
	}
	return &rate, nil
}

func (r *GormAwardRateRepository) FindForUser(userID uint, awardCode, classification string) (*models.AwardRate, error) {
	var rate models.AwardRate
	result := r.db.
		Where("user_id = ? AND award_code = ? AND classification = ?", userID, awardCode, classification).
		First(&rate)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to find award rate")
		return nil, result.Error
	}
	return &rate, nil
}

func (r *GormAwardRateRepository) ListByUser(userID uint) ([]*models.AwardRate, error) {
	var rates []*models.AwardRate
	if err := r.db.Where("user_id = ?", userID).Order("award_code, classification").Find(&rates).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list award rates")
		return nil, err
	}
	return rates, nil
}

// ListUserBound returns every rate attached to a user, for the batch refresh.
func (r *GormAwardRateRepository) ListUserBound() ([]*models.AwardRate, error) {
	var rates []*models.AwardRate
	if err := r.db.Where("user_id IS NOT NULL").Order("id").Find(&rates).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list user-bound award rates")
		return nil, err
	}
	return rates, nil
}

func (r *GormAwardRateRepository) SetUser(id uint, userID *uint) error {
	r.logger.WithFields(logrus.Fields{
		"id":      id,
		"user_id": userID,
	}).Info("Assigning award rate")

	result := r.db.Model(&models.AwardRate{}).Where("id = ?", id).Update("user_id", userID)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to assign award rate")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
