package repository

import (
	"errors"
	"time"

	"rosterassist/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SalesForecastRepository interface {
	Create(forecast *models.SalesForecast) error
	Update(forecast *models.SalesForecast) error
	GetByID(id uint) (*models.SalesForecast, error)
	ListByOwner(ownerID uint) ([]*models.SalesForecast, error)
	ListStartingBetween(ownerID uint, from, to time.Time) ([]*models.SalesForecast, error)
	Delete(id uint) error
}

type GormSalesForecastRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormSalesForecastRepository(db *gorm.DB) (*GormSalesForecastRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.SalesForecast{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate sales_forecasts table")
		return nil, err
	}

	return &GormSalesForecastRepository{db: db, logger: logger}, nil
}

func (r *GormSalesForecastRepository) Create(forecast *models.SalesForecast) error {
	r.logger.WithFields(logrus.Fields{
		"user_id":    forecast.UserID,
		"start_date": forecast.StartDate.Format("2006-01-02"),
		"end_date":   forecast.EndDate.Format("2006-01-02"),
	}).Info("Creating sales forecast")

	if err := r.db.Create(forecast).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create sales forecast")
		return err
	}
	return nil
}

func (r *GormSalesForecastRepository) Update(forecast *models.SalesForecast) error {
	r.logger.WithField("id", forecast.ID).Info("Updating sales forecast")

	if err := r.db.Save(forecast).Error; err != nil {
		r.logger.WithError(err).Error("Failed to update sales forecast")
		return err
	}
	return nil
}

func (r *GormSalesForecastRepository) GetByID(id uint) (*models.SalesForecast, error) {
	var forecast models.SalesForecast
	result := r.db.First(&forecast, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get sales forecast")
		return nil, result.Error
	}
	return &forecast, nil
}

func (r *GormSalesForecastRepository) ListByOwner(ownerID uint) ([]*models.SalesForecast, error) {
	var forecasts []*models.SalesForecast
	if err := r.db.Where("user_id = ?", ownerID).Order("start_date DESC").Find(&forecasts).Error; err != nil {
		r.logger.WithError(err).Error("Failed to list sales forecasts")
		return nil, err
	}
	return forecasts, nil
}

// ListStartingBetween returns forecasts whose start date lies in [from, to].
func (r *GormSalesForecastRepository) ListStartingBetween(ownerID uint, from, to time.Time) ([]*models.SalesForecast, error) {
	var forecasts []*models.SalesForecast
	result := r.db.
		Where("user_id = ? AND start_date >= ? AND start_date <= ?", ownerID, from, to).
		Order("start_date").
		Find(&forecasts)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list sales forecasts for range")
		return nil, result.Error
	}
	return forecasts, nil
}

func (r *GormSalesForecastRepository) Delete(id uint) error {
	r.logger.WithField("id", id).Info("Deleting sales forecast")

	result := r.db.Delete(&models.SalesForecast{}, id)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete sales forecast")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
