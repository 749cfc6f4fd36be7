package service

import (
	"fmt"

	"rosterassist/internal/models"
	"rosterassist/internal/repository"
	"rosterassist/pkg/shifttime"

	"github.com/sirupsen/logrus"
)

type SalesForecastService struct {
	forecasts repository.SalesForecastRepository
	logger    *logrus.Logger
}

func NewSalesForecastService(forecasts repository.SalesForecastRepository) *SalesForecastService {
	return &SalesForecastService{forecasts: forecasts, logger: newLogger()}
}

func (s *SalesForecastService) List(actor *models.User) ([]*models.SalesForecast, error) {
	if actor == nil {
		return nil, ErrArgumentRequired
	}
	return s.forecasts.ListByOwner(actor.TenantID())
}

func (s *SalesForecastService) Create(actor *models.User, forecast *models.SalesForecast) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if forecast == nil {
		return ErrArgumentRequired
	}

	forecast.ID = 0
	forecast.UserID = actor.TenantID()
	forecast.StartDate = shifttime.DateOnly(forecast.StartDate)
	forecast.EndDate = shifttime.DateOnly(forecast.EndDate)
	if err := newValidationError(forecast.Validate()); err != nil {
		return err
	}

	if err := s.forecasts.Create(forecast); err != nil {
		return fmt.Errorf("create sales forecast: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"sales_forecast_id": forecast.ID,
		"owner_id":          forecast.UserID,
		"projected_sales":   forecast.ProjectedSales.StringFixed(2),
	}).Info("Sales forecast created")
	return nil
}

// Update replaces the editable fields, typically to record actual sales.
func (s *SalesForecastService) Update(actor *models.User, forecast *models.SalesForecast) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if forecast == nil {
		return ErrArgumentRequired
	}

	existing, err := s.forecasts.GetByID(forecast.ID)
	if err != nil {
		return err
	}
	if existing == nil || existing.UserID != actor.TenantID() {
		return ErrNotFound
	}

	forecast.UserID = existing.UserID
	forecast.CreatedAt = existing.CreatedAt
	forecast.StartDate = shifttime.DateOnly(forecast.StartDate)
	forecast.EndDate = shifttime.DateOnly(forecast.EndDate)
	if err := newValidationError(forecast.Validate()); err != nil {
		return err
	}

	if err := s.forecasts.Update(forecast); err != nil {
		return fmt.Errorf("update sales forecast: %w", err)
	}
	return nil
}

func (s *SalesForecastService) Delete(actor *models.User, forecastID uint) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	existing, err := s.forecasts.GetByID(forecastID)
	if err != nil {
		return err
	}
	if existing == nil || existing.UserID != actor.TenantID() {
		return ErrNotFound
	}
	return s.forecasts.Delete(forecastID)
}
