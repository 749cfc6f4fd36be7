package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rosterassist/internal/models"
	"rosterassist/internal/repository"
	"rosterassist/pkg/fairwork"
	"rosterassist/pkg/shifttime"

	"github.com/sirupsen/logrus"
)

var ErrNoRateSource = errors.New("award rate lookup is not configured")

// RateFetcher looks up the current rate of an award.
type RateFetcher interface {
	FetchAwardRate(ctx context.Context, awardCode string) (*fairwork.Rate, error)
}

type AwardService struct {
	rates   repository.AwardRateRepository
	users   repository.UserRepository
	fetcher RateFetcher
	now     func() time.Time
	logger  *logrus.Logger
}

func NewAwardService(rates repository.AwardRateRepository, users repository.UserRepository, fetcher RateFetcher) *AwardService {
	return &AwardService{
		rates:   rates,
		users:   users,
		fetcher: fetcher,
		now:     time.Now,
		logger:  newLogger(),
	}
}

func (s *AwardService) staffOf(actor *models.User, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.TenantID() != actor.TenantID() {
		return nil, ErrNotFound
	}
	return user, nil
}

// Create stores an award rate entered by hand. A nil UserID leaves it unbound.
func (s *AwardService) Create(actor *models.User, rate *models.AwardRate) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if rate == nil {
		return ErrArgumentRequired
	}

	rate.ID = 0
	rate.AwardCode = strings.TrimSpace(rate.AwardCode)
	fields := models.FieldErrors{}
	if len(rate.AwardCode) < 2 {
		fields.Add("award_code", "is too short (minimum is 2 characters)")
	}
	if rate.Classification == "" {
		fields.Add("classification", "can't be blank")
	}
	if !rate.Rate.IsPositive() {
		fields.Add("rate", "must be greater than 0")
	}
	if rate.EffectiveDate == nil {
		fields.Add("effective_date", "can't be blank")
	}
	if err := newValidationError(fields); err != nil {
		return err
	}

	if rate.UserID != nil {
		if _, err := s.staffOf(actor, *rate.UserID); err != nil {
			return err
		}
	}

	if err := s.rates.Save(rate); err != nil {
		return fmt.Errorf("save award rate: %w", err)
	}
	return nil
}

func (s *AwardService) ListForUser(actor *models.User, userID uint) ([]*models.AwardRate, error) {
	if actor == nil {
		return nil, ErrArgumentRequired
	}
	if _, err := s.staffOf(actor, userID); err != nil {
		return nil, err
	}
	return s.rates.ListByUser(userID)
}

// Assign binds an award rate to a staff member of the actor's business.
func (s *AwardService) Assign(actor *models.User, rateID, userID uint) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if _, err := s.staffOf(actor, userID); err != nil {
		return err
	}
	rate, err := s.rates.GetByID(rateID)
	if err != nil {
		return err
	}
	if rate == nil {
		return ErrNotFound
	}
	if rate.UserID != nil {
		if _, err := s.staffOf(actor, *rate.UserID); err != nil {
			return err
		}
	}
	return s.rates.SetUser(rateID, &userID)
}

func (s *AwardService) Unassign(actor *models.User, rateID uint) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	rate, err := s.rates.GetByID(rateID)
	if err != nil {
		return err
	}
	if rate == nil || rate.UserID == nil {
		return ErrNotFound
	}
	if _, err := s.staffOf(actor, *rate.UserID); err != nil {
		return err
	}
	return s.rates.SetUser(rateID, nil)
}

// RefreshStaff is RefreshForUser on behalf of a manager of the staff member's business.
func (s *AwardService) RefreshStaff(ctx context.Context, actor *models.User, userID uint, awardCode, classification string) (*models.AwardRate, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if _, err := s.staffOf(actor, userID); err != nil {
		return nil, err
	}
	return s.RefreshForUser(ctx, userID, strings.TrimSpace(awardCode), classification)
}

// RefreshForUser fetches the award's current rate and upserts the user's
// (award code, classification) record with it, effective today.
func (s *AwardService) RefreshForUser(ctx context.Context, userID uint, awardCode, classification string) (*models.AwardRate, error) {
	log := s.logger.WithFields(logrus.Fields{
		"user_id":        userID,
		"award_code":     awardCode,
		"classification": classification,
	})

	if s.fetcher == nil {
		return nil, ErrNoRateSource
	}

	fetched, err := s.fetcher.FetchAwardRate(ctx, awardCode)
	if err != nil {
		log.WithError(err).Error("Failed to fetch award rate")
		return nil, err
	}

	rate, err := s.rates.FindForUser(userID, awardCode, classification)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		uid := userID
		rate = &models.AwardRate{UserID: &uid, AwardCode: awardCode, Classification: classification}
	}

	today := shifttime.DateOnly(s.now())
	rate.Rate = fetched.Rate
	rate.EffectiveDate = &today
	if err := s.rates.Save(rate); err != nil {
		log.WithError(err).Error("Failed to save refreshed award rate")
		return nil, err
	}

	log.WithField("rate", rate.Rate.String()).Info("Award rate refreshed")
	return rate, nil
}

// RefreshAll refreshes every user-bound award rate. A failure on one rate is
// logged and the batch carries on.
func (s *AwardService) RefreshAll(ctx context.Context) (refreshed, failed int, err error) {
	rates, err := s.rates.ListUserBound()
	if err != nil {
		return 0, 0, err
	}

	for _, r := range rates {
		if ctx.Err() != nil {
			return refreshed, failed, ctx.Err()
		}
		if _, err := s.RefreshForUser(ctx, *r.UserID, r.AwardCode, r.Classification); err != nil {
			failed++
			continue
		}
		refreshed++
	}

	s.logger.WithFields(logrus.Fields{
		"refreshed": refreshed,
		"failed":    failed,
	}).Info("Award rate refresh finished")
	return refreshed, failed, nil
}
