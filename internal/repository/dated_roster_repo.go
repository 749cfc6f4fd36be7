package repository

import (
	"errors"
	"time"

	"rosterassist/internal/models"
	"rosterassist/pkg/shifttime"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DatedRosterRepository interface {
	WithTx(tx *gorm.DB) DatedRosterRepository
	Create(roster *models.DatedRoster) error
	GetByID(id uint) (*models.DatedRoster, error)
	GetWithShifts(id uint) (*models.DatedRoster, error)
	GetByTemplateAndWeek(templateID uint, weekStart time.Time) (*models.DatedRoster, error)
	ListByOwner(ownerID uint) ([]*models.DatedRoster, error)
	ListByOwnerAndWeek(ownerID uint, weekStart time.Time) ([]*models.DatedRoster, error)
	MarkFinalized(id uint, actorID uint, at time.Time) (bool, error)
	Delete(id uint) error
}

type GormDatedRosterRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormDatedRosterRepository(db *gorm.DB) (*GormDatedRosterRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.DatedRoster{}, &models.DatedShift{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate dated roster tables")
		return nil, err
	}

	logger.Info("Dated roster repository initialized")

	return &GormDatedRosterRepository{db: db, logger: logger}, nil
}

func (r *GormDatedRosterRepository) WithTx(tx *gorm.DB) DatedRosterRepository {
	return &GormDatedRosterRepository{db: tx, logger: r.logger}
}

func (r *GormDatedRosterRepository) Create(roster *models.DatedRoster) error {
	r.logger.WithFields(logrus.Fields{
		"user_id":           roster.UserID,
		"shift_template_id": roster.ShiftTemplateID,
		"week_start_date":   roster.WeekStartDate.Format("2006-01-02"),
	}).Info("Creating dated roster")

	if !roster.IsValid() {
		r.logger.WithField("name", roster.Name).Warn("Invalid dated roster data")
		return errors.New("invalid dated roster data")
	}

	if err := r.db.Omit(clause.Associations).Create(roster).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create dated roster")
		return err
	}

	r.logger.WithField("id", roster.ID).Info("Dated roster created successfully")
	return nil
}

func (r *GormDatedRosterRepository) GetByID(id uint) (*models.DatedRoster, error) {
	var roster models.DatedRoster
	result := r.db.First(&roster, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Dated roster not found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get dated roster")
		return nil, result.Error
	}
	return &roster, nil
}

// GetWithShifts loads the roster with its shifts, their staff and sections.
func (r *GormDatedRosterRepository) GetWithShifts(id uint) (*models.DatedRoster, error) {
	var roster models.DatedRoster
	result := r.db.
		Preload("Shifts", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time, id")
		}).
		Preload("Shifts.User").
		Preload("Shifts.WorkSection").
		First(&roster, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get dated roster with shifts")
		return nil, result.Error
	}
	return &roster, nil
}

func (r *GormDatedRosterRepository) GetByTemplateAndWeek(templateID uint, weekStart time.Time) (*models.DatedRoster, error) {
	var roster models.DatedRoster
	result := r.db.
		Where("shift_template_id = ? AND week_start_date = ?", templateID, shifttime.DateOnly(weekStart)).
		First(&roster)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get dated roster by template and week")
		return nil, result.Error
	}
	return &roster, nil
}

func (r *GormDatedRosterRepository) ListByOwner(ownerID uint) ([]*models.DatedRoster, error) {
	var rosters []*models.DatedRoster
	result := r.db.Where("user_id = ?", ownerID).Order("week_start_date DESC, id").Find(&rosters)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list dated rosters")
		return nil, result.Error
	}
	return rosters, nil
}

// ListByOwnerAndWeek returns the owner's rosters for one week with their shifts.
func (r *GormDatedRosterRepository) ListByOwnerAndWeek(ownerID uint, weekStart time.Time) ([]*models.DatedRoster, error) {
	var rosters []*models.DatedRoster
	result := r.db.
		Preload("Shifts").
		Preload("Shifts.User").
		Where("user_id = ? AND week_start_date = ?", ownerID, shifttime.DateOnly(weekStart)).
		Order("id").
		Find(&rosters)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list dated rosters for week")
		return nil, result.Error
	}
	return rosters, nil
}

// MarkFinalized flips a draft roster to finalized. It reports false when the
// roster was already finalized, leaving finalized_at and finalized_by as they were.
func (r *GormDatedRosterRepository) MarkFinalized(id uint, actorID uint, at time.Time) (bool, error) {
	r.logger.WithFields(logrus.Fields{
		"id":       id,
		"actor_id": actorID,
	}).Info("Finalizing dated roster")

	result := r.db.Model(&models.DatedRoster{}).
		Where("id = ? AND status = ?", id, models.RosterDraft).
		Updates(map[string]interface{}{
			"status":          models.RosterFinalized,
			"finalized_at":    at.UTC(),
			"finalized_by_id": actorID,
		})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to finalize dated roster")
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// Delete removes the roster and its shifts.
func (r *GormDatedRosterRepository) Delete(id uint) error {
	r.logger.WithField("id", id).Info("Deleting dated roster")

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dated_roster_id = ?", id).Delete(&models.DatedShift{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.DatedRoster{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to delete dated roster")
		return err
	}

	r.logger.WithField("id", id).Info("Dated roster deleted successfully")
	return nil
}
