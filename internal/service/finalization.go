package service

import (
	"errors"
	"fmt"
	"time"

	"rosterassist/internal/models"
	"rosterassist/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FinalizationService moves dated rosters from draft to finalized and
// queues the staff notifications that go with it.
type FinalizationService struct {
	rosters  repository.DatedRosterRepository
	shifts   repository.DatedShiftRepository
	users    repository.UserRepository
	tx       repository.Transactor
	notifier Notifier
	now      func() time.Time
	logger   *logrus.Logger
}

func NewFinalizationService(
	rosters repository.DatedRosterRepository,
	shifts repository.DatedShiftRepository,
	users repository.UserRepository,
	tx repository.Transactor,
	notifier Notifier,
) *FinalizationService {
	return &FinalizationService{
		rosters:  rosters,
		shifts:   shifts,
		users:    users,
		tx:       tx,
		notifier: notifier,
		now:      time.Now,
		logger:   newLogger(),
	}
}

type staffShifts struct {
	staffID uint
	shifts  []*models.DatedShift
}

// Finalize publishes the roster. It returns false without an error when the
// roster is already finalized. Notifications are queued after the commit and
// a failure to queue one does not undo the finalization.
func (s *FinalizationService) Finalize(actor *models.User, rosterID uint) (bool, error) {
	if actor == nil {
		return false, ErrArgumentRequired
	}
	if !actor.CanManageRosters() {
		return false, ErrForbidden
	}

	log := s.logger.WithFields(logrus.Fields{
		"dated_roster_id": rosterID,
		"actor_id":        actor.ID,
	})
	log.Info("Finalizing roster")

	var (
		roster   *models.DatedRoster
		assigned []staffShifts
		changed  bool
	)

	err := s.tx.InTx(func(tx *gorm.DB) error {
		rosters := s.rosters.WithTx(tx)
		shifts := s.shifts.WithTx(tx)

		var err error
		roster, err = rosters.GetByID(rosterID)
		if err != nil {
			return err
		}
		if roster == nil || roster.UserID != actor.TenantID() {
			return ErrNotFound
		}
		if roster.IsFinalized() {
			return nil
		}

		changed, err = rosters.MarkFinalized(roster.ID, actor.ID, s.now())
		if err != nil || !changed {
			return err
		}

		staffIDs, err := shifts.AssignedStaffIDs(roster.ID)
		if err != nil {
			return err
		}
		for _, staffID := range staffIDs {
			list, err := shifts.ListByRosterAndStaff(roster.ID, staffID)
			if err != nil {
				return err
			}
			assigned = append(assigned, staffShifts{staffID: staffID, shifts: list})
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to finalize roster")
		if errors.Is(err, ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("finalize roster: %w", err)
	}

	if !changed {
		log.Warn("Roster is already finalized")
		return false, nil
	}

	for _, a := range assigned {
		s.queueShiftsAssigned(roster, a)
	}

	log.WithField("staff_notified", len(assigned)).Info("Roster finalized successfully")
	return true, nil
}

func (s *FinalizationService) queueShiftsAssigned(roster *models.DatedRoster, a staffShifts) {
	payload := ShiftsAssignedPayload{
		RosterID:   roster.ID,
		RosterName: roster.Name,
		WeekStart:  roster.WeekStartDate,
		WeekEnd:    roster.WeekEndDate,
		TotalHours: decimal.Zero,
		TotalWages: decimal.Zero,
	}
	for _, shift := range a.shifts {
		if payload.StaffName == "" && shift.User != nil {
			payload.StaffName = shift.User.Name
		}
		payload.Shifts = append(payload.Shifts, shiftLine(shift))
		payload.TotalHours = payload.TotalHours.Add(shift.PaidHours())
		payload.TotalWages = payload.TotalWages.Add(shift.WageCost())
	}
	payload.TotalHours = payload.TotalHours.Round(2)

	if _, err := s.notifier.Enqueue(models.NotificationShiftsAssigned, a.staffID, payload); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"dated_roster_id": roster.ID,
			"staff_id":        a.staffID,
		}).Error("Failed to queue shifts-assigned notification")
	}
}

// NotifyShiftChange queues a shift-changed notice for the assigned staff
// member when the shift's roster is finalized. It reports whether a notice
// was queued; failures are logged, never returned.
func (s *FinalizationService) NotifyShiftChange(shift *models.DatedShift, previous models.ShiftSnapshot) bool {
	if shift == nil || !shift.IsAssigned() {
		return false
	}

	roster, err := s.rosters.GetByID(shift.DatedRosterID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load roster for shift change notice")
		return false
	}
	if roster == nil || !roster.IsFinalized() {
		return false
	}

	staff := shift.User
	if staff == nil || staff.ID != *shift.UserID {
		if staff, err = s.users.GetByID(*shift.UserID); err != nil || staff == nil {
			s.logger.WithError(err).WithField("staff_id", *shift.UserID).Error("Failed to load staff for shift change notice")
			return false
		}
	}

	payload := ShiftChangedPayload{
		RosterID:   roster.ID,
		RosterName: roster.Name,
		ShiftID:    shift.ID,
		StaffName:  staff.Name,
		Previous:   previous,
		Current:    shift.Snapshot(),
	}
	if _, err := s.notifier.Enqueue(models.NotificationShiftChanged, staff.ID, payload); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"shift_id": shift.ID,
			"staff_id": staff.ID,
		}).Error("Failed to queue shift-changed notification")
		return false
	}

	s.logger.WithFields(logrus.Fields{
		"shift_id": shift.ID,
		"staff_id": staff.ID,
	}).Info("Shift change notice queued")
	return true
}

func shiftLine(shift *models.DatedShift) ShiftLine {
	return ShiftLine{
		Day:        shift.DayOfWeek.String(),
		Start:      shift.StartTime,
		End:        shift.EndTime,
		Section:    shift.SectionLabel(),
		PaidHours:  shift.PaidHours().Round(2),
		WageCost:   shift.WageCost(),
		HasBreak:   shift.BreakStart != nil && shift.BreakEnd != nil,
		BreakStart: shift.BreakStart,
		BreakEnd:   shift.BreakEnd,
	}
}
