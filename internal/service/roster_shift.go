package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"rosterassist/internal/models"
	"rosterassist/internal/repository"
	"rosterassist/pkg/shifttime"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ShiftChangeNotifier is told about edits to shifts of published rosters.
type ShiftChangeNotifier interface {
	NotifyShiftChange(shift *models.DatedShift, previous models.ShiftSnapshot) bool
}

// BulkError lists the rejected entries of a bulk create by their index in
// the request. Nothing is saved when it is returned.
type BulkError struct {
	Total    int
	Failures map[int]error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("%d of %d shifts rejected", len(e.Failures), e.Total)
}

// Indexes returns the failed indexes in ascending order.
func (e *BulkError) Indexes() []int {
	out := make([]int, 0, len(e.Failures))
	for i := range e.Failures {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// RosterService edits dated rosters and their shifts.
type RosterService struct {
	rosters  repository.DatedRosterRepository
	shifts   repository.DatedShiftRepository
	users    repository.UserRepository
	sections repository.WorkSectionRepository
	detector *ConflictDetector
	tx       repository.Transactor
	notifier ShiftChangeNotifier
	locks    sync.Map
	logger   *logrus.Logger
}

func NewRosterService(
	rosters repository.DatedRosterRepository,
	shifts repository.DatedShiftRepository,
	users repository.UserRepository,
	sections repository.WorkSectionRepository,
	detector *ConflictDetector,
	tx repository.Transactor,
	notifier ShiftChangeNotifier,
) *RosterService {
	return &RosterService{
		rosters:  rosters,
		shifts:   shifts,
		users:    users,
		sections: sections,
		detector: detector,
		tx:       tx,
		notifier: notifier,
		logger:   newLogger(),
	}
}

// lockRoster serializes check-then-write sequences on one roster within
// this process.
func (s *RosterService) lockRoster(rosterID uint) func() {
	m, _ := s.locks.LoadOrStore(rosterID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *RosterService) ownedRoster(actor *models.User, rosterID uint) (*models.DatedRoster, error) {
	roster, err := s.rosters.GetByID(rosterID)
	if err != nil {
		return nil, err
	}
	if roster == nil || roster.UserID != actor.TenantID() {
		return nil, ErrNotFound
	}
	return roster, nil
}

func (s *RosterService) ownedShift(actor *models.User, shiftID uint) (*models.DatedShift, error) {
	shift, err := s.shifts.GetByID(shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrNotFound
	}
	if _, err := s.ownedRoster(actor, shift.DatedRosterID); err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *RosterService) List(actor *models.User) ([]*models.DatedRoster, error) {
	if actor == nil {
		return nil, ErrArgumentRequired
	}
	return s.rosters.ListByOwner(actor.TenantID())
}

// Get returns the roster with its shifts, staff and sections loaded.
func (s *RosterService) Get(actor *models.User, rosterID uint) (*models.DatedRoster, error) {
	if actor == nil {
		return nil, ErrArgumentRequired
	}
	roster, err := s.rosters.GetWithShifts(rosterID)
	if err != nil {
		return nil, err
	}
	if roster == nil || roster.UserID != actor.TenantID() {
		return nil, ErrNotFound
	}
	return roster, nil
}

// Delete removes the roster together with its shifts.
func (s *RosterService) Delete(actor *models.User, rosterID uint) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if _, err := s.ownedRoster(actor, rosterID); err != nil {
		return err
	}
	return s.rosters.Delete(rosterID)
}

// AvailableStaff lists the staff and managers a shift can be assigned to.
func (s *RosterService) AvailableStaff(actor *models.User) ([]*models.User, error) {
	if actor == nil {
		return nil, ErrArgumentRequired
	}
	return s.users.ListStaff(actor.TenantID())
}

// CheckConflicts reports the shifts staffID already has in the roster that
// would overlap [start, end) on day. It saves nothing.
func (s *RosterService) CheckConflicts(actor *models.User, rosterID uint, staffID *uint, day shifttime.Weekday, start, end time.Time, excludeID uint) ([]Conflict, error) {
	if actor == nil || start.IsZero() || end.IsZero() {
		return nil, ErrArgumentRequired
	}
	if _, err := s.ownedRoster(actor, rosterID); err != nil {
		return nil, err
	}
	return s.detector.FindOverlaps(DatedRosterScope(rosterID), day, staffID, start, end, excludeID)
}

// validateRecord runs the record rules and the tenant checks on staff and section.
func (s *RosterService) validateRecord(actor *models.User, shift *models.DatedShift) error {
	fields := shift.Validate()

	if shift.IsAssigned() {
		staff, err := s.users.GetByID(*shift.UserID)
		if err != nil {
			return err
		}
		if staff == nil || staff.TenantID() != actor.TenantID() {
			fields.Add("user_id", "does not exist")
		} else {
			shift.User = staff
		}
	}
	if shift.WorkSectionID != nil {
		section, err := s.sections.GetByID(*shift.WorkSectionID)
		if err != nil {
			return err
		}
		if section == nil || section.UserID != actor.TenantID() {
			fields.Add("work_section_id", "does not exist")
		}
	}
	return newValidationError(fields)
}

func (s *RosterService) checkConflicts(detector *ConflictDetector, shift *models.DatedShift) error {
	conflicts, err := detector.FindOverlaps(DatedRosterScope(shift.DatedRosterID), shift.DayOfWeek, shift.UserID, shift.StartTime, shift.EndTime, shift.ID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

func (s *RosterService) CreateShift(actor *models.User, rosterID uint, shift *models.DatedShift) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if shift == nil {
		return ErrArgumentRequired
	}
	if _, err := s.ownedRoster(actor, rosterID); err != nil {
		return err
	}

	shift.ID = 0
	shift.DatedRosterID = rosterID

	unlock := s.lockRoster(rosterID)
	defer unlock()

	if err := s.validateRecord(actor, shift); err != nil {
		return err
	}
	if err := s.checkConflicts(s.detector, shift); err != nil {
		return err
	}
	if err := s.shifts.Create(shift); err != nil {
		return fmt.Errorf("create shift: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"dated_roster_id": rosterID,
		"shift_id":        shift.ID,
		"actor_id":        actor.ID,
	}).Info("Dated shift created")
	return nil
}

// UpdateShift saves the edited shift. When its roster is already published
// the assigned staff member is notified of the change.
func (s *RosterService) UpdateShift(actor *models.User, shift *models.DatedShift) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if shift == nil {
		return ErrArgumentRequired
	}

	existing, err := s.ownedShift(actor, shift.ID)
	if err != nil {
		return err
	}
	previous := existing.Snapshot()

	shift.DatedRosterID = existing.DatedRosterID
	shift.CreatedAt = existing.CreatedAt
	shift.User = nil

	unlock := s.lockRoster(existing.DatedRosterID)
	defer unlock()

	if err := s.validateRecord(actor, shift); err != nil {
		return err
	}
	if err := s.checkConflicts(s.detector, shift); err != nil {
		return err
	}
	if err := s.shifts.Update(shift); err != nil {
		return fmt.Errorf("update shift: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"dated_roster_id": shift.DatedRosterID,
		"shift_id":        shift.ID,
		"actor_id":        actor.ID,
	}).Info("Dated shift updated")

	if s.notifier != nil {
		s.notifier.NotifyShiftChange(shift, previous)
	}
	return nil
}

func (s *RosterService) DeleteShift(actor *models.User, shiftID uint) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if _, err := s.ownedShift(actor, shiftID); err != nil {
		return err
	}
	return s.shifts.Delete(shiftID)
}

// BulkCreate saves every shift or none. Each candidate is checked on its own,
// against the saved shifts and against the earlier candidates of the batch.
// A *BulkError maps each rejected index to its error.
func (s *RosterService) BulkCreate(actor *models.User, rosterID uint, shifts []*models.DatedShift) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if len(shifts) == 0 {
		return ErrArgumentRequired
	}
	if _, err := s.ownedRoster(actor, rosterID); err != nil {
		return err
	}

	unlock := s.lockRoster(rosterID)
	defer unlock()

	log := s.logger.WithFields(logrus.Fields{
		"dated_roster_id": rosterID,
		"count":           len(shifts),
	})

	failures := map[int]error{}
	invalid := map[int]bool{}
	for i, shift := range shifts {
		if shift == nil {
			failures[i] = ErrArgumentRequired
			invalid[i] = true
			continue
		}
		shift.ID = 0
		shift.DatedRosterID = rosterID
		if err := s.validateRecord(actor, shift); err != nil {
			failures[i] = err
			invalid[i] = true
		}
	}

	var bulkErr *BulkError
	err := s.tx.InTx(func(tx *gorm.DB) error {
		detector := s.detector.withTx(tx)
		repo := s.shifts.WithTx(tx)

		for i, shift := range shifts {
			if _, failed := failures[i]; failed {
				continue
			}
			if err := s.checkConflicts(detector, shift); err != nil {
				failures[i] = err
			}
		}

		for later, earlier := range overlapsWithin(shifts) {
			if _, failed := failures[later]; failed {
				continue
			}
			var conflicts []Conflict
			for _, i := range earlier {
				if !invalid[i] {
					conflicts = append(conflicts, conflictFromShift(shifts[i]))
				}
			}
			if len(conflicts) > 0 {
				failures[later] = &ConflictError{Conflicts: conflicts}
			}
		}

		if len(failures) > 0 {
			bulkErr = &BulkError{Total: len(shifts), Failures: failures}
			return bulkErr
		}

		for _, shift := range shifts {
			if err := repo.Create(shift); err != nil {
				return err
			}
		}
		return nil
	})

	if bulkErr != nil {
		log.WithField("rejected", len(bulkErr.Failures)).Warn("Bulk shift create rejected")
		return bulkErr
	}
	if err != nil {
		log.WithError(err).Error("Bulk shift create failed")
		return fmt.Errorf("bulk create shifts: %w", err)
	}

	log.Info("Bulk shifts created")
	return nil
}
