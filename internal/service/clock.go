package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"rosterassist/internal/models"
	"rosterassist/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"
	"gorm.io/gorm"
)

const (
	minPinLength = 4
	maxPinLength = 6
)

// PinHasher turns clock-in PINs into keyed digests so the PIN itself is never
// stored and a user can be looked up by digest.
type PinHasher struct {
	key []byte
}

// NewPinHasher derives the digest key from the application secret.
func NewPinHasher(secret string) (*PinHasher, error) {
	if secret == "" {
		return nil, ErrArgumentRequired
	}
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("rosterassist pin"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive pin key: %w", err)
	}
	return &PinHasher{key: key}, nil
}

func (h *PinHasher) Digest(pin string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(pin))
	return hex.EncodeToString(mac.Sum(nil))
}

func (h *PinHasher) Matches(pin, digest string) bool {
	return hmac.Equal([]byte(h.Digest(pin)), []byte(digest))
}

func validPin(pin string) bool {
	if len(pin) < minPinLength || len(pin) > maxPinLength {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ClockService records staff time against a PIN.
type ClockService struct {
	users    repository.UserRepository
	entries  repository.TimeEntryRepository
	hasher   *PinHasher
	maxShift time.Duration
	now      func() time.Time
	locks    sync.Map
	logger   *logrus.Logger
}

func NewClockService(
	users repository.UserRepository,
	entries repository.TimeEntryRepository,
	hasher *PinHasher,
	maxShiftHours float64,
) *ClockService {
	if maxShiftHours <= 0 {
		maxShiftHours = 10
	}
	return &ClockService{
		users:    users,
		entries:  entries,
		hasher:   hasher,
		maxShift: time.Duration(maxShiftHours * float64(time.Hour)),
		now:      time.Now,
		logger:   newLogger(),
	}
}

func (s *ClockService) lockFor(userID uint) *sync.Mutex {
	m, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// SetPin stores a new PIN for a user of the actor's business. Staff may only
// set their own.
func (s *ClockService) SetPin(actor *models.User, userID uint, pin string) error {
	if actor == nil {
		return ErrArgumentRequired
	}
	if actor.ID != userID && !actor.CanManageRosters() {
		return ErrForbidden
	}

	fields := models.FieldErrors{}
	if !validPin(pin) {
		fields.Add("pin", "must be 4 to 6 digits")
		return newValidationError(fields)
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil || user.TenantID() != actor.TenantID() {
		return ErrNotFound
	}

	digest := s.hasher.Digest(pin)
	holder, err := s.users.GetByPinDigest(digest)
	if err != nil {
		return err
	}
	if holder != nil && holder.ID != user.ID {
		fields.Add("pin", "is already in use")
		return newValidationError(fields)
	}

	if err := s.users.SetPinDigest(user.ID, digest); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			fields.Add("pin", "is already in use")
			return newValidationError(fields)
		}
		return fmt.Errorf("set pin: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"actor_id": actor.ID,
	}).Info("PIN updated")
	return nil
}

// Authenticate resolves a PIN to its user.
func (s *ClockService) Authenticate(pin string) (*models.User, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return nil, ErrArgumentRequired
	}

	user, err := s.users.GetByPinDigest(s.hasher.Digest(pin))
	if err != nil {
		return nil, fmt.Errorf("look up pin: %w", err)
	}
	if user == nil || !user.HasPin() || !s.hasher.Matches(pin, *user.PinDigest) {
		s.logger.Warn("Unknown PIN presented")
		return nil, ErrInvalidPin
	}
	return user, nil
}

func (s *ClockService) ClockIn(pin string) (*models.TimeEntry, error) {
	user, err := s.Authenticate(pin)
	if err != nil {
		return nil, err
	}
	return s.ClockInUser(user)
}

func (s *ClockService) ClockOut(pin string) (*models.TimeEntry, error) {
	user, err := s.Authenticate(pin)
	if err != nil {
		return nil, err
	}
	return s.ClockOutUser(user)
}

// Toggle clocks the user out when they have an open entry and in otherwise.
// clockedIn reports the state after the call.
func (s *ClockService) Toggle(pin string) (entry *models.TimeEntry, clockedIn bool, err error) {
	user, err := s.Authenticate(pin)
	if err != nil {
		return nil, false, err
	}

	ongoing, err := s.entries.UserHasOngoingEntry(user.ID)
	if err != nil {
		return nil, false, err
	}
	if ongoing {
		entry, err = s.ClockOutUser(user)
		return entry, false, err
	}
	entry, err = s.ClockInUser(user)
	return entry, err == nil, err
}

// ClockInUser starts a time entry for an already identified user.
func (s *ClockService) ClockInUser(user *models.User) (*models.TimeEntry, error) {
	mu := s.lockFor(user.ID)
	mu.Lock()
	defer mu.Unlock()

	log := s.logger.WithField("user_id", user.ID)

	ongoing, err := s.entries.UserHasOngoingEntry(user.ID)
	if err != nil {
		return nil, err
	}
	if ongoing {
		log.Warn("Clock-in rejected, user already on the clock")
		return nil, ErrAlreadyClockedIn
	}

	entry := &models.TimeEntry{UserID: user.ID, ClockIn: s.now()}
	if err := s.entries.Create(entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyClockedIn
		}
		log.WithError(err).Error("Failed to clock in")
		return nil, fmt.Errorf("clock in: %w", err)
	}
	entry.User = *user

	log.WithField("clock_in", entry.ClockIn.Format(time.RFC3339)).Info("User clocked in")
	return entry, nil
}

// ClockOutUser closes the user's open time entry.
func (s *ClockService) ClockOutUser(user *models.User) (*models.TimeEntry, error) {
	mu := s.lockFor(user.ID)
	mu.Lock()
	defer mu.Unlock()

	log := s.logger.WithField("user_id", user.ID)

	entry, err := s.entries.GetOngoingByUserID(user.ID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		log.Warn("Clock-out rejected, user not on the clock")
		return nil, ErrNotClockedIn
	}

	now := s.now()
	if elapsed := entry.Elapsed(now); elapsed > s.maxShift {
		log.WithField("elapsed_hours", elapsed.Hours()).Warn("Clock-out rejected, shift too long")
		return nil, &ShiftTooLongError{Elapsed: elapsed, Max: s.maxShift}
	}

	done, err := s.entries.CompleteEntry(user.ID, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotClockedIn
		}
		log.WithError(err).Error("Failed to clock out")
		return nil, fmt.Errorf("clock out: %w", err)
	}
	done.User = *user

	log.WithField("worked_minutes", done.WorkedMinutes).Info("User clocked out")
	return done, nil
}

// Ongoing returns the user's open time entry, or nil.
func (s *ClockService) Ongoing(user *models.User) (*models.TimeEntry, error) {
	if user == nil {
		return nil, ErrArgumentRequired
	}
	return s.entries.GetOngoingByUserID(user.ID)
}
