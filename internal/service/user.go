package service

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"rosterassist/internal/models"
	"rosterassist/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserService struct {
	repo   repository.UserRepository
	logger *logrus.Logger
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo, logger: newLogger()}
}

func validateUser(user *models.User) models.FieldErrors {
	fields := models.FieldErrors{}
	if strings.TrimSpace(user.Name) == "" {
		fields.Add("name", "can't be blank")
	}
	if _, err := mail.ParseAddress(user.Email); err != nil {
		fields.Add("email", "is invalid")
	}
	if !user.Role.IsValid() {
		fields.Add("role", "is not included in the list")
	}
	if user.HourlyRate.Valid && user.HourlyRate.Decimal.IsNegative() {
		fields.Add("hourly_rate", "must be greater than or equal to 0")
	}
	if user.YearlySales.Valid && user.YearlySales.Decimal.IsNegative() {
		fields.Add("yearly_sales", "must be greater than or equal to 0")
	}
	if g := user.WagePercentageGoal; g != nil && (*g < 0 || *g > 100) {
		fields.Add("wage_percentage_goal", "must be between 0 and 100")
	}
	return fields
}

func (s *UserService) save(user *models.User, create bool) error {
	if err := newValidationError(validateUser(user)); err != nil {
		return err
	}

	other, err := s.repo.GetByEmail(user.Email)
	if err != nil {
		return err
	}
	if other != nil && other.ID != user.ID {
		fields := models.FieldErrors{}
		fields.Add("email", "has already been taken")
		return newValidationError(fields)
	}

	if create {
		err = s.repo.Create(user)
	} else {
		err = s.repo.Update(user)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		fields := models.FieldErrors{}
		fields.Add("email", "has already been taken")
		return newValidationError(fields)
	}
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// EnsureOwner returns the business owner with this email, creating an admin
// account when none exists yet.
func (s *UserService) EnsureOwner(name, email string) (*models.User, error) {
	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.OwnerID != nil || existing.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%s is not a business owner account", email)
		}
		return existing, nil
	}

	owner := &models.User{Name: name, Email: email, Role: models.RoleAdmin}
	if err := s.save(owner, true); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":    owner.ID,
		"email": owner.Email,
	}).Info("Business owner created")
	return owner, nil
}

// CreateStaff adds a staff member or manager to the actor's business.
func (s *UserService) CreateStaff(actor *models.User, user *models.User) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if user == nil {
		return ErrArgumentRequired
	}

	tenant := actor.TenantID()
	user.ID = 0
	user.OwnerID = &tenant
	user.PinDigest = nil
	if user.Role == "" {
		user.Role = models.RoleStaff
	}
	if user.Role == models.RoleAdmin {
		fields := models.FieldErrors{}
		fields.Add("role", "must be staff or manager")
		return newValidationError(fields)
	}
	if user.Role == models.RoleManager && !actor.IsAdmin() {
		return ErrForbidden
	}

	if err := s.save(user, true); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"id":       user.ID,
		"role":     user.Role,
		"actor_id": actor.ID,
	}).Info("Staff member created")
	return nil
}

func (s *UserService) Get(actor *models.User, userID uint) (*models.User, error) {
	if actor == nil {
		return nil, ErrArgumentRequired
	}
	user, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.TenantID() != actor.TenantID() {
		return nil, ErrNotFound
	}
	return user, nil
}

// List returns the owner and every staff member of the actor's business.
func (s *UserService) List(actor *models.User) ([]*models.User, error) {
	if actor == nil {
		return nil, ErrArgumentRequired
	}
	return s.repo.ListByTenant(actor.TenantID())
}

// Update saves profile and pay fields. Roles and ownership stay as they are.
func (s *UserService) Update(actor *models.User, user *models.User) error {
	if actor == nil || user == nil {
		return ErrArgumentRequired
	}
	existing, err := s.Get(actor, user.ID)
	if err != nil {
		return err
	}
	if actor.ID != existing.ID && !actor.CanManageRosters() {
		return ErrForbidden
	}

	user.Role = existing.Role
	user.OwnerID = existing.OwnerID
	return s.save(user, false)
}

// UpdateRole is limited to admins and never touches the owner account.
func (s *UserService) UpdateRole(actor *models.User, userID uint, role models.Role) error {
	if actor == nil {
		return ErrArgumentRequired
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	user, err := s.Get(actor, userID)
	if err != nil {
		return err
	}
	if user.OwnerID == nil || role == models.RoleAdmin || !role.IsValid() {
		fields := models.FieldErrors{}
		fields.Add("role", "must be staff or manager")
		return newValidationError(fields)
	}

	user.Role = role
	return s.save(user, false)
}

func (s *UserService) Delete(actor *models.User, userID uint) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	user, err := s.Get(actor, userID)
	if err != nil {
		return err
	}
	if user.OwnerID == nil {
		return ErrForbidden
	}
	return s.repo.Delete(userID)
}

// GetByChatID returns the user linked to a Telegram chat, or ErrNotFound.
func (s *UserService) GetByChatID(chatID int64) (*models.User, error) {
	user, err := s.repo.GetByTelegramChatID(chatID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// LinkTelegram makes chatID the notification address of user. A chat is
// linked to one user at a time.
func (s *UserService) LinkTelegram(user *models.User, chatID int64) error {
	if user == nil || chatID == 0 {
		return ErrArgumentRequired
	}

	previous, err := s.repo.GetByTelegramChatID(chatID)
	if err != nil {
		return err
	}
	if previous != nil && previous.ID != user.ID {
		previous.TelegramChatID = 0
		if err := s.repo.Update(previous); err != nil {
			return fmt.Errorf("unlink chat: %w", err)
		}
	}

	user.TelegramChatID = chatID
	if err := s.repo.Update(user); err != nil {
		return fmt.Errorf("link chat: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"chat_id": chatID,
	}).Info("Telegram chat linked")
	return nil
}

// Lookup loads a user by id without a tenant check. It is how the API
// resolves the acting user.
func (s *UserService) Lookup(userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, ErrArgumentRequired
	}
	user, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
