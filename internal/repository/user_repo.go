package repository

import (
	"errors"

	"rosterassist/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *models.User) error
	Update(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByPinDigest(digest string) (*models.User, error)
	GetByTelegramChatID(chatID int64) (*models.User, error)
	GetByIDs(ids []uint) ([]*models.User, error)
	ListByTenant(tenantID uint) ([]*models.User, error)
	ListStaff(tenantID uint) ([]*models.User, error)
	SetPinDigest(id uint, digest string) error
	Delete(id uint) error
}

type GormUserRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormUserRepository(db *gorm.DB) (*GormUserRepository, error) {
	logger := newLogger()

	if err := db.AutoMigrate(&models.User{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate users table")
		return nil, err
	}

	logger.Info("User repository initialized")

	return &GormUserRepository{db: db, logger: logger}, nil
}

func (r *GormUserRepository) Create(user *models.User) error {
	r.logger.WithFields(logrus.Fields{
		"email": user.Email,
		"role":  user.Role,
	}).Info("Creating user")

	if user.Role == "" {
		user.Role = models.RoleStaff
	}
	if !user.Role.IsValid() {
		return errors.New("invalid role")
	}

	if err := r.db.Create(user).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create user")
		return err
	}

	r.logger.WithField("id", user.ID).Info("User created successfully")
	return nil
}

func (r *GormUserRepository) Update(user *models.User) error {
	r.logger.WithField("id", user.ID).Info("Updating user")

	result := r.db.Model(user).Select(
		"name", "email", "role", "owner_id", "hourly_rate", "yearly_sales",
		"wage_percentage_goal", "telegram_chat_id",
	).Updates(user)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update user")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	result := r.db.First(&user, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("User not found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get user by ID")
		return nil, result.Error
	}

	return &user, nil
}

func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	result := r.db.Where("email = ?", email).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get user by email")
		return nil, result.Error
	}

	return &user, nil
}

// GetByPinDigest is an indexed lookup on the PIN HMAC.
func (r *GormUserRepository) GetByPinDigest(digest string) (*models.User, error) {
	var user models.User
	result := r.db.Where("pin_digest = ?", digest).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get user by PIN")
		return nil, result.Error
	}

	return &user, nil
}

func (r *GormUserRepository) GetByTelegramChatID(chatID int64) (*models.User, error) {
	if chatID == 0 {
		return nil, nil
	}

	var user models.User
	result := r.db.Where("telegram_chat_id = ?", chatID).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("chat_id", chatID).Debug("No user linked to chat")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get user by chat ID")
		return nil, result.Error
	}

	return &user, nil
}

func (r *GormUserRepository) GetByIDs(ids []uint) ([]*models.User, error) {
	var users []*models.User
	if len(ids) == 0 {
		return users, nil
	}

	if err := r.db.Where("id IN ?", ids).Order("id").Find(&users).Error; err != nil {
		r.logger.WithError(err).Error("Failed to get users by IDs")
		return nil, err
	}
	return users, nil
}

// ListByTenant returns the owner and everyone working for them.
func (r *GormUserRepository) ListByTenant(tenantID uint) ([]*models.User, error) {
	var users []*models.User
	result := r.db.Where("id = ? OR owner_id = ?", tenantID, tenantID).Order("name").Find(&users)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list tenant users")
		return nil, result.Error
	}
	return users, nil
}

// ListStaff returns the users that can be assigned to shifts for a tenant.
func (r *GormUserRepository) ListStaff(tenantID uint) ([]*models.User, error) {
	var users []*models.User
	result := r.db.
		Where("owner_id = ? AND role IN ?", tenantID, []models.Role{models.RoleStaff, models.RoleManager}).
		Order("name").
		Find(&users)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list staff")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"count":     len(users),
	}).Debug("Retrieved staff")

	return users, nil
}

func (r *GormUserRepository) SetPinDigest(id uint, digest string) error {
	r.logger.WithField("id", id).Info("Setting user PIN")

	result := r.db.Model(&models.User{}).Where("id = ?", id).Update("pin_digest", digest)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to set PIN")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormUserRepository) Delete(id uint) error {
	r.logger.WithField("id", id).Info("Deleting user")

	result := r.db.Delete(&models.User{}, id)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete user")
		return result.Error
	}
	if result.RowsAffected == 0 {
		r.logger.WithField("id", id).Warn("User not found for deletion")
		return ErrNotFound
	}

	r.logger.WithField("id", id).Info("User deleted successfully")
	return nil
}
