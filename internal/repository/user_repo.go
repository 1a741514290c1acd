package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/learning-gap-api/internal/models"
)

// UserRepository provides access to user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	ListStudentsByClass(ctx context.Context, className string) ([]models.User, error)
	UpdateRosterStatus(ctx context.Context, id uint, update RosterStatusUpdate) error
	TouchLastActive(ctx context.Context, id uint, at time.Time) error
}

// RosterStatusUpdate carries the roster fields a teacher changed. Nil fields
// are left untouched.
type RosterStatusUpdate struct {
	Attendance *string
	RiskLevel  *string
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translateWriteError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

// ListStudentsByClass returns the students enrolled in a class ordered by name.
func (r *userRepository) ListStudentsByClass(ctx context.Context, className string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND class_name = ?", models.RoleStudent, className).
		Order("name ASC").
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) UpdateRosterStatus(ctx context.Context, id uint, update RosterStatusUpdate) error {
	values := map[string]interface{}{}
	if update.Attendance != nil {
		values["attendance"] = *update.Attendance
	}
	if update.RiskLevel != nil {
		values["risk_level"] = *update.RiskLevel
	}
	if len(values) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) TouchLastActive(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_active", at).Error
}
