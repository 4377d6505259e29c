package db

import (
	"context"
	"time"

	"github.com/terraincognita07/cyclecal/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	database *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{database: database}
}

func (repo *UserRepository) FindByID(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	if err := repo.database.WithContext(ctx).First(&user, userID).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (repo *UserRepository) FindByNormalizedEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := repo.database.WithContext(ctx).Where("lower(trim(email)) = ?", email).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (repo *UserRepository) ExistsByNormalizedEmail(ctx context.Context, email string) (bool, error) {
	var matched int64
	if err := repo.database.WithContext(ctx).Model(&models.User{}).
		Where("lower(trim(email)) = ?", email).
		Count(&matched).Error; err != nil {
		return false, err
	}
	return matched > 0, nil
}

func (repo *UserRepository) Create(ctx context.Context, user *models.User) error {
	return repo.database.WithContext(ctx).Create(user).Error
}

func (repo *UserRepository) UpdateDisplayName(ctx context.Context, userID uint, displayName string) error {
	return repo.database.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("display_name", displayName).Error
}

func (repo *UserRepository) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	return repo.database.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password_hash", passwordHash).Error
}

// UpdateSettings writes both settings columns; a nil override clears it.
func (repo *UserRepository) UpdateSettings(ctx context.Context, userID uint, cycleOverrideDays *int, notifyLeadDays int) error {
	return repo.database.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"cycle_override_days": cycleOverrideDays,
		"notify_lead_days":    notifyLeadDays,
	}).Error
}

func (repo *UserRepository) LoadSettingsByID(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	if err := repo.database.WithContext(ctx).
		Select("id", "cycle_override_days", "notify_lead_days").
		First(&user, userID).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ListReminderCandidates returns users who can get a prediction and have
// not been reminded on day yet: two or more logged starts, or one start
// plus a cycle override.
func (repo *UserRepository) ListReminderCandidates(ctx context.Context, day time.Time) ([]models.User, error) {
	withHistory := repo.database.Model(&models.PeriodStart{}).
		Select("user_id").
		Group("user_id").
		Having("COUNT(*) >= ?", 2)
	withAnyStart := repo.database.Model(&models.PeriodStart{}).Select("user_id")

	users := make([]models.User, 0)
	err := repo.database.WithContext(ctx).
		Where("(id IN (?) OR (cycle_override_days > 0 AND id IN (?)))", withHistory, withAnyStart).
		Where("(last_reminder_sent_on IS NULL OR last_reminder_sent_on < ?)", day).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (repo *UserRepository) MarkReminderSent(ctx context.Context, userID uint, day time.Time) error {
	return repo.database.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("last_reminder_sent_on", day).Error
}

// DeleteAccountAndRelatedData removes the user's starts and then the user
// in one transaction.
func (repo *UserRepository) DeleteAccountAndRelatedData(ctx context.Context, userID uint) error {
	return repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.PeriodStart{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
}
