package db

import (
	"context"
	"time"

	"github.com/terraincognita07/cyclecal/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PeriodRepository struct {
	database *gorm.DB
}

func NewPeriodRepository(database *gorm.DB) *PeriodRepository {
	return &PeriodRepository{database: database}
}

func (repo *PeriodRepository) ListByUser(ctx context.Context, userID uint) ([]models.PeriodStart, error) {
	starts := make([]models.PeriodStart, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date ASC, id ASC").
		Find(&starts).Error; err != nil {
		return nil, err
	}
	return starts, nil
}

// Insert adds the start date and reports whether a row was created. An
// existing row for the same day is left untouched.
func (repo *PeriodRepository) Insert(ctx context.Context, userID uint, day time.Time) (bool, error) {
	entry := models.PeriodStart{UserID: userID, StartDate: day}
	result := repo.database.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "start_date"}},
			DoNothing: true,
		}).
		Create(&entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteByUserAndDayRange removes starts in [dayStart, dayEnd) and reports
// how many rows went away.
func (repo *PeriodRepository) DeleteByUserAndDayRange(ctx context.Context, userID uint, dayStart time.Time, dayEnd time.Time) (int64, error) {
	result := repo.database.WithContext(ctx).
		Where("user_id = ? AND start_date >= ? AND start_date < ?", userID, dayStart, dayEnd).
		Delete(&models.PeriodStart{})
	return result.RowsAffected, result.Error
}

func (repo *PeriodRepository) DeleteAllByUser(ctx context.Context, userID uint) (int64, error) {
	result := repo.database.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PeriodStart{})
	return result.RowsAffected, result.Error
}
