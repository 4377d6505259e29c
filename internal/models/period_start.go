package models

import "time"

// PeriodStart is one logged period start. StartDate holds a date only,
// stored at UTC midnight.
type PeriodStart struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:uidx_period_user_date"`
	StartDate time.Time `gorm:"type:date;not null;uniqueIndex:uidx_period_user_date"`
	CreatedAt time.Time
}
