package models

import "time"

const DefaultNotifyLeadDays = 3

type User struct {
	ID                 uint       `gorm:"primaryKey"`
	Email              string     `gorm:"uniqueIndex;not null"`
	PasswordHash       string     `gorm:"not null"`
	DisplayName        string     `gorm:"not null;default:''"`
	CycleOverrideDays  *int       `gorm:"column:cycle_override_days"`
	NotifyLeadDays     int        `gorm:"not null;default:3"`
	LastReminderSentOn *time.Time `gorm:"type:date"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time
}
