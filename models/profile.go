package models

import (
	"time"
)

// UserProfile carries per-user settings that do not belong on the account
// record itself. Currently only an optional secondary address for
// submission notices.
type UserProfile struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	NotificationEmail string    `gorm:"size:254" json:"notification_email"`
}
