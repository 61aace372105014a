package models

import (
	"time"
)

// Group is a work cohort (e.g. "pattern-a"). Leaders gain visibility over
// reports owned by members of their own groups.
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Users     []User    `gorm:"many2many:user_groups" json:"users,omitempty"`
}
