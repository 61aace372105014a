package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleLeader Role = "LEADER"
	RoleMember Role = "MEMBER"
)

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	Username           string         `gorm:"uniqueIndex;not null;size:100" json:"username"`
	FullName           string         `gorm:"not null;size:200" json:"full_name"`
	Email              string         `gorm:"size:254" json:"email"`
	PasswordHash       string         `gorm:"not null" json:"-"`
	Role               Role           `gorm:"not null;size:20" json:"role"`
	MustChangePassword bool           `gorm:"default:true" json:"must_change_password"`
	Groups             []Group        `gorm:"many2many:user_groups" json:"groups,omitempty"`
	Profile            *UserProfile   `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Reports            []Report       `gorm:"foreignKey:UserID" json:"reports,omitempty"`
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsLeader() bool {
	return u.Role == RoleLeader
}

// IsApprover reports whether the user may confirm submitted reports.
func (u *User) IsApprover() bool {
	return u.IsAdmin() || u.IsLeader()
}

// SharesGroupWith reports whether both users belong to at least one common
// group. Groups must be preloaded on both users.
func (u *User) SharesGroupWith(other *User) bool {
	if other == nil {
		return false
	}
	for _, g := range u.Groups {
		for _, og := range other.Groups {
			if g.ID == og.ID {
				return true
			}
		}
	}
	return false
}

// NotificationAddresses returns every address submission notices go to:
// the primary account email plus the optional profile address.
func (u *User) NotificationAddresses() []string {
	var addrs []string
	if u.Email != "" {
		addrs = append(addrs, u.Email)
	}
	if u.Profile != nil && u.Profile.NotificationEmail != "" {
		addrs = append(addrs, u.Profile.NotificationEmail)
	}
	return addrs
}
