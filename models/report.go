package models

import (
	"time"

	"gorm.io/gorm"
)

// Report is one user's timesheet for one calendar date. A user has at most
// one report per date.
type Report struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	UserID           uint           `gorm:"not null;uniqueIndex:idx_reports_user_date" json:"user_id"`
	User             User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Date             time.Time      `gorm:"not null;type:date;uniqueIndex:idx_reports_user_date" json:"date"`
	Remarks          string         `gorm:"type:text" json:"remarks"`
	Comment          string         `gorm:"type:text" json:"comment"`
	BossConfirmation bool           `gorm:"not null;default:false" json:"boss_confirmation"`
	IsSubmitted      bool           `gorm:"not null;default:false" json:"is_submitted"`
	Details          []ReportDetail `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

// ReportDetail is one time-bounded work entry within a report. Times are
// fixed-format "HH:MM:SS" strings; start <= end is expected but not
// enforced.
type ReportDetail struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	ReportID          uint      `gorm:"not null;index" json:"report_id"`
	Report            *Report   `gorm:"foreignKey:ReportID" json:"-"`
	StartTime         string    `gorm:"not null;size:8" json:"start_time"`
	EndTime           string    `gorm:"not null;size:8" json:"end_time"`
	WorkTitle         string    `gorm:"size:200" json:"work_title"`
	WorkDetail        string    `gorm:"type:text" json:"work_detail"`
	Client            string    `gorm:"size:200" json:"client"`
	ResponsiblePerson string    `gorm:"size:200" json:"responsible_person"`
}

type ReportFilter struct {
	UserID uint
	From   time.Time
	To     time.Time
}
