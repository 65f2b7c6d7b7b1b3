package models

import "time"

// Session hour bounds, inclusive.
const (
	MinSessionHours = 0.1
	MaxSessionHours = 24.0
)

// StudySession records time a student spent on a subject on a given calendar
// day. The session date must not be in the future at creation time.
type StudySession struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	User        UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	SubjectID   uint        `gorm:"not null;index" json:"subject_id"`
	Subject     Subject     `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"-"`
	HoursSpent  float64     `gorm:"not null" json:"hours_spent"`
	SessionDate time.Time   `gorm:"type:date;not null;index" json:"session_date"`
	Notes       string      `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time   `json:"created_at"`
}
