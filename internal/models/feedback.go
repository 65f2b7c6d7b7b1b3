package models

import "time"

// Feedback captures teacher feedback for a subject, recorded by the student
// after a parents evening or assessment.
type Feedback struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubjectID      uint      `gorm:"not null;index" json:"subject_id"`
	Subject        Subject   `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"-"`
	Strengths      string    `gorm:"type:text" json:"strengths"`
	Weaknesses     string    `gorm:"type:text" json:"weaknesses"`
	AreasToImprove string    `gorm:"type:text" json:"areas_to_improve"`
	FeedbackDate   time.Time `gorm:"type:date;not null" json:"feedback_date"`
	CreatedAt      time.Time `json:"created_at"`
}
