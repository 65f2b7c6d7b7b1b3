package models

import (
	"time"

	"gorm.io/datatypes"
)

// Alert types, one per rule evaluator.
const (
	AlertLowActivity      = "low_activity"
	AlertGoalAtRisk       = "goal_at_risk"
	AlertMilestone        = "milestone_achieved"
	AlertRoadmapCompleted = "roadmap_completed"
	AlertStreakBroken     = "streak_broken"
	AlertNewFeedback      = "new_feedback"
)

// Alert severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeveritySuccess = "success"
)

// ProgressAlert is the durable record of something communicated (or queued
// for communication) to a parent about a student. Rows are created only by
// the rule engine; is_sent and is_read transitions are monotonic.
type ProgressAlert struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ParentID  uint        `gorm:"not null;index" json:"parent_id"`
	Parent    UserProfile `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
	StudentID uint        `gorm:"not null;index" json:"student_id"`
	Student   UserProfile `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	SubjectID *uint       `gorm:"index" json:"subject_id,omitempty"`
	RoadmapID *uint       `gorm:"index" json:"roadmap_id,omitempty"`

	AlertType string `gorm:"size:20;not null;index" json:"alert_type"`
	Severity  string `gorm:"size:10;not null" json:"severity"`
	Title     string `gorm:"size:255;not null" json:"title"`
	Message   string `gorm:"type:text;not null" json:"message"`

	// DedupKey makes duplicate prevention a data invariant rather than a
	// query-time heuristic: (parent, student, type, scope entity, bucket).
	DedupKey string `gorm:"size:160;uniqueIndex" json:"-"`

	Metadata datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`

	IsSent bool       `gorm:"index" json:"is_sent"`
	SentAt *time.Time `json:"sent_at,omitempty"`
	IsRead bool       `gorm:"index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// MarkSent records the sent transition. Once sent, an alert never reverts.
func (a *ProgressAlert) MarkSent(now time.Time) {
	if a.IsSent {
		return
	}
	stamp := now.UTC()
	a.IsSent = true
	a.SentAt = &stamp
}

// MarkRead records the read transition. Once read, an alert never reverts.
func (a *ProgressAlert) MarkRead(now time.Time) {
	if a.IsRead {
		return
	}
	stamp := now.UTC()
	a.IsRead = true
	a.ReadAt = &stamp
}
