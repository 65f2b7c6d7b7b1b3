package models

import "time"

// Roles a profile can hold.
const (
	RoleStudent = "student"
	RoleParent  = "parent"
)

// Alert email frequency preferences.
const (
	FrequencyImmediate = "immediate"
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
)

// UserProfile represents a student or parent account. Parents carry a set of
// linked students plus the alert preferences the rule engine and dispatcher
// consult.
type UserProfile struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FullName  string `gorm:"size:200;not null" json:"full_name"`
	Email     string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string `gorm:"size:10;not null;index" json:"role"`
	YearGroup *int   `json:"year_group,omitempty"`

	// LinkedStudents is a back-reference, not ownership: removing a parent
	// never cascades into student rows.
	LinkedStudents []*UserProfile `gorm:"many2many:parent_students;joinForeignKey:ParentID;joinReferences:StudentID" json:"-"`

	EmailNotifications bool `json:"email_notifications"`

	AlertLowActivity      bool `json:"alert_low_activity"`
	AlertLowActivityDays  int  `json:"alert_low_activity_days"`
	AlertGoalAtRisk       bool `json:"alert_goal_at_risk"`
	AlertGoalAtRiskDays   int  `json:"alert_goal_at_risk_days"`
	AlertMilestones       bool `json:"alert_milestones"`
	AlertRoadmapCompleted bool `json:"alert_roadmap_completed"`
	AlertStreakBroken     bool `json:"alert_streak_broken"`
	AlertNewFeedback      bool `json:"alert_new_feedback"`

	AlertFrequency string     `gorm:"size:10" json:"alert_frequency"`
	LastAlertSent  *time.Time `json:"last_alert_sent,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewParentProfile returns a parent profile with every alert preference
// enabled and the stock thresholds applied.
func NewParentProfile(fullName, email string) UserProfile {
	return UserProfile{
		FullName:              fullName,
		Email:                 email,
		Role:                  RoleParent,
		EmailNotifications:    true,
		AlertLowActivity:      true,
		AlertLowActivityDays:  3,
		AlertGoalAtRisk:       true,
		AlertGoalAtRiskDays:   14,
		AlertMilestones:       true,
		AlertRoadmapCompleted: true,
		AlertStreakBroken:     true,
		AlertNewFeedback:      true,
		AlertFrequency:        FrequencyImmediate,
	}
}

// IsParent reports whether the profile belongs to a parent account.
func (p UserProfile) IsParent() bool {
	return p.Role == RoleParent
}
