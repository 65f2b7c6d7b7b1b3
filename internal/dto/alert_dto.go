package dto

import (
	"time"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
)

// AlertResponse mirrors a progress alert for API consumers.
type AlertResponse struct {
	ID          uint       `json:"id"`
	StudentID   uint       `json:"student_id"`
	StudentName string     `json:"student_name,omitempty"`
	SubjectID   *uint      `json:"subject_id,omitempty"`
	RoadmapID   *uint      `json:"roadmap_id,omitempty"`
	AlertType   string     `json:"alert_type"`
	Severity    string     `json:"severity"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	IsSent      bool       `json:"is_sent"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	IsRead      bool       `json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewAlertResponse converts a progress alert model.
func NewAlertResponse(alert models.ProgressAlert) AlertResponse {
	return AlertResponse{
		ID:          alert.ID,
		StudentID:   alert.StudentID,
		StudentName: alert.Student.FullName,
		SubjectID:   alert.SubjectID,
		RoadmapID:   alert.RoadmapID,
		AlertType:   alert.AlertType,
		Severity:    alert.Severity,
		Title:       alert.Title,
		Message:     alert.Message,
		IsSent:      alert.IsSent,
		SentAt:      alert.SentAt,
		IsRead:      alert.IsRead,
		ReadAt:      alert.ReadAt,
		CreatedAt:   alert.CreatedAt,
	}
}

// NewAlertResponseSlice converts a slice of progress alert models.
func NewAlertResponseSlice(alerts []models.ProgressAlert) []AlertResponse {
	responses := make([]AlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		responses = append(responses, NewAlertResponse(alert))
	}
	return responses
}

// AlertHistoryResponse is the parent-facing alert history view.
type AlertHistoryResponse struct {
	Alerts      []AlertResponse `json:"alerts"`
	TotalAlerts int64           `json:"total_alerts"`
	UnreadCount int64           `json:"unread_count"`
}

// PreferencesRequest updates a parent's alert preferences.
type PreferencesRequest struct {
	EmailNotifications    *bool   `json:"email_notifications"`
	AlertLowActivity      *bool   `json:"alert_low_activity"`
	AlertLowActivityDays  *int    `json:"alert_low_activity_days" validate:"omitempty,min=1,max=30"`
	AlertGoalAtRisk       *bool   `json:"alert_goal_at_risk"`
	AlertGoalAtRiskDays   *int    `json:"alert_goal_at_risk_days" validate:"omitempty,min=1,max=60"`
	AlertMilestones       *bool   `json:"alert_milestones"`
	AlertRoadmapCompleted *bool   `json:"alert_roadmap_completed"`
	AlertStreakBroken     *bool   `json:"alert_streak_broken"`
	AlertNewFeedback      *bool   `json:"alert_new_feedback"`
	AlertFrequency        *string `json:"alert_frequency" validate:"omitempty,oneof=immediate daily weekly"`
}

// ParentChildSummary bundles one linked student's metrics on the parent
// dashboard.
type ParentChildSummary struct {
	StudentID            uint            `json:"student_id"`
	StudentName          string          `json:"student_name"`
	TotalHours           float64         `json:"total_hours"`
	StudyStreak          int             `json:"study_streak"`
	TotalTasks           int64           `json:"total_tasks"`
	CompletedTasks       int64           `json:"completed_tasks"`
	CompletionPercentage float64         `json:"completion_percentage"`
	AvgDailyHours        float64         `json:"avg_daily_hours"`
	ActiveRoadmaps       []RoadmapCard   `json:"active_roadmaps"`
	RecentActivity       []ActivityEvent `json:"recent_activity"`
}

// RoadmapCard is a compact roadmap summary used in listings.
type RoadmapCard struct {
	ID          uint      `json:"id"`
	SubjectName string    `json:"subject_name"`
	Title       string    `json:"title"`
	TotalSteps  int       `json:"total_steps"`
	IsActive    bool      `json:"is_active"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ParentDashboardResponse aggregates every linked student.
type ParentDashboardResponse struct {
	Children      []ParentChildSummary `json:"children"`
	TotalChildren int                  `json:"total_children"`
}
