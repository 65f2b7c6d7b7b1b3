package dto

import "time"

// WeeklySeries holds seven daily buckets, oldest first (six days ago through
// today). Labels and Hours always have equal length.
type WeeklySeries struct {
	Labels []string  `json:"labels"`
	Hours  []float64 `json:"hours"`
}

// SubjectComparison pairs subject display names with their total study hours.
// Subjects with zero hours are excluded; label/value sequences stay aligned.
type SubjectComparison struct {
	Labels []string  `json:"labels"`
	Hours  []float64 `json:"hours"`
}

// Activity event types surfaced by the recent-activity feed.
const (
	ActivityStudy      = "study"
	ActivityFeedback   = "feedback"
	ActivityCompletion = "completion"
)

// ActivityEvent is one entry in the merged recent-activity feed.
type ActivityEvent struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Date      time.Time `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// SubjectProgress summarises one subject on the dashboard.
type SubjectProgress struct {
	SubjectID            uint    `json:"subject_id"`
	Name                 string  `json:"name"`
	DisplayName          string  `json:"display_name"`
	TotalHours           float64 `json:"total_hours"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// StudentDashboardResponse bundles the aggregated metrics for a student.
type StudentDashboardResponse struct {
	TotalHours           float64           `json:"total_hours"`
	StudyStreak          int               `json:"study_streak"`
	TotalTasks           int64             `json:"total_tasks"`
	CompletedTasks       int64             `json:"completed_tasks"`
	CompletionPercentage float64           `json:"completion_percentage"`
	AvgDailyHours        float64           `json:"avg_daily_hours"`
	MostStudied          string            `json:"most_studied,omitempty"`
	Subjects             []SubjectProgress `json:"subjects"`
	WeeklySeries         WeeklySeries      `json:"weekly_series"`
	SubjectComparison    SubjectComparison `json:"subject_comparison"`
	RecentActivity       []ActivityEvent   `json:"recent_activity"`
}
