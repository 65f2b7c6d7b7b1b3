package dto

import (
	"time"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
)

// SubjectCreateRequest adds a subject to a student account.
type SubjectCreateRequest struct {
	Name        string `json:"name" validate:"required,oneof=maths english science mandarin"`
	Description string `json:"description" validate:"max=2000"`
}

// SubjectUpdateRequest edits the free-text description.
type SubjectUpdateRequest struct {
	Description string `json:"description" validate:"max=2000"`
}

// SubjectResponse mirrors a subject for API consumers.
type SubjectResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewSubjectResponse converts a subject model.
func NewSubjectResponse(subject models.Subject) SubjectResponse {
	return SubjectResponse{
		ID:          subject.ID,
		Name:        subject.Name,
		DisplayName: subject.DisplayName(),
		Description: subject.Description,
		CreatedAt:   subject.CreatedAt,
	}
}

// GoalCreateRequest records a term goal against a subject.
type GoalCreateRequest struct {
	CurrentLevel string `json:"current_level" validate:"required,max=50"`
	TargetLevel  string `json:"target_level" validate:"required,max=50"`
	Term         string `json:"term" validate:"required,oneof=autumn_2025 spring_2026 summer_2026"`
	Deadline     string `json:"deadline" validate:"required,datetime=2006-01-02"`
}

// FeedbackCreateRequest records teacher feedback against a subject.
type FeedbackCreateRequest struct {
	Strengths      string `json:"strengths" validate:"max=4000"`
	Weaknesses     string `json:"weaknesses" validate:"max=4000"`
	AreasToImprove string `json:"areas_to_improve" validate:"max=4000"`
	FeedbackDate   string `json:"feedback_date" validate:"required,datetime=2006-01-02"`
}

// SessionCreateRequest logs a study session.
type SessionCreateRequest struct {
	SubjectID   uint    `json:"subject_id" validate:"required"`
	HoursSpent  float64 `json:"hours_spent" validate:"required,min=0.1,max=24"`
	SessionDate string  `json:"session_date" validate:"required,datetime=2006-01-02"`
	Notes       string  `json:"notes" validate:"max=2000"`
}

// SessionResponse mirrors a study session for API consumers.
type SessionResponse struct {
	ID          uint      `json:"id"`
	SubjectID   uint      `json:"subject_id"`
	HoursSpent  float64   `json:"hours_spent"`
	SessionDate time.Time `json:"session_date"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewSessionResponse converts a study session model.
func NewSessionResponse(session models.StudySession) SessionResponse {
	return SessionResponse{
		ID:          session.ID,
		SubjectID:   session.SubjectID,
		HoursSpent:  session.HoursSpent,
		SessionDate: session.SessionDate,
		Notes:       session.Notes,
		CreatedAt:   session.CreatedAt,
	}
}

// GoalResponse mirrors a term goal for API consumers.
type GoalResponse struct {
	ID            uint      `json:"id"`
	SubjectID     uint      `json:"subject_id"`
	CurrentLevel  string    `json:"current_level"`
	TargetLevel   string    `json:"target_level"`
	Term          string    `json:"term"`
	TermDisplay   string    `json:"term_display"`
	Deadline      time.Time `json:"deadline"`
	DaysRemaining int       `json:"days_remaining"`
	IsOverdue     bool      `json:"is_overdue"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewGoalResponse converts a term goal model, computing deadline fields
// relative to now.
func NewGoalResponse(goal models.TermGoal, now time.Time) GoalResponse {
	return GoalResponse{
		ID:            goal.ID,
		SubjectID:     goal.SubjectID,
		CurrentLevel:  goal.CurrentLevel,
		TargetLevel:   goal.TargetLevel,
		Term:          goal.Term,
		TermDisplay:   goal.TermDisplay(),
		Deadline:      goal.Deadline,
		DaysRemaining: goal.DaysRemaining(now),
		IsOverdue:     goal.IsOverdue(now),
		CreatedAt:     goal.CreatedAt,
	}
}

// FeedbackResponse mirrors teacher feedback for API consumers.
type FeedbackResponse struct {
	ID             uint      `json:"id"`
	SubjectID      uint      `json:"subject_id"`
	Strengths      string    `json:"strengths"`
	Weaknesses     string    `json:"weaknesses"`
	AreasToImprove string    `json:"areas_to_improve"`
	FeedbackDate   time.Time `json:"feedback_date"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewFeedbackResponse converts a feedback model.
func NewFeedbackResponse(feedback models.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:             feedback.ID,
		SubjectID:      feedback.SubjectID,
		Strengths:      feedback.Strengths,
		Weaknesses:     feedback.Weaknesses,
		AreasToImprove: feedback.AreasToImprove,
		FeedbackDate:   feedback.FeedbackDate,
		CreatedAt:      feedback.CreatedAt,
	}
}
