package dto

import (
	"math"
	"time"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
)

// RoadmapPayload is the tagged schema the AI response must satisfy. It is
// validated once at the ingestion boundary; nothing downstream handles
// untyped maps.
type RoadmapPayload struct {
	Title    string        `json:"title"`
	Overview string        `json:"overview"`
	Steps    []StepPayload `json:"steps"`
}

// StepPayload is one step of the generated plan.
type StepPayload struct {
	Order          int      `json:"order"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Difficulty     string   `json:"difficulty"`
	EstimatedHours int      `json:"estimated_hours"`
	Checklist      []string `json:"checklist"`
}

// ChecklistItemResponse mirrors a checklist item for API consumers.
type ChecklistItemResponse struct {
	ID              uint       `json:"id"`
	TaskDescription string     `json:"task_description"`
	IsCompleted     bool       `json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// StepResponse mirrors a roadmap step with its checklist.
type StepResponse struct {
	ID             uint                    `json:"id"`
	OrderNumber    int                     `json:"order_number"`
	Title          string                  `json:"title"`
	Description    string                  `json:"description"`
	Category       string                  `json:"category"`
	Difficulty     string                  `json:"difficulty"`
	EstimatedHours int                     `json:"estimated_hours"`
	Completed      bool                    `json:"completed"`
	Checklist      []ChecklistItemResponse `json:"checklist"`
}

// RoadmapDetail is a roadmap with steps and progress statistics.
type RoadmapDetail struct {
	ID                   uint           `json:"id"`
	SubjectID            uint           `json:"subject_id"`
	Title                string         `json:"title"`
	Overview             string         `json:"overview"`
	TotalSteps           int            `json:"total_steps"`
	IsActive             bool           `json:"is_active"`
	GeneratedAt          time.Time      `json:"generated_at"`
	TotalItems           int            `json:"total_items"`
	CompletedItems       int            `json:"completed_items"`
	CompletionPercentage float64        `json:"completion_percentage"`
	Steps                []StepResponse `json:"steps"`
}

// ToggleResult reports the item state and recomputed progress after a
// checklist toggle.
type ToggleResult struct {
	ItemID          uint       `json:"item_id"`
	IsCompleted     bool       `json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	StepProgress    float64    `json:"step_progress"`
	StepCompleted   int64      `json:"step_completed"`
	StepTotal       int64      `json:"step_total"`
	RoadmapProgress float64    `json:"roadmap_progress"`
	RoadmapDone     int64      `json:"roadmap_completed"`
	RoadmapTotal    int64      `json:"roadmap_total"`
}

// NewRoadmapDetail flattens a preloaded roadmap model.
func NewRoadmapDetail(roadmap models.Roadmap) RoadmapDetail {
	detail := RoadmapDetail{
		ID:          roadmap.ID,
		SubjectID:   roadmap.SubjectID,
		Title:       roadmap.Title,
		Overview:    roadmap.Overview,
		TotalSteps:  roadmap.TotalSteps,
		IsActive:    roadmap.IsActive,
		GeneratedAt: roadmap.GeneratedAt,
		Steps:       make([]StepResponse, 0, len(roadmap.Steps)),
	}

	for _, step := range roadmap.Steps {
		stepResponse := StepResponse{
			ID:             step.ID,
			OrderNumber:    step.OrderNumber,
			Title:          step.Title,
			Description:    step.Description,
			Category:       step.Category,
			Difficulty:     step.Difficulty,
			EstimatedHours: step.EstimatedHours,
			Completed:      step.IsCompleted(),
			Checklist:      make([]ChecklistItemResponse, 0, len(step.ChecklistItems)),
		}
		for _, item := range step.ChecklistItems {
			detail.TotalItems++
			if item.IsCompleted {
				detail.CompletedItems++
			}
			stepResponse.Checklist = append(stepResponse.Checklist, ChecklistItemResponse{
				ID:              item.ID,
				TaskDescription: item.TaskDescription,
				IsCompleted:     item.IsCompleted,
				CompletedAt:     item.CompletedAt,
			})
		}
		detail.Steps = append(detail.Steps, stepResponse)
	}

	if detail.TotalItems > 0 {
		detail.CompletionPercentage = roundTo1(float64(detail.CompletedItems) / float64(detail.TotalItems) * 100)
	}

	return detail
}

func roundTo1(value float64) float64 {
	return math.Round(value*10) / 10
}
