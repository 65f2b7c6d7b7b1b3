package models

import "time"

// Step categories.
const (
	CategoryWeakness = "weakness"
	CategoryStrength = "strength"
	CategoryLevelUp  = "level_up"
)

// Step difficulties.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Resource types.
const (
	ResourceVideo       = "video"
	ResourceArticle     = "article"
	ResourceExercise    = "exercise"
	ResourceAIGenerated = "ai_generated"
)

// ValidStepCategory reports whether category is a recognised step category.
func ValidStepCategory(category string) bool {
	switch category {
	case CategoryWeakness, CategoryStrength, CategoryLevelUp:
		return true
	}
	return false
}

// ValidStepDifficulty reports whether difficulty is a recognised level.
func ValidStepDifficulty(difficulty string) bool {
	switch difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Roadmap is an AI-generated improvement plan for a subject. At most one
// roadmap per subject is active; the ingestion commit enforces this, not the
// schema.
type Roadmap struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	SubjectID   uint          `gorm:"not null;index" json:"subject_id"`
	Subject     Subject       `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"-"`
	TermGoalID  uint          `gorm:"not null" json:"term_goal_id"`
	TermGoal    TermGoal      `gorm:"foreignKey:TermGoalID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string        `gorm:"size:200;not null" json:"title"`
	Overview    string        `gorm:"type:text" json:"overview"`
	TotalSteps  int           `json:"total_steps"`
	IsActive    bool          `gorm:"index" json:"is_active"`
	Steps       []RoadmapStep `gorm:"foreignKey:RoadmapID" json:"steps,omitempty"`
	GeneratedAt time.Time     `gorm:"autoCreateTime" json:"generated_at"`
}

// RoadmapStep is one themed unit of work inside a roadmap.
type RoadmapStep struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	RoadmapID      uint            `gorm:"not null;index" json:"roadmap_id"`
	OrderNumber    int             `gorm:"not null" json:"order_number"`
	Title          string          `gorm:"size:200;not null" json:"title"`
	Description    string          `gorm:"type:text" json:"description"`
	Category       string          `gorm:"size:20;not null" json:"category"`
	Difficulty     string          `gorm:"size:10;not null" json:"difficulty"`
	EstimatedHours int             `gorm:"not null" json:"estimated_hours"`
	ChecklistItems []ChecklistItem `gorm:"foreignKey:RoadmapStepID;constraint:OnDelete:CASCADE" json:"checklist_items,omitempty"`
	Resources      []Resource      `gorm:"foreignKey:RoadmapStepID;constraint:OnDelete:CASCADE" json:"resources,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// IsCompleted reports whether every checklist item of the step is done. A
// step without items never counts as completed.
func (s RoadmapStep) IsCompleted() bool {
	if len(s.ChecklistItems) == 0 {
		return false
	}
	for _, item := range s.ChecklistItems {
		if !item.IsCompleted {
			return false
		}
	}
	return true
}

// ChecklistItem is the smallest unit of completable work. Invariant:
// completed_at is non-null iff is_completed is true.
type ChecklistItem struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	RoadmapStepID   uint       `gorm:"not null;index" json:"roadmap_step_id"`
	TaskDescription string     `gorm:"type:text;not null" json:"task_description"`
	IsCompleted     bool       `json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Toggle flips the completion state, keeping completed_at in sync.
func (c *ChecklistItem) Toggle(now time.Time) {
	c.IsCompleted = !c.IsCompleted
	if c.IsCompleted {
		stamp := now.UTC()
		c.CompletedAt = &stamp
	} else {
		c.CompletedAt = nil
	}
}

// Resource is a study resource attached to a roadmap step.
type Resource struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RoadmapStepID uint      `gorm:"not null;index" json:"roadmap_step_id"`
	ResourceType  string    `gorm:"size:20;not null" json:"resource_type"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	URL           *string   `gorm:"size:500" json:"url,omitempty"`
	AIContent     *string   `gorm:"type:text" json:"ai_content,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
