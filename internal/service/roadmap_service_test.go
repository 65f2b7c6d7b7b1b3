package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/dto"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/repository"
)

// stubGenerator returns a canned response or error.
type stubGenerator struct {
	response string
	err      error
	prompt   string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.response, g.err
}

func newRoadmapService(db *gorm.DB, generator *stubGenerator, now time.Time) *roadmapService {
	svc := NewRoadmapService(
		repository.NewSubjectRepository(db),
		repository.NewGoalRepository(db),
		repository.NewFeedbackRepository(db),
		repository.NewSessionRepository(db),
		repository.NewRoadmapRepository(db),
		generator,
		zerolog.Nop(),
	)
	impl := svc.(*roadmapService)
	impl.now = fixedClock(now)
	return impl
}

// cannedPayload builds a valid payload with the given step and checklist
// counts.
func cannedPayload(steps, items int) dto.RoadmapPayload {
	payload := dto.RoadmapPayload{
		Title:    "Algebra catch-up plan",
		Overview: "Shore up weak algebra topics, then push toward grade 7 problem solving.",
	}
	categories := []string{models.CategoryWeakness, models.CategoryStrength, models.CategoryLevelUp}
	for i := 0; i < steps; i++ {
		step := dto.StepPayload{
			Order:          i + 1,
			Title:          fmt.Sprintf("Step %d", i+1),
			Description:    "Work through the topic with past-paper questions.",
			Category:       categories[i%len(categories)],
			Difficulty:     models.DifficultyMedium,
			EstimatedHours: 8,
		}
		for j := 0; j < items; j++ {
			step.Checklist = append(step.Checklist, fmt.Sprintf("Task %d.%d", i+1, j+1))
		}
		payload.Steps = append(payload.Steps, step)
	}
	return payload
}

func marshalPayload(t *testing.T, payload dto.RoadmapPayload) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(raw)
}

func TestParseRoadmapPayloadStripsCodeFences(t *testing.T) {
	body := marshalPayload(t, cannedPayload(4, 3))

	for _, raw := range []string{
		body,
		"```json\n" + body + "\n```",
		"```\n" + body + "\n```",
		"  ```json\n" + body + "\n```  ",
	} {
		payload, err := parseRoadmapPayload(raw)
		require.NoError(t, err)
		require.Equal(t, "Algebra catch-up plan", payload.Title)
		require.Len(t, payload.Steps, 4)
	}
}

func TestParseRoadmapPayloadRejectsGarbage(t *testing.T) {
	_, err := parseRoadmapPayload("Sorry, I cannot help with that.")
	require.ErrorIs(t, err, ErrGenerationFailed)
}

func TestValidateRoadmapPayloadBounds(t *testing.T) {
	require.NoError(t, validateRoadmapPayload(cannedPayload(3, 2)))
	require.NoError(t, validateRoadmapPayload(cannedPayload(8, 7)))

	require.ErrorIs(t, validateRoadmapPayload(cannedPayload(2, 3)), ErrGenerationFailed)
	require.ErrorIs(t, validateRoadmapPayload(cannedPayload(9, 3)), ErrGenerationFailed)
	require.ErrorIs(t, validateRoadmapPayload(cannedPayload(4, 1)), ErrGenerationFailed)
	require.ErrorIs(t, validateRoadmapPayload(cannedPayload(4, 8)), ErrGenerationFailed)
}

func TestValidateRoadmapPayloadRequiredFields(t *testing.T) {
	missingTitle := cannedPayload(4, 3)
	missingTitle.Title = ""
	require.ErrorIs(t, validateRoadmapPayload(missingTitle), ErrGenerationFailed)

	missingOverview := cannedPayload(4, 3)
	missingOverview.Overview = ""
	require.ErrorIs(t, validateRoadmapPayload(missingOverview), ErrGenerationFailed)

	badCategory := cannedPayload(4, 3)
	badCategory.Steps[1].Category = "revision"
	err := validateRoadmapPayload(badCategory)
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.Contains(t, err.Error(), "invalid category: revision")

	badDifficulty := cannedPayload(4, 3)
	badDifficulty.Steps[0].Difficulty = "brutal"
	require.ErrorIs(t, validateRoadmapPayload(badDifficulty), ErrGenerationFailed)
}

func TestValidateRoadmapPayloadNumericStepFields(t *testing.T) {
	// A step that omits order and estimated_hours decodes to zero values
	// and must be rejected, not committed with zero hours.
	raw := `{
		"title": "Algebra catch-up plan",
		"overview": "Shore up weak topics.",
		"steps": [
			{
				"title": "Step 1",
				"description": "Practice",
				"category": "weakness",
				"difficulty": "medium",
				"checklist": ["Task 1", "Task 2", "Task 3"]
			},
			{
				"order": 2,
				"title": "Step 2",
				"description": "Practice",
				"category": "strength",
				"difficulty": "easy",
				"estimated_hours": 6,
				"checklist": ["Task 1", "Task 2", "Task 3"]
			},
			{
				"order": 3,
				"title": "Step 3",
				"description": "Practice",
				"category": "level_up",
				"difficulty": "hard",
				"estimated_hours": 10,
				"checklist": ["Task 1", "Task 2", "Task 3"]
			}
		]
	}`
	payload, err := parseRoadmapPayload(raw)
	require.NoError(t, err)

	err = validateRoadmapPayload(payload)
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.Contains(t, err.Error(), "missing required field: order")

	missingHours := cannedPayload(4, 3)
	missingHours.Steps[2].EstimatedHours = 0
	err = validateRoadmapPayload(missingHours)
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.Contains(t, err.Error(), "invalid estimated hours")

	excessiveHours := cannedPayload(4, 3)
	excessiveHours.Steps[0].EstimatedHours = 120
	require.ErrorIs(t, validateRoadmapPayload(excessiveHours), ErrGenerationFailed)
}

func TestGenerateCommitsRoadmap(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	goal := createGoal(t, db, subject.ID, now.AddDate(0, 2, 0))

	// A pre-existing active roadmap must be deactivated by the commit.
	previous := createRoadmap(t, db, subject.ID, goal.ID, [][2]int{{2, 0}, {2, 0}, {2, 0}})

	generator := &stubGenerator{response: "```json\n" + marshalPayload(t, cannedPayload(5, 4)) + "\n```"}
	svc := newRoadmapService(db, generator, now)

	detail, err := svc.Generate(testCtx, subject.ID, student.ID)
	require.NoError(t, err)
	require.True(t, detail.IsActive)
	require.Equal(t, 5, detail.TotalSteps)
	require.Equal(t, 20, detail.TotalItems)
	require.Zero(t, detail.CompletedItems)
	require.Len(t, detail.Steps, 5)

	var active []models.Roadmap
	require.NoError(t, db.Where("subject_id = ? AND is_active = ?", subject.ID, true).Find(&active).Error)
	require.Len(t, active, 1)
	require.Equal(t, detail.ID, active[0].ID)

	var old models.Roadmap
	require.NoError(t, db.First(&old, previous.ID).Error)
	require.False(t, old.IsActive)
}

func TestGeneratePromptIncludesContext(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	createGoal(t, db, subject.ID, time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC))
	createSession(t, db, student.ID, subject.ID, now.AddDate(0, 0, -2), 3.5)

	feedback := models.Feedback{
		SubjectID:    subject.ID,
		Strengths:    "Confident with fractions",
		Weaknesses:   "Struggles with simultaneous equations",
		FeedbackDate: dateOnly(now.AddDate(0, 0, -7)),
	}
	require.NoError(t, db.Create(&feedback).Error)

	generator := &stubGenerator{response: marshalPayload(t, cannedPayload(4, 3))}
	svc := newRoadmapService(db, generator, now)

	_, err := svc.Generate(testCtx, subject.ID, student.ID)
	require.NoError(t, err)

	require.Contains(t, generator.prompt, "Subject: Mathematics")
	require.Contains(t, generator.prompt, "Current Level: Grade 5")
	require.Contains(t, generator.prompt, "Target Level: Grade 7")
	require.Contains(t, generator.prompt, "May 15 2026 (66 days remaining)")
	require.Contains(t, generator.prompt, "Study Hours Logged: 3.5 hours")
	require.Contains(t, generator.prompt, "- Confident with fractions")
	require.Contains(t, generator.prompt, "- Struggles with simultaneous equations")
	require.Contains(t, generator.prompt, "- No specific areas noted")
}

func TestGenerateMissingGoal(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	subject := createSubject(t, db, student.ID, models.SubjectMaths)

	generator := &stubGenerator{response: marshalPayload(t, cannedPayload(4, 3))}
	svc := newRoadmapService(db, generator, now)

	_, err := svc.Generate(testCtx, subject.ID, student.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGenerateTransportFailureLeavesNothingBehind(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	createGoal(t, db, subject.ID, now.AddDate(0, 2, 0))

	generator := &stubGenerator{err: errors.New("connection reset")}
	svc := newRoadmapService(db, generator, now)

	_, err := svc.Generate(testCtx, subject.ID, student.ID)
	require.ErrorIs(t, err, ErrGenerationFailed)

	var count int64
	require.NoError(t, db.Model(&models.Roadmap{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGenerateInvalidPayloadLeavesNothingBehind(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	createGoal(t, db, subject.ID, now.AddDate(0, 2, 0))

	generator := &stubGenerator{response: marshalPayload(t, cannedPayload(2, 3))}
	svc := newRoadmapService(db, generator, now)

	_, err := svc.Generate(testCtx, subject.ID, student.ID)
	require.ErrorIs(t, err, ErrGenerationFailed)

	var count int64
	require.NoError(t, db.Model(&models.Roadmap{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestToggleItemRoundTrip(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	goal := createGoal(t, db, subject.ID, now.AddDate(0, 2, 0))
	roadmap := createRoadmap(t, db, subject.ID, goal.ID, [][2]int{{2, 0}, {2, 0}, {2, 0}})

	itemID := roadmap.Steps[0].ChecklistItems[0].ID
	svc := newRoadmapService(db, &stubGenerator{}, now)

	on, err := svc.ToggleItem(testCtx, itemID, student.ID)
	require.NoError(t, err)
	require.True(t, on.IsCompleted)
	require.NotNil(t, on.CompletedAt)
	require.Equal(t, now, *on.CompletedAt)
	require.Equal(t, 50.0, on.StepProgress)
	require.InDelta(t, 16.7, on.RoadmapProgress, 0.01)
	require.Equal(t, int64(1), on.RoadmapDone)
	require.Equal(t, int64(6), on.RoadmapTotal)

	off, err := svc.ToggleItem(testCtx, itemID, student.ID)
	require.NoError(t, err)
	require.False(t, off.IsCompleted)
	require.Nil(t, off.CompletedAt)
	require.Zero(t, off.StepProgress)
	require.Zero(t, off.RoadmapProgress)
}

func TestToggleItemForeignStudent(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	owner := createStudent(t, db, "Amara Okafor")
	intruder := createStudent(t, db, "Ben Whitfield")
	subject := createSubject(t, db, owner.ID, models.SubjectMaths)
	goal := createGoal(t, db, subject.ID, now.AddDate(0, 2, 0))
	roadmap := createRoadmap(t, db, subject.ID, goal.ID, [][2]int{{2, 0}, {2, 0}, {2, 0}})

	svc := newRoadmapService(db, &stubGenerator{}, now)
	_, err := svc.ToggleItem(testCtx, roadmap.Steps[0].ChecklistItems[0].ID, intruder.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
