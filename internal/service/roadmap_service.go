package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/dto"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/repository"
	"github.com/Ycandido0119/gcse-progress-tracker/pkg/ai"
)

// Step-count and checklist-length bounds enforced on generated payloads.
// The prompt asks for 4-6 steps of 3-5 items, but the accepted contract is
// deliberately wider.
const (
	minSteps          = 3
	maxSteps          = 8
	minChecklistItems = 2
	maxChecklistItems = 7
	minEstimatedHours = 1
	maxEstimatedHours = 100
)

// RoadmapService owns the full roadmap lifecycle: prompt assembly, AI
// invocation, payload validation and the atomic replace of the subject's
// active roadmap, plus checklist toggling.
type RoadmapService interface {
	// Generate builds the prompt from the subject's latest goal and feedback,
	// invokes the generator, validates the response and commits it as the new
	// active roadmap. Every failure mode wraps ErrGenerationFailed, except a
	// missing goal which surfaces as repository.ErrNotFound.
	Generate(ctx context.Context, subjectID, userID uint) (dto.RoadmapDetail, error)
	Detail(ctx context.Context, roadmapID, userID uint) (dto.RoadmapDetail, error)
	ListForStudent(ctx context.Context, studentID uint, activeOnly bool) ([]dto.RoadmapDetail, error)
	ToggleItem(ctx context.Context, itemID, userID uint) (dto.ToggleResult, error)
	Delete(ctx context.Context, roadmapID, userID uint) error
}

type roadmapService struct {
	subjects  repository.SubjectRepository
	goals     repository.GoalRepository
	feedback  repository.FeedbackRepository
	sessions  repository.SessionRepository
	roadmaps  repository.RoadmapRepository
	generator ai.Generator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRoadmapService wires the ingestion pipeline. The generator is injected
// so tests can substitute a canned one.
func NewRoadmapService(
	subjects repository.SubjectRepository,
	goals repository.GoalRepository,
	feedback repository.FeedbackRepository,
	sessions repository.SessionRepository,
	roadmaps repository.RoadmapRepository,
	generator ai.Generator,
	logger zerolog.Logger,
) RoadmapService {
	return &roadmapService{
		subjects:  subjects,
		goals:     goals,
		feedback:  feedback,
		sessions:  sessions,
		roadmaps:  roadmaps,
		generator: generator,
		logger:    logger.With().Str("component", "roadmap_service").Logger(),
		now:       time.Now,
	}
}

func (s *roadmapService) Generate(ctx context.Context, subjectID, userID uint) (dto.RoadmapDetail, error) {
	subject, err := s.subjects.FindForUser(ctx, subjectID, userID)
	if err != nil {
		return dto.RoadmapDetail{}, err
	}

	goal, err := s.goals.LatestForSubject(ctx, subject.ID)
	if err != nil {
		return dto.RoadmapDetail{}, err
	}

	feedbacks, err := s.feedback.ListBySubject(ctx, subject.ID)
	if err != nil {
		return dto.RoadmapDetail{}, err
	}

	hoursLogged, err := s.sessions.TotalHoursForSubject(ctx, subject.ID)
	if err != nil {
		return dto.RoadmapDetail{}, err
	}

	prompt := s.buildPrompt(subject, goal, feedbacks, hoursLogged)

	s.logger.Info().
		Uint("subject_id", subject.ID).
		Uint("goal_id", goal.ID).
		Int("feedback_count", len(feedbacks)).
		Msg("generating roadmap")

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error().Err(err).Uint("subject_id", subject.ID).Msg("generator call failed")
		return dto.RoadmapDetail{}, generationFailed("generation service error: %v", err)
	}

	payload, err := parseRoadmapPayload(raw)
	if err != nil {
		return dto.RoadmapDetail{}, err
	}

	if err := validateRoadmapPayload(payload); err != nil {
		return dto.RoadmapDetail{}, err
	}

	roadmap := buildRoadmap(subject.ID, goal.ID, payload)
	if err := s.roadmaps.Replace(ctx, roadmap); err != nil {
		return dto.RoadmapDetail{}, fmt.Errorf("commit roadmap: %w", err)
	}

	s.logger.Info().
		Uint("roadmap_id", roadmap.ID).
		Int("total_steps", roadmap.TotalSteps).
		Msg("roadmap committed")

	return s.Detail(ctx, roadmap.ID, userID)
}

// buildPrompt assembles the generation request: student context, collated
// teacher feedback and the expected output schema.
func (s *roadmapService) buildPrompt(subject models.Subject, goal models.TermGoal, feedbacks []models.Feedback, hoursLogged float64) string {
	var strengths, weaknesses, areas []string
	for _, feedback := range feedbacks {
		if feedback.Strengths != "" {
			strengths = append(strengths, feedback.Strengths)
		}
		if feedback.Weaknesses != "" {
			weaknesses = append(weaknesses, feedback.Weaknesses)
		}
		if feedback.AreasToImprove != "" {
			areas = append(areas, feedback.AreasToImprove)
		}
	}

	daysRemaining := goal.DaysRemaining(s.now())

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert GCSE study planner. Create a personalised study roadmap for a Year 9 student.\n\n")
	fmt.Fprintf(&b, "STUDENT CONTEXT:\n")
	fmt.Fprintf(&b, "Subject: %s\n", subject.DisplayName())
	fmt.Fprintf(&b, "Current Level: %s\n", goal.CurrentLevel)
	fmt.Fprintf(&b, "Target Level: %s\n", goal.TargetLevel)
	fmt.Fprintf(&b, "Deadline: %s (%d days remaining)\n", goal.Deadline.Format("January 02 2006"), daysRemaining)
	fmt.Fprintf(&b, "Study Hours Logged: %g hours\n\n", hoursLogged)
	fmt.Fprintf(&b, "TEACHER FEEDBACK:\n")
	fmt.Fprintf(&b, "Strengths:\n%s\n\n", bulletList(strengths, "No strengths recorded yet"))
	fmt.Fprintf(&b, "Weaknesses:\n%s\n\n", bulletList(weaknesses, "No weaknesses recorded yet"))
	fmt.Fprintf(&b, "Areas to Improve:\n%s\n\n", bulletList(areas, "No specific areas noted"))
	fmt.Fprintf(&b, "YOUR TASK:\n")
	fmt.Fprintf(&b, "Create a study roadmap with 4-6 steps to help this student improve from %s to %s.\n\n", goal.CurrentLevel, goal.TargetLevel)
	fmt.Fprintf(&b, `REQUIREMENTS:
1. Each step should be specific and actionable
2. Prioritise addressing weaknesses while building on strengths
3. Include a mix of categories:
    - "weakness" (address weak areas)
    - "strength" (build on strong areas)
    - "level_up" (advanced skills for target level)
4. Assign realistic difficulty levels (easy/medium/hard)
5. Estimate hours needed for each step (5-15 hours)
6. For each step, include 3-5 specific checklist items
7. Consider the deadline when planning

OUTPUT FORMAT:
Respond ONLY with a JSON object (no markdown, no explanation). Use this exact structure:

{
    "title": "Brief title for the roadmap",
    "overview": "2-3 sentence overview explaining the strategy",
    "steps": [
        {
            "order": 1,
            "title": "Step title (concise, actionable)",
            "description": "Detailed explanation of what this step covers",
            "category": "weakness|strength|level_up",
            "difficulty": "easy|medium|hard",
            "estimated_hours": 8,
            "checklist": [
                "Specific action item 1",
                "Specific action item 2",
                "Specific action item 3"
            ]
        }
    ]
}

IMPORTANT:
- Create exactly 4-6 steps
- Each step should have 3-5 checklist items
- Be specific to the subject and student's needs
- Make it realistic and achievable within the timeframe
- Focus on exam success (GCSE-specific strategies)
`)

	return b.String()
}

func bulletList(entries []string, placeholder string) string {
	if len(entries) == 0 {
		return "- " + placeholder
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, "- "+entry)
	}
	return strings.Join(lines, "\n")
}

// parseRoadmapPayload strips optional markdown code fences and decodes the
// JSON body into the tagged payload schema.
func parseRoadmapPayload(raw string) (dto.RoadmapPayload, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	}
	if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	if strings.HasSuffix(text, "```") {
		text = text[:len(text)-len("```")]
	}
	text = strings.TrimSpace(text)

	var payload dto.RoadmapPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return dto.RoadmapPayload{}, generationFailed("failed to parse response: %v", err)
	}
	return payload, nil
}

// validateRoadmapPayload enforces the structural contract, failing on the
// first violation found.
func validateRoadmapPayload(payload dto.RoadmapPayload) error {
	if payload.Title == "" {
		return generationFailed("missing required field: title")
	}
	if payload.Overview == "" {
		return generationFailed("missing required field: overview")
	}
	if payload.Steps == nil {
		return generationFailed("missing required field: steps")
	}
	if len(payload.Steps) < minSteps || len(payload.Steps) > maxSteps {
		return generationFailed("expected 4-6 steps, got %d", len(payload.Steps))
	}

	for i, step := range payload.Steps {
		position := i + 1
		// Numeric fields decode to zero when absent, so a zero order or
		// hour count doubles as a missing-field signal.
		if step.Order < 1 {
			return generationFailed("step %d missing required field: order", position)
		}
		if step.Title == "" {
			return generationFailed("step %d missing required field: title", position)
		}
		if step.Description == "" {
			return generationFailed("step %d missing required field: description", position)
		}
		if !models.ValidStepCategory(step.Category) {
			return generationFailed("step %d has invalid category: %s", position, step.Category)
		}
		if !models.ValidStepDifficulty(step.Difficulty) {
			return generationFailed("step %d has invalid difficulty: %s", position, step.Difficulty)
		}
		if step.EstimatedHours < minEstimatedHours || step.EstimatedHours > maxEstimatedHours {
			return generationFailed("step %d has invalid estimated hours: %d", position, step.EstimatedHours)
		}
		if len(step.Checklist) < minChecklistItems || len(step.Checklist) > maxChecklistItems {
			return generationFailed("step %d should have 3-5 checklist items", position)
		}
	}

	return nil
}

func buildRoadmap(subjectID, goalID uint, payload dto.RoadmapPayload) *models.Roadmap {
	roadmap := &models.Roadmap{
		SubjectID:  subjectID,
		TermGoalID: goalID,
		Title:      payload.Title,
		Overview:   payload.Overview,
	}
	for _, step := range payload.Steps {
		modelStep := models.RoadmapStep{
			OrderNumber:    step.Order,
			Title:          step.Title,
			Description:    step.Description,
			Category:       step.Category,
			Difficulty:     step.Difficulty,
			EstimatedHours: step.EstimatedHours,
		}
		for _, task := range step.Checklist {
			modelStep.ChecklistItems = append(modelStep.ChecklistItems, models.ChecklistItem{
				TaskDescription: task,
			})
		}
		roadmap.Steps = append(roadmap.Steps, modelStep)
	}
	return roadmap
}

func (s *roadmapService) Detail(ctx context.Context, roadmapID, userID uint) (dto.RoadmapDetail, error) {
	roadmap, err := s.roadmaps.FindForUser(ctx, roadmapID, userID)
	if err != nil {
		return dto.RoadmapDetail{}, err
	}
	return dto.NewRoadmapDetail(roadmap), nil
}

func (s *roadmapService) ListForStudent(ctx context.Context, studentID uint, activeOnly bool) ([]dto.RoadmapDetail, error) {
	roadmaps, err := s.roadmaps.ListForStudent(ctx, studentID, activeOnly)
	if err != nil {
		return nil, err
	}
	details := make([]dto.RoadmapDetail, 0, len(roadmaps))
	for _, roadmap := range roadmaps {
		details = append(details, dto.NewRoadmapDetail(roadmap))
	}
	return details, nil
}

func (s *roadmapService) ToggleItem(ctx context.Context, itemID, userID uint) (dto.ToggleResult, error) {
	item, err := s.roadmaps.FindItemForUser(ctx, itemID, userID)
	if err != nil {
		return dto.ToggleResult{}, err
	}

	item.Toggle(s.now())
	if err := s.roadmaps.SaveItem(ctx, &item); err != nil {
		return dto.ToggleResult{}, err
	}

	step, err := s.roadmaps.StepForItem(ctx, item.ID)
	if err != nil {
		return dto.ToggleResult{}, err
	}

	stepCounts, err := s.roadmaps.ItemCountsForStep(ctx, step.ID)
	if err != nil {
		return dto.ToggleResult{}, err
	}
	roadmapCounts, err := s.roadmaps.ItemCountsForRoadmap(ctx, step.RoadmapID)
	if err != nil {
		return dto.ToggleResult{}, err
	}

	result := dto.ToggleResult{
		ItemID:        item.ID,
		IsCompleted:   item.IsCompleted,
		CompletedAt:   item.CompletedAt,
		StepCompleted: stepCounts.Completed,
		StepTotal:     stepCounts.Total,
		RoadmapDone:   roadmapCounts.Completed,
		RoadmapTotal:  roadmapCounts.Total,
	}
	if stepCounts.Total > 0 {
		result.StepProgress = round1(float64(stepCounts.Completed) / float64(stepCounts.Total) * 100)
	}
	if roadmapCounts.Total > 0 {
		result.RoadmapProgress = round1(float64(roadmapCounts.Completed) / float64(roadmapCounts.Total) * 100)
	}

	return result, nil
}

func (s *roadmapService) Delete(ctx context.Context, roadmapID, userID uint) error {
	return s.roadmaps.Delete(ctx, roadmapID, userID)
}
