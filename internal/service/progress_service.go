package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/dto"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/observability"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/repository"
)

// streakCap bounds the walk-back when computing study streaks.
const streakCap = 365

// ProgressService computes derived metrics over sessions, roadmaps and
// checklist items. All operations are pure reads.
type ProgressService interface {
	// SubjectCompletion is the step-level percentage for the subject's active
	// roadmap: a step counts only when every checklist item is done.
	SubjectCompletion(ctx context.Context, subjectID uint) (float64, error)
	// RoadmapProgress is the item-level percentage across all steps of one
	// roadmap. Milestone and completion alerts key off this metric.
	RoadmapProgress(ctx context.Context, roadmapID uint) (float64, error)
	StudyStreak(ctx context.Context, studentID uint) (int, error)
	TotalHours(ctx context.Context, studentID uint) (float64, error)
	SubjectHours(ctx context.Context, subjectID uint) (float64, error)
	WeeklySeries(ctx context.Context, studentID uint) (dto.WeeklySeries, error)
	SubjectComparison(ctx context.Context, studentID uint) (dto.SubjectComparison, error)
	RecentActivity(ctx context.Context, studentID uint, limit int) ([]dto.ActivityEvent, error)
	Dashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
}

type progressService struct {
	subjects repository.SubjectRepository
	sessions repository.SessionRepository
	roadmaps repository.RoadmapRepository
	feedback repository.FeedbackRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewProgressService builds the metrics aggregator.
func NewProgressService(
	subjects repository.SubjectRepository,
	sessions repository.SessionRepository,
	roadmaps repository.RoadmapRepository,
	feedback repository.FeedbackRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) ProgressService {
	return &progressService{
		subjects: subjects,
		sessions: sessions,
		roadmaps: roadmaps,
		feedback: feedback,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "progress_service").Logger(),
		now:      time.Now,
	}
}

func (s *progressService) SubjectCompletion(ctx context.Context, subjectID uint) (float64, error) {
	roadmap, err := s.roadmaps.ActiveForSubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	totalSteps := len(roadmap.Steps)
	if totalSteps == 0 {
		return 0, nil
	}

	completedSteps := 0
	for _, step := range roadmap.Steps {
		if step.IsCompleted() {
			completedSteps++
		}
	}

	return round1(float64(completedSteps) / float64(totalSteps) * 100), nil
}

func (s *progressService) RoadmapProgress(ctx context.Context, roadmapID uint) (float64, error) {
	counts, err := s.roadmaps.ItemCountsForRoadmap(ctx, roadmapID)
	if err != nil {
		return 0, err
	}
	if counts.Total == 0 {
		return 0, nil
	}
	return round1(float64(counts.Completed) / float64(counts.Total) * 100), nil
}

func (s *progressService) StudyStreak(ctx context.Context, studentID uint) (int, error) {
	today := dateOnly(s.now())
	cutoff := today.AddDate(0, 0, -streakCap)

	dates, err := s.sessions.DistinctDates(ctx, studentID, cutoff)
	if err != nil {
		return 0, err
	}

	studied := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		day := dateOnly(d)
		// Future-dated sessions never contribute to the streak.
		if day.After(today) {
			continue
		}
		studied[day] = struct{}{}
	}

	streak := 0
	current := today
	for streak <= streakCap {
		if _, ok := studied[current]; !ok {
			break
		}
		streak++
		current = current.AddDate(0, 0, -1)
	}

	return streak, nil
}

func (s *progressService) TotalHours(ctx context.Context, studentID uint) (float64, error) {
	return s.sessions.TotalHoursForUser(ctx, studentID)
}

func (s *progressService) SubjectHours(ctx context.Context, subjectID uint) (float64, error) {
	return s.sessions.TotalHoursForSubject(ctx, subjectID)
}

func (s *progressService) WeeklySeries(ctx context.Context, studentID uint) (dto.WeeklySeries, error) {
	today := dateOnly(s.now())
	series := dto.WeeklySeries{
		Labels: make([]string, 0, 7),
		Hours:  make([]float64, 0, 7),
	}

	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		hours, err := s.sessions.HoursOnDate(ctx, studentID, day)
		if err != nil {
			return dto.WeeklySeries{}, err
		}
		series.Labels = append(series.Labels, day.Format("Mon"))
		series.Hours = append(series.Hours, hours)
	}

	return series, nil
}

func (s *progressService) SubjectComparison(ctx context.Context, studentID uint) (dto.SubjectComparison, error) {
	subjects, err := s.subjects.ListByUser(ctx, studentID)
	if err != nil {
		return dto.SubjectComparison{}, err
	}

	comparison := dto.SubjectComparison{
		Labels: make([]string, 0, len(subjects)),
		Hours:  make([]float64, 0, len(subjects)),
	}
	for _, subject := range subjects {
		hours, err := s.sessions.TotalHoursForSubject(ctx, subject.ID)
		if err != nil {
			return dto.SubjectComparison{}, err
		}
		if hours > 0 {
			comparison.Labels = append(comparison.Labels, subject.DisplayName())
			comparison.Hours = append(comparison.Hours, hours)
		}
	}

	return comparison, nil
}

func (s *progressService) RecentActivity(ctx context.Context, studentID uint, limit int) ([]dto.ActivityEvent, error) {
	if limit <= 0 {
		limit = 5
	}

	events := make([]dto.ActivityEvent, 0, 3*limit)

	sessions, err := s.sessions.ListRecentForUser(ctx, studentID, limit)
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		day := dateOnly(session.SessionDate)
		events = append(events, dto.ActivityEvent{
			Type:      dto.ActivityStudy,
			Text:      fmt.Sprintf("Studied %s for %g hours", session.Subject.DisplayName(), session.HoursSpent),
			Date:      day,
			Timestamp: day,
		})
	}

	feedbacks, err := s.feedback.ListLatestForStudent(ctx, studentID, limit)
	if err != nil {
		return nil, err
	}
	for _, feedback := range feedbacks {
		events = append(events, dto.ActivityEvent{
			Type:      dto.ActivityFeedback,
			Text:      fmt.Sprintf("Added feedback for %s", feedback.Subject.DisplayName()),
			Date:      dateOnly(feedback.FeedbackDate),
			Timestamp: feedback.CreatedAt,
		})
	}

	completions, err := s.roadmaps.ListRecentCompletions(ctx, studentID, limit)
	if err != nil {
		return nil, err
	}
	for _, item := range completions {
		events = append(events, dto.ActivityEvent{
			Type:      dto.ActivityCompletion,
			Text:      fmt.Sprintf("Completed: %s", truncate(item.TaskDescription, 50)),
			Date:      dateOnly(*item.CompletedAt),
			Timestamp: *item.CompletedAt,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if len(events) > limit {
		events = events[:limit]
	}

	return events, nil
}

func (s *progressService) Dashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%d", studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.DashboardCacheHits().Inc()
				s.logger.Debug().Uint("student_id", studentID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	response, err := s.buildDashboard(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *progressService) buildDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	totalHours, err := s.sessions.TotalHoursForUser(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	streak, err := s.StudyStreak(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	taskCounts, err := s.roadmaps.ItemCountsForStudent(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	completionPercentage := 0.0
	if taskCounts.Total > 0 {
		completionPercentage = round1(float64(taskCounts.Completed) / float64(taskCounts.Total) * 100)
	}

	thirtyDaysAgo := dateOnly(s.now()).AddDate(0, 0, -30)
	hoursLast30, err := s.sessions.HoursSince(ctx, studentID, thirtyDaysAgo)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	weekly, err := s.WeeklySeries(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	comparison, err := s.SubjectComparison(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	// First-encountered-wins on equal hours: the comparison order is stable.
	mostStudied := ""
	maxHours := 0.0
	for i, hours := range comparison.Hours {
		if hours > maxHours {
			maxHours = hours
			mostStudied = comparison.Labels[i]
		}
	}

	activity, err := s.RecentActivity(ctx, studentID, 5)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	subjects, err := s.subjects.ListByUser(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}
	subjectCards := make([]dto.SubjectProgress, 0, len(subjects))
	for _, subject := range subjects {
		hours, err := s.sessions.TotalHoursForSubject(ctx, subject.ID)
		if err != nil {
			return dto.StudentDashboardResponse{}, err
		}
		completion, err := s.SubjectCompletion(ctx, subject.ID)
		if err != nil {
			return dto.StudentDashboardResponse{}, err
		}
		subjectCards = append(subjectCards, dto.SubjectProgress{
			SubjectID:            subject.ID,
			Name:                 subject.Name,
			DisplayName:          subject.DisplayName(),
			TotalHours:           hours,
			CompletionPercentage: completion,
		})
	}

	return dto.StudentDashboardResponse{
		TotalHours:           round1(totalHours),
		StudyStreak:          streak,
		TotalTasks:           taskCounts.Total,
		CompletedTasks:       taskCounts.Completed,
		CompletionPercentage: completionPercentage,
		AvgDailyHours:        round1(hoursLast30 / 30),
		MostStudied:          mostStudied,
		Subjects:             subjectCards,
		WeeklySeries:         weekly,
		SubjectComparison:    comparison,
		RecentActivity:       activity,
	}, nil
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
