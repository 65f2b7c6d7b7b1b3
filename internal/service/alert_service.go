package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/observability"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/repository"
)

// neverStudiedSentinel stands in for days-since-last-session when a student
// has no sessions at all, so any threshold triggers.
const neverStudiedSentinel = 999

// Milestone thresholds checked highest first; only the highest qualifying
// one fires per run.
var milestoneThresholds = []float64{100, 75, 50, 25}

// AlertService is the rule engine: six idempotent evaluators that read
// aggregated progress and write ProgressAlert rows. Each evaluator is safe to
// re-run; suppression windows (backed by the dedup key) prevent duplicates.
type AlertService interface {
	// RunAll executes every evaluator in fixed order and returns the total
	// alert count created. A failing evaluator does not abort the rest; all
	// failures are joined into the returned error.
	RunAll(ctx context.Context) (int, error)
	EvaluateLowActivity(ctx context.Context) (int, error)
	EvaluateGoalAtRisk(ctx context.Context) (int, error)
	EvaluateMilestones(ctx context.Context) (int, error)
	EvaluateRoadmapCompleted(ctx context.Context) (int, error)
	EvaluateStreakBroken(ctx context.Context) (int, error)
	EvaluateNewFeedback(ctx context.Context) (int, error)
}

type alertService struct {
	profiles repository.ProfileRepository
	sessions repository.SessionRepository
	goals    repository.GoalRepository
	roadmaps repository.RoadmapRepository
	feedback repository.FeedbackRepository
	alerts   repository.AlertRepository
	progress ProgressService
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAlertService wires the rule engine.
func NewAlertService(
	profiles repository.ProfileRepository,
	sessions repository.SessionRepository,
	goals repository.GoalRepository,
	roadmaps repository.RoadmapRepository,
	feedback repository.FeedbackRepository,
	alerts repository.AlertRepository,
	progress ProgressService,
	logger zerolog.Logger,
) AlertService {
	return &alertService{
		profiles: profiles,
		sessions: sessions,
		goals:    goals,
		roadmaps: roadmaps,
		feedback: feedback,
		alerts:   alerts,
		progress: progress,
		logger:   logger.With().Str("component", "alert_service").Logger(),
		now:      time.Now,
	}
}

func (s *alertService) RunAll(ctx context.Context) (int, error) {
	evaluators := []struct {
		name string
		run  func(context.Context) (int, error)
	}{
		{models.AlertLowActivity, s.EvaluateLowActivity},
		{models.AlertGoalAtRisk, s.EvaluateGoalAtRisk},
		{models.AlertMilestone, s.EvaluateMilestones},
		{models.AlertRoadmapCompleted, s.EvaluateRoadmapCompleted},
		{models.AlertStreakBroken, s.EvaluateStreakBroken},
		{models.AlertNewFeedback, s.EvaluateNewFeedback},
	}

	total := 0
	var failures []error
	for _, evaluator := range evaluators {
		created, err := evaluator.run(ctx)
		total += created
		if err != nil {
			s.logger.Error().Err(err).Str("rule", evaluator.name).Msg("evaluator failed")
			failures = append(failures, fmt.Errorf("%s: %w", evaluator.name, err))
			continue
		}
		if created > 0 {
			s.logger.Info().Str("rule", evaluator.name).Int("created", created).Msg("alerts created")
		}
	}

	return total, errors.Join(failures...)
}

func (s *alertService) EvaluateLowActivity(ctx context.Context) (int, error) {
	created := 0
	parents, err := s.profiles.ListParentsWithPreference(ctx, "alert_low_activity")
	if err != nil {
		return 0, err
	}

	today := dateOnly(s.now())

	for _, parent := range parents {
		for _, student := range parent.LinkedStudents {
			lastDate, err := s.sessions.LastSessionDate(ctx, student.ID)
			if err != nil {
				return created, err
			}

			daysSince := neverStudiedSentinel
			if lastDate != nil {
				daysSince = int(today.Sub(dateOnly(*lastDate)).Hours() / 24)
			}

			if daysSince < parent.AlertLowActivityDays {
				continue
			}

			window := s.now().Add(-24 * time.Hour)
			exists, err := s.alerts.Exists(ctx, repository.AlertExistsQuery{
				ParentID:     parent.ID,
				StudentID:    student.ID,
				AlertType:    models.AlertLowActivity,
				CreatedAfter: &window,
			})
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}

			alert := &models.ProgressAlert{
				ParentID:  parent.ID,
				StudentID: student.ID,
				AlertType: models.AlertLowActivity,
				Severity:  models.SeverityWarning,
				Title:     fmt.Sprintf("%s hasn't studied recently", student.FullName),
				Message: fmt.Sprintf(
					"%s hasn't logged any study sessions in the last %d days. Consider checking in to see if they need support.",
					student.FullName, daysSince),
				DedupKey: dedupKey(models.AlertLowActivity, parent.ID, student.ID, "-", today.Format("2006-01-02")),
				Metadata: datatypes.JSONMap{"days_since_study": daysSince},
			}
			if err := s.create(ctx, alert, &created); err != nil {
				return created, err
			}
		}
	}

	return created, nil
}

func (s *alertService) EvaluateGoalAtRisk(ctx context.Context) (int, error) {
	created := 0
	parents, err := s.profiles.ListParentsWithPreference(ctx, "alert_goal_at_risk")
	if err != nil {
		return 0, err
	}

	now := s.now()
	today := dateOnly(now)

	for _, parent := range parents {
		for _, student := range parent.LinkedStudents {
			goals, err := s.goals.ListUpcomingForStudent(ctx, student.ID, today)
			if err != nil {
				return created, err
			}

			for _, goal := range goals {
				daysLeft := goal.DaysRemaining(now)
				if daysLeft > parent.AlertGoalAtRiskDays || daysLeft <= 0 {
					continue
				}

				progress, err := s.goalProgress(ctx, goal.SubjectID)
				if err != nil {
					return created, err
				}
				if progress >= 50 {
					continue
				}

				subjectID := goal.SubjectID
				window := now.Add(-48 * time.Hour)
				exists, err := s.alerts.Exists(ctx, repository.AlertExistsQuery{
					ParentID:     parent.ID,
					StudentID:    student.ID,
					AlertType:    models.AlertGoalAtRisk,
					SubjectID:    &subjectID,
					CreatedAfter: &window,
				})
				if err != nil {
					return created, err
				}
				if exists {
					continue
				}

				alert := &models.ProgressAlert{
					ParentID:  parent.ID,
					StudentID: student.ID,
					SubjectID: &subjectID,
					AlertType: models.AlertGoalAtRisk,
					Severity:  models.SeverityWarning,
					Title:     fmt.Sprintf("Goal at risk: %s", goal.Subject.DisplayName()),
					Message: fmt.Sprintf(
						"%s's %s goal for %s (Level %s → %s) is at risk. Only %d days left and currently at %.0f%% progress.",
						student.FullName, goal.TermDisplay(), goal.Subject.DisplayName(),
						goal.CurrentLevel, goal.TargetLevel, daysLeft, progress),
					DedupKey: dedupKey(models.AlertGoalAtRisk, parent.ID, student.ID,
						fmt.Sprintf("sub%d", subjectID), today.Format("2006-01-02")),
					Metadata: datatypes.JSONMap{
						"days_until_deadline": daysLeft,
						"progress":            progress,
					},
				}
				if err := s.create(ctx, alert, &created); err != nil {
					return created, err
				}
			}
		}
	}

	return created, nil
}

// goalProgress is the risk metric for a term goal: item-level progress of
// the subject's active roadmap, or 0 when none exists.
func (s *alertService) goalProgress(ctx context.Context, subjectID uint) (float64, error) {
	roadmap, err := s.roadmaps.ActiveForSubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return s.progress.RoadmapProgress(ctx, roadmap.ID)
}

func (s *alertService) EvaluateMilestones(ctx context.Context) (int, error) {
	created := 0
	parents, err := s.profiles.ListParentsWithPreference(ctx, "alert_milestones")
	if err != nil {
		return 0, err
	}

	for _, parent := range parents {
		for _, student := range parent.LinkedStudents {
			roadmaps, err := s.roadmaps.ListForStudent(ctx, student.ID, true)
			if err != nil {
				return created, err
			}

			for _, roadmap := range roadmaps {
				progress, err := s.progress.RoadmapProgress(ctx, roadmap.ID)
				if err != nil {
					return created, err
				}

				for _, milestone := range milestoneThresholds {
					if progress < milestone {
						continue
					}

					roadmapID := roadmap.ID
					marker := fmt.Sprintf("%.0f%%", milestone)
					exists, err := s.alerts.Exists(ctx, repository.AlertExistsQuery{
						ParentID:      parent.ID,
						StudentID:     student.ID,
						AlertType:     models.AlertMilestone,
						RoadmapID:     &roadmapID,
						TitleContains: marker,
					})
					if err != nil {
						return created, err
					}
					if !exists {
						subjectID := roadmap.SubjectID
						alert := &models.ProgressAlert{
							ParentID:  parent.ID,
							StudentID: student.ID,
							SubjectID: &subjectID,
							RoadmapID: &roadmapID,
							AlertType: models.AlertMilestone,
							Severity:  models.SeveritySuccess,
							Title:     fmt.Sprintf("%s milestone reached!", marker),
							Message: fmt.Sprintf(
								"Great progress! %s has completed %s of their %s roadmap: '%s'.",
								student.FullName, marker, roadmap.Subject.DisplayName(), roadmap.Title),
							DedupKey: dedupKey(models.AlertMilestone, parent.ID, student.ID,
								fmt.Sprintf("rm%d", roadmapID), marker),
							Metadata: datatypes.JSONMap{"milestone": milestone, "progress": progress},
						}
						if err := s.create(ctx, alert, &created); err != nil {
							return created, err
						}
					}
					// Only the highest reached milestone is considered.
					break
				}
			}
		}
	}

	return created, nil
}

func (s *alertService) EvaluateRoadmapCompleted(ctx context.Context) (int, error) {
	created := 0
	parents, err := s.profiles.ListParentsWithPreference(ctx, "alert_roadmap_completed")
	if err != nil {
		return 0, err
	}

	for _, parent := range parents {
		for _, student := range parent.LinkedStudents {
			roadmaps, err := s.roadmaps.ListForStudent(ctx, student.ID, false)
			if err != nil {
				return created, err
			}

			for _, roadmap := range roadmaps {
				counts, err := s.roadmaps.ItemCountsForRoadmap(ctx, roadmap.ID)
				if err != nil {
					return created, err
				}
				if counts.Total == 0 || counts.Completed != counts.Total {
					continue
				}

				roadmapID := roadmap.ID
				exists, err := s.alerts.Exists(ctx, repository.AlertExistsQuery{
					ParentID:  parent.ID,
					StudentID: student.ID,
					AlertType: models.AlertRoadmapCompleted,
					RoadmapID: &roadmapID,
				})
				if err != nil {
					return created, err
				}
				if exists {
					continue
				}

				subjectID := roadmap.SubjectID
				alert := &models.ProgressAlert{
					ParentID:  parent.ID,
					StudentID: student.ID,
					SubjectID: &subjectID,
					RoadmapID: &roadmapID,
					AlertType: models.AlertRoadmapCompleted,
					Severity:  models.SeveritySuccess,
					Title:     "Roadmap completed",
					Message: fmt.Sprintf(
						"Congratulations! %s has completed their %s roadmap: '%s'. All %d tasks are done!",
						student.FullName, roadmap.Subject.DisplayName(), roadmap.Title, counts.Total),
					DedupKey: dedupKey(models.AlertRoadmapCompleted, parent.ID, student.ID,
						fmt.Sprintf("rm%d", roadmapID), "-"),
					Metadata: datatypes.JSONMap{"total_items": counts.Total},
				}
				if err := s.create(ctx, alert, &created); err != nil {
					return created, err
				}
			}
		}
	}

	return created, nil
}

func (s *alertService) EvaluateStreakBroken(ctx context.Context) (int, error) {
	created := 0
	parents, err := s.profiles.ListParentsWithPreference(ctx, "alert_streak_broken")
	if err != nil {
		return 0, err
	}

	now := s.now()
	today := dateOnly(now)
	yesterday := today.AddDate(0, 0, -1)

	for _, parent := range parents {
		for _, student := range parent.LinkedStudents {
			studiedYesterday, err := s.sessions.ExistsOnDate(ctx, student.ID, yesterday)
			if err != nil {
				return created, err
			}
			if !studiedYesterday {
				continue
			}
			studiedToday, err := s.sessions.ExistsOnDate(ctx, student.ID, today)
			if err != nil {
				return created, err
			}
			if studiedToday {
				continue
			}

			exists, err := s.alerts.Exists(ctx, repository.AlertExistsQuery{
				ParentID:      parent.ID,
				StudentID:     student.ID,
				AlertType:     models.AlertStreakBroken,
				CreatedOnDate: &now,
			})
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}

			alert := &models.ProgressAlert{
				ParentID:  parent.ID,
				StudentID: student.ID,
				AlertType: models.AlertStreakBroken,
				Severity:  models.SeverityWarning,
				Title:     "Study streak at risk",
				Message: fmt.Sprintf(
					"%s's study streak is at risk! They studied yesterday but haven't logged any study time today yet.",
					student.FullName),
				DedupKey: dedupKey(models.AlertStreakBroken, parent.ID, student.ID, "-", today.Format("2006-01-02")),
			}
			if err := s.create(ctx, alert, &created); err != nil {
				return created, err
			}
		}
	}

	return created, nil
}

func (s *alertService) EvaluateNewFeedback(ctx context.Context) (int, error) {
	created := 0
	parents, err := s.profiles.ListParentsWithPreference(ctx, "alert_new_feedback")
	if err != nil {
		return 0, err
	}

	now := s.now()
	cutoff := now.Add(-24 * time.Hour)

	for _, parent := range parents {
		for _, student := range parent.LinkedStudents {
			feedbacks, err := s.feedback.ListRecentForStudent(ctx, student.ID, cutoff)
			if err != nil {
				return created, err
			}

			for _, feedback := range feedbacks {
				subjectID := feedback.SubjectID
				exists, err := s.alerts.Exists(ctx, repository.AlertExistsQuery{
					ParentID:     parent.ID,
					StudentID:    student.ID,
					AlertType:    models.AlertNewFeedback,
					SubjectID:    &subjectID,
					CreatedAfter: &cutoff,
				})
				if err != nil {
					return created, err
				}
				if exists {
					continue
				}

				alert := &models.ProgressAlert{
					ParentID:  parent.ID,
					StudentID: student.ID,
					SubjectID: &subjectID,
					AlertType: models.AlertNewFeedback,
					Severity:  models.SeverityInfo,
					Title:     fmt.Sprintf("New teacher feedback: %s", feedback.Subject.DisplayName()),
					Message: fmt.Sprintf(
						"New feedback has been added for %s in %s. Check the parent dashboard to review strengths, weaknesses, and areas to improve.",
						student.FullName, feedback.Subject.DisplayName()),
					DedupKey: dedupKey(models.AlertNewFeedback, parent.ID, student.ID,
						fmt.Sprintf("sub%d", subjectID), dateOnly(now).Format("2006-01-02")),
				}
				if err := s.create(ctx, alert, &created); err != nil {
					return created, err
				}
			}
		}
	}

	return created, nil
}

func (s *alertService) create(ctx context.Context, alert *models.ProgressAlert, created *int) error {
	if err := s.alerts.Create(ctx, alert); err != nil {
		return err
	}
	observability.AlertsCreated().WithLabelValues(alert.AlertType).Inc()
	*created++
	return nil
}

// dedupKey builds the unique suppression key: type, parent, student, scoped
// entity and time bucket.
func dedupKey(alertType string, parentID, studentID uint, scope, bucket string) string {
	return fmt.Sprintf("%s:p%d:s%d:%s:%s", alertType, parentID, studentID, scope, bucket)
}
