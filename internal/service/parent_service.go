package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/dto"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/repository"
)

// ErrNotParent guards parent-only operations.
var ErrNotParent = errors.New("account is not a parent profile")

// ParentService is the parent-facing surface: the multi-child dashboard,
// alert history and preference management.
type ParentService interface {
	Dashboard(ctx context.Context, parentID uint) (dto.ParentDashboardResponse, error)
	AlertHistory(ctx context.Context, parentID uint, filter repository.AlertHistoryFilter) (dto.AlertHistoryResponse, error)
	MarkAlertRead(ctx context.Context, alertID, parentID uint) (dto.AlertResponse, error)
	MarkAllAlertsRead(ctx context.Context, parentID uint) (int64, error)
	UpdatePreferences(ctx context.Context, parentID uint, req dto.PreferencesRequest) error
	LinkStudent(ctx context.Context, parentID, studentID uint) error
}

type parentService struct {
	profiles repository.ProfileRepository
	roadmaps repository.RoadmapRepository
	alerts   repository.AlertRepository
	progress ProgressService
	logger   zerolog.Logger
	now      func() time.Time
}

// NewParentService wires the parent surface on top of the aggregator.
func NewParentService(
	profiles repository.ProfileRepository,
	roadmaps repository.RoadmapRepository,
	alerts repository.AlertRepository,
	progress ProgressService,
	logger zerolog.Logger,
) ParentService {
	return &parentService{
		profiles: profiles,
		roadmaps: roadmaps,
		alerts:   alerts,
		progress: progress,
		logger:   logger.With().Str("component", "parent_service").Logger(),
		now:      time.Now,
	}
}

func (s *parentService) Dashboard(ctx context.Context, parentID uint) (dto.ParentDashboardResponse, error) {
	parent, err := s.profiles.FindByID(ctx, parentID)
	if err != nil {
		return dto.ParentDashboardResponse{}, err
	}
	if !parent.IsParent() {
		return dto.ParentDashboardResponse{}, ErrNotParent
	}

	response := dto.ParentDashboardResponse{
		Children:      make([]dto.ParentChildSummary, 0, len(parent.LinkedStudents)),
		TotalChildren: len(parent.LinkedStudents),
	}

	for _, student := range parent.LinkedStudents {
		snapshot, err := s.progress.Dashboard(ctx, student.ID)
		if err != nil {
			return dto.ParentDashboardResponse{}, err
		}

		active, err := s.roadmaps.ListForStudent(ctx, student.ID, true)
		if err != nil {
			return dto.ParentDashboardResponse{}, err
		}
		cards := make([]dto.RoadmapCard, 0, len(active))
		for _, roadmap := range active {
			cards = append(cards, dto.RoadmapCard{
				ID:          roadmap.ID,
				SubjectName: roadmap.Subject.DisplayName(),
				Title:       roadmap.Title,
				TotalSteps:  roadmap.TotalSteps,
				IsActive:    roadmap.IsActive,
				GeneratedAt: roadmap.GeneratedAt,
			})
		}

		response.Children = append(response.Children, dto.ParentChildSummary{
			StudentID:            student.ID,
			StudentName:          student.FullName,
			TotalHours:           snapshot.TotalHours,
			StudyStreak:          snapshot.StudyStreak,
			TotalTasks:           snapshot.TotalTasks,
			CompletedTasks:       snapshot.CompletedTasks,
			CompletionPercentage: snapshot.CompletionPercentage,
			AvgDailyHours:        snapshot.AvgDailyHours,
			ActiveRoadmaps:       cards,
			RecentActivity:       snapshot.RecentActivity,
		})
	}

	return response, nil
}

func (s *parentService) AlertHistory(ctx context.Context, parentID uint, filter repository.AlertHistoryFilter) (dto.AlertHistoryResponse, error) {
	alerts, err := s.alerts.ListForParent(ctx, parentID, filter)
	if err != nil {
		return dto.AlertHistoryResponse{}, err
	}

	total, unread, err := s.alerts.CountForParent(ctx, parentID)
	if err != nil {
		return dto.AlertHistoryResponse{}, err
	}

	return dto.AlertHistoryResponse{
		Alerts:      dto.NewAlertResponseSlice(alerts),
		TotalAlerts: total,
		UnreadCount: unread,
	}, nil
}

func (s *parentService) MarkAlertRead(ctx context.Context, alertID, parentID uint) (dto.AlertResponse, error) {
	alert, err := s.alerts.MarkRead(ctx, alertID, parentID, s.now())
	if err != nil {
		return dto.AlertResponse{}, err
	}
	return dto.NewAlertResponse(alert), nil
}

func (s *parentService) MarkAllAlertsRead(ctx context.Context, parentID uint) (int64, error) {
	return s.alerts.MarkAllRead(ctx, parentID, s.now())
}

func (s *parentService) UpdatePreferences(ctx context.Context, parentID uint, req dto.PreferencesRequest) error {
	parent, err := s.profiles.FindByID(ctx, parentID)
	if err != nil {
		return err
	}
	if !parent.IsParent() {
		return ErrNotParent
	}

	if req.EmailNotifications != nil {
		parent.EmailNotifications = *req.EmailNotifications
	}
	if req.AlertLowActivity != nil {
		parent.AlertLowActivity = *req.AlertLowActivity
	}
	if req.AlertLowActivityDays != nil {
		parent.AlertLowActivityDays = *req.AlertLowActivityDays
	}
	if req.AlertGoalAtRisk != nil {
		parent.AlertGoalAtRisk = *req.AlertGoalAtRisk
	}
	if req.AlertGoalAtRiskDays != nil {
		parent.AlertGoalAtRiskDays = *req.AlertGoalAtRiskDays
	}
	if req.AlertMilestones != nil {
		parent.AlertMilestones = *req.AlertMilestones
	}
	if req.AlertRoadmapCompleted != nil {
		parent.AlertRoadmapCompleted = *req.AlertRoadmapCompleted
	}
	if req.AlertStreakBroken != nil {
		parent.AlertStreakBroken = *req.AlertStreakBroken
	}
	if req.AlertNewFeedback != nil {
		parent.AlertNewFeedback = *req.AlertNewFeedback
	}
	if req.AlertFrequency != nil {
		parent.AlertFrequency = *req.AlertFrequency
	}

	if err := s.profiles.UpdatePreferences(ctx, &parent); err != nil {
		return err
	}

	s.logger.Info().Uint("parent_id", parentID).Msg("alert preferences updated")
	return nil
}

func (s *parentService) LinkStudent(ctx context.Context, parentID, studentID uint) error {
	parent, err := s.profiles.FindByID(ctx, parentID)
	if err != nil {
		return err
	}
	if !parent.IsParent() {
		return ErrNotParent
	}
	return s.profiles.LinkStudent(ctx, parentID, studentID)
}
