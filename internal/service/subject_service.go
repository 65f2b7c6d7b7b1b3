package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/dto"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/repository"
)

// Domain validation errors surfaced to handlers as 4xx responses.
var (
	ErrUnknownSubject  = errors.New("subject is not part of the catalogue")
	ErrUnknownTerm     = errors.New("term is not part of the catalogue")
	ErrFutureDate      = errors.New("date must not be in the future")
	ErrHoursOutOfRange = fmt.Errorf("hours must be between %g and %g", models.MinSessionHours, models.MaxSessionHours)
)

// SubjectService covers the student-facing CRUD surface: subjects, term
// goals, teacher feedback and study sessions.
type SubjectService interface {
	CreateSubject(ctx context.Context, userID uint, req dto.SubjectCreateRequest) (dto.SubjectResponse, error)
	GetSubject(ctx context.Context, subjectID, userID uint) (dto.SubjectResponse, error)
	ListSubjects(ctx context.Context, userID uint) ([]dto.SubjectResponse, error)
	UpdateSubject(ctx context.Context, subjectID, userID uint, req dto.SubjectUpdateRequest) (dto.SubjectResponse, error)
	DeleteSubject(ctx context.Context, subjectID, userID uint) error

	CreateGoal(ctx context.Context, subjectID, userID uint, req dto.GoalCreateRequest) (dto.GoalResponse, error)
	ListGoals(ctx context.Context, subjectID, userID uint) ([]dto.GoalResponse, error)
	DeleteGoal(ctx context.Context, goalID, userID uint) error

	CreateFeedback(ctx context.Context, subjectID, userID uint, req dto.FeedbackCreateRequest) (dto.FeedbackResponse, error)
	ListFeedback(ctx context.Context, subjectID, userID uint) ([]dto.FeedbackResponse, error)
	DeleteFeedback(ctx context.Context, feedbackID, userID uint) error

	CreateSession(ctx context.Context, userID uint, req dto.SessionCreateRequest) (dto.SessionResponse, error)
	ListSessions(ctx context.Context, subjectID, userID uint) ([]dto.SessionResponse, error)
	DeleteSession(ctx context.Context, sessionID, userID uint) error
}

type subjectService struct {
	subjects repository.SubjectRepository
	goals    repository.GoalRepository
	feedback repository.FeedbackRepository
	sessions repository.SessionRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSubjectService wires the student CRUD surface.
func NewSubjectService(
	subjects repository.SubjectRepository,
	goals repository.GoalRepository,
	feedback repository.FeedbackRepository,
	sessions repository.SessionRepository,
	logger zerolog.Logger,
) SubjectService {
	return &subjectService{
		subjects: subjects,
		goals:    goals,
		feedback: feedback,
		sessions: sessions,
		logger:   logger.With().Str("component", "subject_service").Logger(),
		now:      time.Now,
	}
}

func (s *subjectService) CreateSubject(ctx context.Context, userID uint, req dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	if !models.ValidSubjectName(req.Name) {
		return dto.SubjectResponse{}, ErrUnknownSubject
	}

	subject := models.Subject{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.subjects.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	s.logger.Info().Uint("user_id", userID).Str("subject", subject.Name).Msg("subject created")
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) GetSubject(ctx context.Context, subjectID, userID uint) (dto.SubjectResponse, error) {
	subject, err := s.subjects.FindForUser(ctx, subjectID, userID)
	if err != nil {
		return dto.SubjectResponse{}, err
	}
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) ListSubjects(ctx context.Context, userID uint) ([]dto.SubjectResponse, error) {
	subjects, err := s.subjects.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		responses = append(responses, dto.NewSubjectResponse(subject))
	}
	return responses, nil
}

func (s *subjectService) UpdateSubject(ctx context.Context, subjectID, userID uint, req dto.SubjectUpdateRequest) (dto.SubjectResponse, error) {
	subject, err := s.subjects.FindForUser(ctx, subjectID, userID)
	if err != nil {
		return dto.SubjectResponse{}, err
	}

	subject.Description = req.Description
	if err := s.subjects.Update(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) DeleteSubject(ctx context.Context, subjectID, userID uint) error {
	return s.subjects.Delete(ctx, subjectID, userID)
}

func (s *subjectService) CreateGoal(ctx context.Context, subjectID, userID uint, req dto.GoalCreateRequest) (dto.GoalResponse, error) {
	subject, err := s.subjects.FindForUser(ctx, subjectID, userID)
	if err != nil {
		return dto.GoalResponse{}, err
	}

	if !models.ValidTerm(req.Term) {
		return dto.GoalResponse{}, ErrUnknownTerm
	}

	deadline, err := time.ParseInLocation("2006-01-02", req.Deadline, time.UTC)
	if err != nil {
		return dto.GoalResponse{}, fmt.Errorf("parse deadline: %w", err)
	}

	goal := models.TermGoal{
		SubjectID:    subject.ID,
		CurrentLevel: req.CurrentLevel,
		TargetLevel:  req.TargetLevel,
		Term:         req.Term,
		Deadline:     deadline,
	}
	if err := s.goals.Create(ctx, &goal); err != nil {
		return dto.GoalResponse{}, err
	}

	return dto.NewGoalResponse(goal, s.now()), nil
}

func (s *subjectService) ListGoals(ctx context.Context, subjectID, userID uint) ([]dto.GoalResponse, error) {
	if _, err := s.subjects.FindForUser(ctx, subjectID, userID); err != nil {
		return nil, err
	}

	goals, err := s.goals.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	responses := make([]dto.GoalResponse, 0, len(goals))
	for _, goal := range goals {
		responses = append(responses, dto.NewGoalResponse(goal, now))
	}
	return responses, nil
}

func (s *subjectService) DeleteGoal(ctx context.Context, goalID, userID uint) error {
	return s.goals.Delete(ctx, goalID, userID)
}

func (s *subjectService) CreateFeedback(ctx context.Context, subjectID, userID uint, req dto.FeedbackCreateRequest) (dto.FeedbackResponse, error) {
	subject, err := s.subjects.FindForUser(ctx, subjectID, userID)
	if err != nil {
		return dto.FeedbackResponse{}, err
	}

	feedbackDate, err := time.ParseInLocation("2006-01-02", req.FeedbackDate, time.UTC)
	if err != nil {
		return dto.FeedbackResponse{}, fmt.Errorf("parse feedback date: %w", err)
	}
	if feedbackDate.After(dateOnly(s.now())) {
		return dto.FeedbackResponse{}, ErrFutureDate
	}

	feedback := models.Feedback{
		SubjectID:      subject.ID,
		Strengths:      req.Strengths,
		Weaknesses:     req.Weaknesses,
		AreasToImprove: req.AreasToImprove,
		FeedbackDate:   feedbackDate,
	}
	if err := s.feedback.Create(ctx, &feedback); err != nil {
		return dto.FeedbackResponse{}, err
	}

	return dto.NewFeedbackResponse(feedback), nil
}

func (s *subjectService) ListFeedback(ctx context.Context, subjectID, userID uint) ([]dto.FeedbackResponse, error) {
	if _, err := s.subjects.FindForUser(ctx, subjectID, userID); err != nil {
		return nil, err
	}

	feedbacks, err := s.feedback.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.FeedbackResponse, 0, len(feedbacks))
	for _, feedback := range feedbacks {
		responses = append(responses, dto.NewFeedbackResponse(feedback))
	}
	return responses, nil
}

func (s *subjectService) DeleteFeedback(ctx context.Context, feedbackID, userID uint) error {
	return s.feedback.Delete(ctx, feedbackID, userID)
}

func (s *subjectService) CreateSession(ctx context.Context, userID uint, req dto.SessionCreateRequest) (dto.SessionResponse, error) {
	subject, err := s.subjects.FindForUser(ctx, req.SubjectID, userID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	if req.HoursSpent < models.MinSessionHours || req.HoursSpent > models.MaxSessionHours {
		return dto.SessionResponse{}, ErrHoursOutOfRange
	}

	sessionDate, err := time.ParseInLocation("2006-01-02", req.SessionDate, time.UTC)
	if err != nil {
		return dto.SessionResponse{}, fmt.Errorf("parse session date: %w", err)
	}
	if sessionDate.After(dateOnly(s.now())) {
		return dto.SessionResponse{}, ErrFutureDate
	}

	session := models.StudySession{
		UserID:      userID,
		SubjectID:   subject.ID,
		HoursSpent:  req.HoursSpent,
		SessionDate: sessionDate,
		Notes:       req.Notes,
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}

	return dto.NewSessionResponse(session), nil
}

func (s *subjectService) ListSessions(ctx context.Context, subjectID, userID uint) ([]dto.SessionResponse, error) {
	if _, err := s.subjects.FindForUser(ctx, subjectID, userID); err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, dto.NewSessionResponse(session))
	}
	return responses, nil
}

func (s *subjectService) DeleteSession(ctx context.Context, sessionID, userID uint) error {
	return s.sessions.Delete(ctx, sessionID, userID)
}
