package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
)

// SessionRepository exposes persistence helpers for study sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.StudySession) error
	FindForUser(ctx context.Context, id, userID uint) (models.StudySession, error)
	ListBySubject(ctx context.Context, subjectID uint) ([]models.StudySession, error)
	ListRecentForUser(ctx context.Context, userID uint, limit int) ([]models.StudySession, error)
	// DistinctDates returns the distinct session dates for a user on or after
	// the cutoff, unordered.
	DistinctDates(ctx context.Context, userID uint, cutoff time.Time) ([]time.Time, error)
	// LastSessionDate returns the most recent session date for a user, or nil
	// if the user has never logged a session.
	LastSessionDate(ctx context.Context, userID uint) (*time.Time, error)
	ExistsOnDate(ctx context.Context, userID uint, date time.Time) (bool, error)
	TotalHoursForUser(ctx context.Context, userID uint) (float64, error)
	TotalHoursForSubject(ctx context.Context, subjectID uint) (float64, error)
	HoursOnDate(ctx context.Context, userID uint, date time.Time) (float64, error)
	HoursSince(ctx context.Context, userID uint, cutoff time.Time) (float64, error)
	Update(ctx context.Context, session *models.StudySession) error
	Delete(ctx context.Context, id, userID uint) error
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository constructs a repository backed by GORM.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.StudySession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) FindForUser(ctx context.Context, id, userID uint) (models.StudySession, error) {
	var session models.StudySession
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&session).Error
	if err != nil {
		return models.StudySession{}, translate(err)
	}
	return session, nil
}

func (r *sessionRepository) ListBySubject(ctx context.Context, subjectID uint) ([]models.StudySession, error) {
	var sessions []models.StudySession
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("session_date DESC, id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) ListRecentForUser(ctx context.Context, userID uint, limit int) ([]models.StudySession, error) {
	if limit <= 0 {
		limit = 5
	}
	var sessions []models.StudySession
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("user_id = ?", userID).
		Order("session_date DESC, id DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) DistinctDates(ctx context.Context, userID uint, cutoff time.Time) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.StudySession{}).
		Where("user_id = ? AND session_date >= ?", userID, cutoff.UTC()).
		Distinct("session_date").
		Pluck("session_date", &dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}

func (r *sessionRepository) LastSessionDate(ctx context.Context, userID uint) (*time.Time, error) {
	var session models.StudySession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("session_date DESC").
		First(&session).Error
	if err != nil {
		if translate(err) == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	date := session.SessionDate
	return &date, nil
}

func (r *sessionRepository) ExistsOnDate(ctx context.Context, userID uint, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StudySession{}).
		Where("user_id = ? AND session_date = ?", userID, dateOnly(date)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *sessionRepository) TotalHoursForUser(ctx context.Context, userID uint) (float64, error) {
	return r.sumHours(ctx, "user_id = ?", userID)
}

func (r *sessionRepository) TotalHoursForSubject(ctx context.Context, subjectID uint) (float64, error) {
	return r.sumHours(ctx, "subject_id = ?", subjectID)
}

func (r *sessionRepository) HoursOnDate(ctx context.Context, userID uint, date time.Time) (float64, error) {
	return r.sumHours(ctx, "user_id = ? AND session_date = ?", userID, dateOnly(date))
}

func (r *sessionRepository) HoursSince(ctx context.Context, userID uint, cutoff time.Time) (float64, error) {
	return r.sumHours(ctx, "user_id = ? AND session_date >= ?", userID, cutoff.UTC())
}

func (r *sessionRepository) sumHours(ctx context.Context, query string, args ...interface{}) (float64, error) {
	var total *float64
	err := r.db.WithContext(ctx).
		Model(&models.StudySession{}).
		Where(query, args...).
		Select("SUM(hours_spent)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *models.StudySession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *sessionRepository) Delete(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.StudySession{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
