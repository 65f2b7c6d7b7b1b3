package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
)

// FeedbackRepository exposes persistence helpers for teacher feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	FindForUser(ctx context.Context, id, userID uint) (models.Feedback, error)
	ListBySubject(ctx context.Context, subjectID uint) ([]models.Feedback, error)
	// ListRecentForStudent returns feedback across the student's subjects
	// created on or after the cutoff, subject preloaded, newest first.
	ListRecentForStudent(ctx context.Context, studentID uint, cutoff time.Time) ([]models.Feedback, error)
	ListLatestForStudent(ctx context.Context, studentID uint, limit int) ([]models.Feedback, error)
	Update(ctx context.Context, feedback *models.Feedback) error
	Delete(ctx context.Context, id, userID uint) error
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository constructs a repository backed by GORM.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *feedbackRepository) FindForUser(ctx context.Context, id, userID uint) (models.Feedback, error) {
	var feedback models.Feedback
	err := r.db.WithContext(ctx).
		Joins("JOIN subjects ON subjects.id = feedbacks.subject_id").
		Where("feedbacks.id = ? AND subjects.user_id = ?", id, userID).
		First(&feedback).Error
	if err != nil {
		return models.Feedback{}, translate(err)
	}
	return feedback, nil
}

func (r *feedbackRepository) ListBySubject(ctx context.Context, subjectID uint) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("feedback_date DESC").
		Find(&feedbacks).Error
	if err != nil {
		return nil, err
	}
	return feedbacks, nil
}

func (r *feedbackRepository) ListRecentForStudent(ctx context.Context, studentID uint, cutoff time.Time) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Joins("JOIN subjects ON subjects.id = feedbacks.subject_id").
		Where("subjects.user_id = ? AND feedbacks.created_at >= ?", studentID, cutoff.UTC()).
		Order("feedbacks.created_at DESC").
		Find(&feedbacks).Error
	if err != nil {
		return nil, err
	}
	return feedbacks, nil
}

func (r *feedbackRepository) ListLatestForStudent(ctx context.Context, studentID uint, limit int) ([]models.Feedback, error) {
	if limit <= 0 {
		limit = 5
	}
	var feedbacks []models.Feedback
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Joins("JOIN subjects ON subjects.id = feedbacks.subject_id").
		Where("subjects.user_id = ?", studentID).
		Order("feedbacks.created_at DESC").
		Limit(limit).
		Find(&feedbacks).Error
	if err != nil {
		return nil, err
	}
	return feedbacks, nil
}

func (r *feedbackRepository) Update(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Save(feedback).Error
}

func (r *feedbackRepository) Delete(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.Feedback{}).
			Select("feedbacks.id").
			Joins("JOIN subjects ON subjects.id = feedbacks.subject_id").
			Where("feedbacks.id = ? AND subjects.user_id = ?", id, userID)).
		Delete(&models.Feedback{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
