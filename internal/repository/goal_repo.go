package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
)

// GoalRepository exposes persistence helpers for term goals.
type GoalRepository interface {
	Create(ctx context.Context, goal *models.TermGoal) error
	FindForUser(ctx context.Context, id, userID uint) (models.TermGoal, error)
	ListBySubject(ctx context.Context, subjectID uint) ([]models.TermGoal, error)
	// LatestForSubject returns the newest goal by created_at, ties broken by
	// highest id.
	LatestForSubject(ctx context.Context, subjectID uint) (models.TermGoal, error)
	// ListUpcomingForStudent returns goals across the student's subjects whose
	// deadline is on or after the given date, subject preloaded.
	ListUpcomingForStudent(ctx context.Context, studentID uint, from time.Time) ([]models.TermGoal, error)
	Update(ctx context.Context, goal *models.TermGoal) error
	Delete(ctx context.Context, id, userID uint) error
}

type goalRepository struct {
	db *gorm.DB
}

// NewGoalRepository constructs a repository backed by GORM.
func NewGoalRepository(db *gorm.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *models.TermGoal) error {
	return r.db.WithContext(ctx).Create(goal).Error
}

func (r *goalRepository) FindForUser(ctx context.Context, id, userID uint) (models.TermGoal, error) {
	var goal models.TermGoal
	err := r.db.WithContext(ctx).
		Joins("JOIN subjects ON subjects.id = term_goals.subject_id").
		Where("term_goals.id = ? AND subjects.user_id = ?", id, userID).
		First(&goal).Error
	if err != nil {
		return models.TermGoal{}, translate(err)
	}
	return goal, nil
}

func (r *goalRepository) ListBySubject(ctx context.Context, subjectID uint) ([]models.TermGoal, error) {
	var goals []models.TermGoal
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC, id DESC").
		Find(&goals).Error
	if err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *goalRepository) LatestForSubject(ctx context.Context, subjectID uint) (models.TermGoal, error) {
	var goal models.TermGoal
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at DESC, id DESC").
		First(&goal).Error
	if err != nil {
		return models.TermGoal{}, translate(err)
	}
	return goal, nil
}

func (r *goalRepository) ListUpcomingForStudent(ctx context.Context, studentID uint, from time.Time) ([]models.TermGoal, error) {
	var goals []models.TermGoal
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Joins("JOIN subjects ON subjects.id = term_goals.subject_id").
		Where("subjects.user_id = ? AND term_goals.deadline >= ?", studentID, from.UTC()).
		Order("term_goals.deadline ASC").
		Find(&goals).Error
	if err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *goalRepository) Update(ctx context.Context, goal *models.TermGoal) error {
	return r.db.WithContext(ctx).Save(goal).Error
}

func (r *goalRepository) Delete(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.TermGoal{}).
			Select("term_goals.id").
			Joins("JOIN subjects ON subjects.id = term_goals.subject_id").
			Where("term_goals.id = ? AND subjects.user_id = ?", id, userID)).
		Delete(&models.TermGoal{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
