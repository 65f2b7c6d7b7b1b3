package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
)

// ErrDuplicateSubject is returned when the (owner, name) uniqueness invariant
// would be violated.
var ErrDuplicateSubject = errors.New("subject already exists for this student")

// SubjectRepository exposes persistence helpers for subjects.
type SubjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) error
	FindForUser(ctx context.Context, id, userID uint) (models.Subject, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Subject, error)
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id, userID uint) error
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository constructs a repository backed by GORM.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Subject{}).
		Where("user_id = ? AND name = ?", subject.UserID, subject.Name).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateSubject
	}

	err := r.db.WithContext(ctx).Create(subject).Error
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
		return ErrDuplicateSubject
	}
	return err
}

func (r *subjectRepository) FindForUser(ctx context.Context, id, userID uint) (models.Subject, error) {
	var subject models.Subject
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&subject).Error
	if err != nil {
		return models.Subject{}, translate(err)
	}
	return subject, nil
}

func (r *subjectRepository) ListByUser(ctx context.Context, userID uint) ([]models.Subject, error) {
	var subjects []models.Subject
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&subjects).Error
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *subjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Save(subject).Error
}

func (r *subjectRepository) Delete(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Subject{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
