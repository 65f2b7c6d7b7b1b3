package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
)

// Alert preference columns the parent listing may filter on.
var parentAlertColumns = map[string]struct{}{
	"alert_low_activity":      {},
	"alert_goal_at_risk":      {},
	"alert_milestones":        {},
	"alert_roadmap_completed": {},
	"alert_streak_broken":     {},
	"alert_new_feedback":      {},
	"email_notifications":     {},
}

// ProfileRepository exposes persistence helpers for user profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.UserProfile) error
	FindByID(ctx context.Context, id uint) (models.UserProfile, error)
	// ListParentsWithPreference returns parent profiles with the given
	// preference column enabled, linked students preloaded.
	ListParentsWithPreference(ctx context.Context, column string) ([]models.UserProfile, error)
	LinkStudent(ctx context.Context, parentID, studentID uint) error
	UpdatePreferences(ctx context.Context, profile *models.UserProfile) error
	UpdateLastAlertSent(ctx context.Context, profileID uint, sentAt time.Time) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository constructs a repository backed by GORM.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepository) FindByID(ctx context.Context, id uint) (models.UserProfile, error) {
	var profile models.UserProfile
	err := r.db.WithContext(ctx).Preload("LinkedStudents").First(&profile, id).Error
	if err != nil {
		return models.UserProfile{}, translate(err)
	}
	return profile, nil
}

func (r *profileRepository) ListParentsWithPreference(ctx context.Context, column string) ([]models.UserProfile, error) {
	if _, ok := parentAlertColumns[column]; !ok {
		return nil, fmt.Errorf("unknown preference column %q", column)
	}

	var parents []models.UserProfile
	err := r.db.WithContext(ctx).
		Preload("LinkedStudents").
		Where("role = ?", models.RoleParent).
		Where(column+" = ?", true).
		Order("id ASC").
		Find(&parents).Error
	if err != nil {
		return nil, err
	}
	return parents, nil
}

func (r *profileRepository) LinkStudent(ctx context.Context, parentID, studentID uint) error {
	parent := models.UserProfile{ID: parentID}
	student := models.UserProfile{ID: studentID}
	return r.db.WithContext(ctx).Model(&parent).Association("LinkedStudents").Append(&student)
}

func (r *profileRepository) UpdatePreferences(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *profileRepository) UpdateLastAlertSent(ctx context.Context, profileID uint, sentAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("id = ?", profileID).
		Update("last_alert_sent", sentAt.UTC()).Error
}
