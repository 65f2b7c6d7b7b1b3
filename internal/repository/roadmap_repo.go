package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
)

// ItemCounts groups checklist item tallies for a scope.
type ItemCounts struct {
	Total     int64
	Completed int64
}

// RoadmapRepository exposes persistence helpers for roadmaps, steps and
// checklist items.
type RoadmapRepository interface {
	// Replace atomically deactivates the subject's active roadmaps and
	// inserts the new roadmap with its steps and checklist items. On failure
	// nothing changes and the previously active roadmap stays active.
	Replace(ctx context.Context, roadmap *models.Roadmap) error
	FindForUser(ctx context.Context, id, userID uint) (models.Roadmap, error)
	ActiveForSubject(ctx context.Context, subjectID uint) (models.Roadmap, error)
	ListForStudent(ctx context.Context, studentID uint, activeOnly bool) ([]models.Roadmap, error)
	Delete(ctx context.Context, id, userID uint) error

	ItemCountsForRoadmap(ctx context.Context, roadmapID uint) (ItemCounts, error)
	ItemCountsForStep(ctx context.Context, stepID uint) (ItemCounts, error)
	ItemCountsForStudent(ctx context.Context, studentID uint) (ItemCounts, error)

	FindItemForUser(ctx context.Context, itemID, userID uint) (models.ChecklistItem, error)
	SaveItem(ctx context.Context, item *models.ChecklistItem) error
	ListRecentCompletions(ctx context.Context, studentID uint, limit int) ([]models.ChecklistItem, error)
	StepForItem(ctx context.Context, itemID uint) (models.RoadmapStep, error)
}

type roadmapRepository struct {
	db *gorm.DB
}

// NewRoadmapRepository constructs a repository backed by GORM.
func NewRoadmapRepository(db *gorm.DB) RoadmapRepository {
	return &roadmapRepository{db: db}
}

func (r *roadmapRepository) Replace(ctx context.Context, roadmap *models.Roadmap) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Roadmap{}).
			Where("subject_id = ? AND is_active = ?", roadmap.SubjectID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		roadmap.IsActive = true
		roadmap.TotalSteps = len(roadmap.Steps)
		return tx.Create(roadmap).Error
	})
}

func (r *roadmapRepository) FindForUser(ctx context.Context, id, userID uint) (models.Roadmap, error) {
	var roadmap models.Roadmap
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("order_number ASC") }).
		Preload("Steps.ChecklistItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Steps.Resources").
		Preload("TermGoal").
		Joins("JOIN subjects ON subjects.id = roadmaps.subject_id").
		Where("roadmaps.id = ? AND subjects.user_id = ?", id, userID).
		First(&roadmap).Error
	if err != nil {
		return models.Roadmap{}, translate(err)
	}
	return roadmap, nil
}

func (r *roadmapRepository) ActiveForSubject(ctx context.Context, subjectID uint) (models.Roadmap, error) {
	var roadmap models.Roadmap
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("order_number ASC") }).
		Preload("Steps.ChecklistItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("subject_id = ? AND is_active = ?", subjectID, true).
		Order("generated_at DESC").
		First(&roadmap).Error
	if err != nil {
		return models.Roadmap{}, translate(err)
	}
	return roadmap, nil
}

func (r *roadmapRepository) ListForStudent(ctx context.Context, studentID uint, activeOnly bool) ([]models.Roadmap, error) {
	query := r.db.WithContext(ctx).
		Preload("Subject").
		Joins("JOIN subjects ON subjects.id = roadmaps.subject_id").
		Where("subjects.user_id = ?", studentID)
	if activeOnly {
		query = query.Where("roadmaps.is_active = ?", true)
	}

	var roadmaps []models.Roadmap
	if err := query.Order("roadmaps.generated_at DESC").Find(&roadmaps).Error; err != nil {
		return nil, err
	}
	return roadmaps, nil
}

func (r *roadmapRepository) Delete(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.Roadmap{}).
			Select("roadmaps.id").
			Joins("JOIN subjects ON subjects.id = roadmaps.subject_id").
			Where("roadmaps.id = ? AND subjects.user_id = ?", id, userID)).
		Delete(&models.Roadmap{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *roadmapRepository) ItemCountsForRoadmap(ctx context.Context, roadmapID uint) (ItemCounts, error) {
	base := r.db.WithContext(ctx).
		Model(&models.ChecklistItem{}).
		Joins("JOIN roadmap_steps ON roadmap_steps.id = checklist_items.roadmap_step_id").
		Where("roadmap_steps.roadmap_id = ?", roadmapID)
	return r.countItems(base)
}

func (r *roadmapRepository) ItemCountsForStep(ctx context.Context, stepID uint) (ItemCounts, error) {
	base := r.db.WithContext(ctx).
		Model(&models.ChecklistItem{}).
		Where("roadmap_step_id = ?", stepID)
	return r.countItems(base)
}

func (r *roadmapRepository) ItemCountsForStudent(ctx context.Context, studentID uint) (ItemCounts, error) {
	base := r.db.WithContext(ctx).
		Model(&models.ChecklistItem{}).
		Joins("JOIN roadmap_steps ON roadmap_steps.id = checklist_items.roadmap_step_id").
		Joins("JOIN roadmaps ON roadmaps.id = roadmap_steps.roadmap_id").
		Joins("JOIN subjects ON subjects.id = roadmaps.subject_id").
		Where("subjects.user_id = ?", studentID)
	return r.countItems(base)
}

func (r *roadmapRepository) countItems(base *gorm.DB) (ItemCounts, error) {
	var counts ItemCounts
	if err := base.Session(&gorm.Session{}).Count(&counts.Total).Error; err != nil {
		return ItemCounts{}, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("checklist_items.is_completed = ?", true).
		Count(&counts.Completed).Error; err != nil {
		return ItemCounts{}, err
	}
	return counts, nil
}

func (r *roadmapRepository) FindItemForUser(ctx context.Context, itemID, userID uint) (models.ChecklistItem, error) {
	var item models.ChecklistItem
	err := r.db.WithContext(ctx).
		Joins("JOIN roadmap_steps ON roadmap_steps.id = checklist_items.roadmap_step_id").
		Joins("JOIN roadmaps ON roadmaps.id = roadmap_steps.roadmap_id").
		Joins("JOIN subjects ON subjects.id = roadmaps.subject_id").
		Where("checklist_items.id = ? AND subjects.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return models.ChecklistItem{}, translate(err)
	}
	return item, nil
}

func (r *roadmapRepository) SaveItem(ctx context.Context, item *models.ChecklistItem) error {
	// Full save so a nil completed_at clears the column.
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: false}).Save(item).Error
}

func (r *roadmapRepository) ListRecentCompletions(ctx context.Context, studentID uint, limit int) ([]models.ChecklistItem, error) {
	if limit <= 0 {
		limit = 5
	}
	var items []models.ChecklistItem
	err := r.db.WithContext(ctx).
		Joins("JOIN roadmap_steps ON roadmap_steps.id = checklist_items.roadmap_step_id").
		Joins("JOIN roadmaps ON roadmaps.id = roadmap_steps.roadmap_id").
		Joins("JOIN subjects ON subjects.id = roadmaps.subject_id").
		Where("subjects.user_id = ? AND checklist_items.is_completed = ? AND checklist_items.completed_at IS NOT NULL", studentID, true).
		Order("checklist_items.completed_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *roadmapRepository) StepForItem(ctx context.Context, itemID uint) (models.RoadmapStep, error) {
	var step models.RoadmapStep
	err := r.db.WithContext(ctx).
		Joins("JOIN checklist_items ON checklist_items.roadmap_step_id = roadmap_steps.id").
		Where("checklist_items.id = ?", itemID).
		First(&step).Error
	if err != nil {
		return models.RoadmapStep{}, translate(err)
	}
	return step, nil
}
