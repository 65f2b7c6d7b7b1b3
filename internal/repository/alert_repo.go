package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
)

// likeEscaper makes LIKE arguments match literally. Milestone markers carry
// a % sign which would otherwise act as a wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// AlertExistsQuery describes a suppression-window lookup. Zero-value fields
// are not applied.
type AlertExistsQuery struct {
	ParentID      uint
	StudentID     uint
	AlertType     string
	SubjectID     *uint
	RoadmapID     *uint
	CreatedAfter  *time.Time
	CreatedOnDate *time.Time
	TitleContains string
}

// AlertHistoryFilter narrows a parent's alert history listing.
type AlertHistoryFilter struct {
	AlertType  string
	StudentID  *uint
	UnreadOnly bool
	Limit      int
}

// AlertRepository exposes persistence helpers for progress alerts.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.ProgressAlert) error
	Exists(ctx context.Context, query AlertExistsQuery) (bool, error)
	ListUnsentForParent(ctx context.Context, parentID uint) ([]models.ProgressAlert, error)
	MarkSent(ctx context.Context, ids []uint, sentAt time.Time) error
	MarkRead(ctx context.Context, id, parentID uint, readAt time.Time) (models.ProgressAlert, error)
	MarkAllRead(ctx context.Context, parentID uint, readAt time.Time) (int64, error)
	ListForParent(ctx context.Context, parentID uint, filter AlertHistoryFilter) ([]models.ProgressAlert, error)
	CountForParent(ctx context.Context, parentID uint) (total, unread int64, err error)
}

type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository constructs a repository backed by GORM.
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *models.ProgressAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *alertRepository) Exists(ctx context.Context, query AlertExistsQuery) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.ProgressAlert{}).
		Where("parent_id = ? AND student_id = ? AND alert_type = ?", query.ParentID, query.StudentID, query.AlertType)

	if query.SubjectID != nil {
		q = q.Where("subject_id = ?", *query.SubjectID)
	}
	if query.RoadmapID != nil {
		q = q.Where("roadmap_id = ?", *query.RoadmapID)
	}
	if query.CreatedAfter != nil {
		q = q.Where("created_at >= ?", query.CreatedAfter.UTC())
	}
	if query.CreatedOnDate != nil {
		dayStart := dateOnly(*query.CreatedOnDate)
		q = q.Where("created_at >= ? AND created_at < ?", dayStart, dayStart.Add(24*time.Hour))
	}
	if query.TitleContains != "" {
		q = q.Where("title LIKE ? ESCAPE '\\'", "%"+escapeLike(query.TitleContains)+"%")
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *alertRepository) ListUnsentForParent(ctx context.Context, parentID uint) ([]models.ProgressAlert, error) {
	var alerts []models.ProgressAlert
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("parent_id = ? AND is_sent = ?", parentID, false).
		Order("created_at DESC, id DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepository) MarkSent(ctx context.Context, ids []uint, sentAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ProgressAlert{}).
		Where("id IN ? AND is_sent = ?", ids, false).
		Updates(map[string]interface{}{
			"is_sent": true,
			"sent_at": sentAt.UTC(),
		}).Error
}

func (r *alertRepository) MarkRead(ctx context.Context, id, parentID uint, readAt time.Time) (models.ProgressAlert, error) {
	var alert models.ProgressAlert
	err := r.db.WithContext(ctx).
		Where("id = ? AND parent_id = ?", id, parentID).
		First(&alert).Error
	if err != nil {
		return models.ProgressAlert{}, translate(err)
	}

	if alert.IsRead {
		return alert, nil
	}

	alert.MarkRead(readAt)
	if err := r.db.WithContext(ctx).Save(&alert).Error; err != nil {
		return models.ProgressAlert{}, err
	}
	return alert, nil
}

func (r *alertRepository) MarkAllRead(ctx context.Context, parentID uint, readAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProgressAlert{}).
		Where("parent_id = ? AND is_read = ?", parentID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": readAt.UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *alertRepository) ListForParent(ctx context.Context, parentID uint, filter AlertHistoryFilter) ([]models.ProgressAlert, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	q := r.db.WithContext(ctx).
		Preload("Student").
		Where("parent_id = ?", parentID)
	if filter.AlertType != "" {
		q = q.Where("alert_type = ?", filter.AlertType)
	}
	if filter.StudentID != nil {
		q = q.Where("student_id = ?", *filter.StudentID)
	}
	if filter.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var alerts []models.ProgressAlert
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepository) CountForParent(ctx context.Context, parentID uint) (int64, int64, error) {
	var total, unread int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProgressAlert{}).
		Where("parent_id = ?", parentID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ProgressAlert{}).
		Where("parent_id = ? AND is_read = ?", parentID, false).
		Count(&unread).Error; err != nil {
		return 0, 0, err
	}
	return total, unread, nil
}
