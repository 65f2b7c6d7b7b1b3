package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/repository"
)

func newAlertService(db *gorm.DB, now time.Time) *alertService {
	svc := NewAlertService(
		repository.NewProfileRepository(db),
		repository.NewSessionRepository(db),
		repository.NewGoalRepository(db),
		repository.NewRoadmapRepository(db),
		repository.NewFeedbackRepository(db),
		repository.NewAlertRepository(db),
		newProgressService(db, nil, now),
		zerolog.Nop(),
	)
	impl := svc.(*alertService)
	impl.now = fixedClock(now)
	return impl
}

func alertCount(t *testing.T, db *gorm.DB, alertType string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.ProgressAlert{}).
		Where("alert_type = ?", alertType).Count(&count).Error)
	return count
}

func loadAlerts(t *testing.T, db *gorm.DB, alertType string) []models.ProgressAlert {
	t.Helper()
	var alerts []models.ProgressAlert
	require.NoError(t, db.Where("alert_type = ?", alertType).
		Order("id ASC").Find(&alerts).Error)
	return alerts
}

func TestLowActivityFiresAndSuppresses(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	parent := createParent(t, db, "Disha Okafor", student)
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	createSession(t, db, student.ID, subject.ID, now.AddDate(0, 0, -5), 2)

	svc := newAlertService(db, now)

	created, err := svc.EvaluateLowActivity(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	// Idempotent within the suppression window.
	created, err = svc.EvaluateLowActivity(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)
	require.Equal(t, int64(1), alertCount(t, db, models.AlertLowActivity))

	alerts := loadAlerts(t, db, models.AlertLowActivity)
	require.Equal(t, parent.ID, alerts[0].ParentID)
	require.Equal(t, student.ID, alerts[0].StudentID)
	require.Equal(t, models.SeverityWarning, alerts[0].Severity)
	require.Equal(t, "Amara Okafor hasn't studied recently", alerts[0].Title)
	require.Contains(t, alerts[0].Message, "in the last 5 days")
}

func TestLowActivityBelowThresholdIsQuiet(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	createParent(t, db, "Disha Okafor", student)
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	createSession(t, db, student.ID, subject.ID, now.AddDate(0, 0, -2), 1)

	svc := newAlertService(db, now)
	created, err := svc.EvaluateLowActivity(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestLowActivityNeverStudied(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	createParent(t, db, "Disha Okafor", student)

	svc := newAlertService(db, now)
	created, err := svc.EvaluateLowActivity(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	alerts := loadAlerts(t, db, models.AlertLowActivity)
	require.Contains(t, alerts[0].Message, "in the last 999 days")
}

func TestLowActivityDisabledPreference(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	parent := createParent(t, db, "Disha Okafor", student)
	require.NoError(t, db.Model(&parent).Update("alert_low_activity", false).Error)

	svc := newAlertService(db, now)
	created, err := svc.EvaluateLowActivity(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestGoalAtRiskFiresUnderFiftyPercent(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	createParent(t, db, "Disha Okafor", student)
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	goal := createGoal(t, db, subject.ID, now.AddDate(0, 0, 10))
	createRoadmap(t, db, subject.ID, goal.ID, [][2]int{{4, 1}, {4, 0}, {4, 0}})

	svc := newAlertService(db, now)
	created, err := svc.EvaluateGoalAtRisk(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	alerts := loadAlerts(t, db, models.AlertGoalAtRisk)
	require.Equal(t, "Goal at risk: Mathematics", alerts[0].Title)
	require.Contains(t, alerts[0].Message, "Only 10 days left and currently at 8% progress.")

	// 48h suppression window.
	created, err = svc.EvaluateGoalAtRisk(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestGoalAtRiskQuietWhenOnTrack(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	createParent(t, db, "Disha Okafor", student)
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	goal := createGoal(t, db, subject.ID, now.AddDate(0, 0, 10))
	createRoadmap(t, db, subject.ID, goal.ID, [][2]int{{4, 2}, {4, 2}, {4, 2}})

	svc := newAlertService(db, now)
	created, err := svc.EvaluateGoalAtRisk(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestGoalAtRiskQuietWhenDeadlineFar(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	createParent(t, db, "Disha Okafor", student)
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	createGoal(t, db, subject.ID, now.AddDate(0, 2, 0))

	svc := newAlertService(db, now)
	created, err := svc.EvaluateGoalAtRisk(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestMilestoneHighestThresholdOnly(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	createParent(t, db, "Disha Okafor", student)
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	goal := createGoal(t, db, subject.ID, now.AddDate(0, 2, 0))

	// 6 of 10 items done: 60%, so only the 50% milestone applies.
	roadmap := createRoadmap(t, db, subject.ID, goal.ID, [][2]int{{5, 5}, {5, 1}, {0, 0}})

	svc := newAlertService(db, now)
	created, err := svc.EvaluateMilestones(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	alerts := loadAlerts(t, db, models.AlertMilestone)
	require.Equal(t, "50% milestone reached!", alerts[0].Title)

	// Re-running at the same progress creates nothing.
	created, err = svc.EvaluateMilestones(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)

	// Progress moves to 80%: exactly one new alert for the 75% threshold,
	// the earlier one untouched.
	extra := []uint{
		roadmap.Steps[1].ChecklistItems[1].ID,
		roadmap.Steps[1].ChecklistItems[2].ID,
	}
	require.NoError(t, db.Model(&models.ChecklistItem{}).
		Where("id IN ?", extra).
		Updates(map[string]any{"is_completed": true, "completed_at": now}).Error)

	created, err = svc.EvaluateMilestones(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	alerts = loadAlerts(t, db, models.AlertMilestone)
	require.Len(t, alerts, 2)
	require.Equal(t, "50% milestone reached!", alerts[0].Title)
	require.Equal(t, "75% milestone reached!", alerts[1].Title)
}

func TestRoadmapCompletedFiresOnce(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	createParent(t, db, "Disha Okafor", student)
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	goal := createGoal(t, db, subject.ID, now.AddDate(0, 2, 0))
	createRoadmap(t, db, subject.ID, goal.ID, [][2]int{{3, 3}, {3, 3}, {3, 3}})

	svc := newAlertService(db, now)
	created, err := svc.EvaluateRoadmapCompleted(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	alerts := loadAlerts(t, db, models.AlertRoadmapCompleted)
	require.Equal(t, "Roadmap completed", alerts[0].Title)
	require.Equal(t, models.SeveritySuccess, alerts[0].Severity)
	require.Contains(t, alerts[0].Message, "All 9 tasks are done!")

	// No time bucket on completion: it never fires again for this roadmap.
	later := newAlertService(db, now.AddDate(0, 0, 30))
	created, err = later.EvaluateRoadmapCompleted(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestStreakBrokenSameDaySuppression(t *testing.T) {
	db := openTestDB(t)
	// The suppression check buckets on the stored created_at, so this test
	// runs on the real clock.
	now := time.Now().UTC()
	student := createStudent(t, db, "Amara Okafor")
	createParent(t, db, "Disha Okafor", student)
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	createSession(t, db, student.ID, subject.ID, now.AddDate(0, 0, -1), 2)

	svc := newAlertService(db, now)
	created, err := svc.EvaluateStreakBroken(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	created, err = svc.EvaluateStreakBroken(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)
	require.Equal(t, int64(1), alertCount(t, db, models.AlertStreakBroken))
}

func TestStreakBrokenQuietWhenStudiedToday(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()
	student := createStudent(t, db, "Amara Okafor")
	createParent(t, db, "Disha Okafor", student)
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	createSession(t, db, student.ID, subject.ID, now.AddDate(0, 0, -1), 2)
	createSession(t, db, student.ID, subject.ID, now, 1)

	svc := newAlertService(db, now)
	created, err := svc.EvaluateStreakBroken(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestNewFeedbackWithin24Hours(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	createParent(t, db, "Disha Okafor", student)
	subject := createSubject(t, db, student.ID, models.SubjectEnglish)

	feedback := models.Feedback{
		SubjectID:    subject.ID,
		Strengths:    "Great essay structure",
		FeedbackDate: dateOnly(now),
		CreatedAt:    now.Add(-2 * time.Hour),
	}
	require.NoError(t, db.Create(&feedback).Error)

	svc := newAlertService(db, now)
	created, err := svc.EvaluateNewFeedback(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	alerts := loadAlerts(t, db, models.AlertNewFeedback)
	require.Equal(t, "New teacher feedback: English", alerts[0].Title)
	require.Equal(t, models.SeverityInfo, alerts[0].Severity)

	created, err = svc.EvaluateNewFeedback(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestNewFeedbackIgnoresOldEntries(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	createParent(t, db, "Disha Okafor", student)
	subject := createSubject(t, db, student.ID, models.SubjectEnglish)

	feedback := models.Feedback{
		SubjectID:    subject.ID,
		Strengths:    "Great essay structure",
		FeedbackDate: dateOnly(now.AddDate(0, 0, -3)),
		CreatedAt:    now.AddDate(0, 0, -3),
	}
	require.NoError(t, db.Create(&feedback).Error)

	svc := newAlertService(db, now)
	created, err := svc.EvaluateNewFeedback(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestRunAllAcrossRules(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	createParent(t, db, "Disha Okafor", student)
	subject := createSubject(t, db, student.ID, models.SubjectMaths)
	goal := createGoal(t, db, subject.ID, now.AddDate(0, 0, 10))
	createRoadmap(t, db, subject.ID, goal.ID, [][2]int{{4, 1}, {4, 0}, {4, 0}})
	createSession(t, db, student.ID, subject.ID, now.AddDate(0, 0, -5), 2)

	svc := newAlertService(db, now)
	created, err := svc.RunAll(testCtx)
	require.NoError(t, err)

	// low_activity and goal_at_risk both apply; 8% progress is under every
	// milestone threshold.
	require.Equal(t, 2, created)
	require.Equal(t, int64(1), alertCount(t, db, models.AlertLowActivity))
	require.Equal(t, int64(1), alertCount(t, db, models.AlertGoalAtRisk))
	require.Zero(t, alertCount(t, db, models.AlertMilestone))

	created, err = svc.RunAll(testCtx)
	require.NoError(t, err)
	require.Zero(t, created)
}
