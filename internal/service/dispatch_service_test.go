package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
	"github.com/Ycandido0119/gcse-progress-tracker/internal/repository"
	"github.com/Ycandido0119/gcse-progress-tracker/pkg/mail"
)

// captureMailer records every message and can fail for chosen recipients.
type captureMailer struct {
	sent    []mail.Message
	failFor map[string]bool
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	if m.failFor[msg.ToEmail] {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newDispatchService(db *gorm.DB, mailer mail.Mailer, now time.Time) *dispatchService {
	svc := NewDispatchService(
		repository.NewProfileRepository(db),
		repository.NewAlertRepository(db),
		mailer,
		"https://tracker.example.com/",
		zerolog.Nop(),
	)
	impl := svc.(*dispatchService)
	impl.now = fixedClock(now)
	return impl
}

func seedAlerts(t *testing.T, db *gorm.DB, parentID, studentID uint, count int) []models.ProgressAlert {
	t.Helper()
	alerts := make([]models.ProgressAlert, 0, count)
	for i := 0; i < count; i++ {
		alert := models.ProgressAlert{
			ParentID:  parentID,
			StudentID: studentID,
			AlertType: models.AlertLowActivity,
			Severity:  models.SeverityWarning,
			Title:     fmt.Sprintf("Alert %d", i+1),
			Message:   fmt.Sprintf("Message body %d", i+1),
			DedupKey:  fmt.Sprintf("test:p%d:s%d:-:%d", parentID, studentID, i+1),
		}
		require.NoError(t, db.Create(&alert).Error)
		alerts = append(alerts, alert)
	}
	return alerts
}

func TestDispatchImmediateSendsAndMarks(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	parent := createParent(t, db, "Disha Okafor", student)
	seeded := seedAlerts(t, db, parent.ID, student.ID, 2)

	mailer := &captureMailer{}
	svc := newDispatchService(db, mailer, now)

	sent, err := svc.DispatchAll(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)

	msg := mailer.sent[0]
	require.Equal(t, parent.Email, msg.ToEmail)
	require.Equal(t, "Study Progress: 2 New Alerts", msg.Subject)
	require.Contains(t, msg.TextBody, "Disha Okafor")
	require.Contains(t, msg.TextBody, "Alert 1")
	require.Contains(t, msg.HTMLBody, "https://tracker.example.com/parent/dashboard")

	for _, alert := range seeded {
		var stored models.ProgressAlert
		require.NoError(t, db.First(&stored, alert.ID).Error)
		require.True(t, stored.IsSent)
		require.NotNil(t, stored.SentAt)
	}

	var storedParent models.UserProfile
	require.NoError(t, db.First(&storedParent, parent.ID).Error)
	require.NotNil(t, storedParent.LastAlertSent)
	require.WithinDuration(t, now, *storedParent.LastAlertSent, time.Second)

	// Nothing left to send.
	sent, err = svc.DispatchAll(testCtx)
	require.NoError(t, err)
	require.Zero(t, sent)
	require.Len(t, mailer.sent, 1)
}

func TestDispatchSingleAlertSubjectLine(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	parent := createParent(t, db, "Disha Okafor", student)
	seedAlerts(t, db, parent.ID, student.ID, 1)

	mailer := &captureMailer{}
	svc := newDispatchService(db, mailer, now)

	_, err := svc.DispatchAll(testCtx)
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	require.Equal(t, "Study Alert: Alert 1", mailer.sent[0].Subject)
}

func TestDispatchWeeklyFrequencyGate(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	parent := createParent(t, db, "Disha Okafor", student)
	threeDaysAgo := now.AddDate(0, 0, -3)
	require.NoError(t, db.Model(&parent).Updates(map[string]any{
		"alert_frequency": models.FrequencyWeekly,
		"last_alert_sent": threeDaysAgo,
	}).Error)
	seedAlerts(t, db, parent.ID, student.ID, 1)

	mailer := &captureMailer{}
	svc := newDispatchService(db, mailer, now)

	// Sent three days ago: the weekly gate holds the digest back.
	sent, err := svc.DispatchAll(testCtx)
	require.NoError(t, err)
	require.Zero(t, sent)
	require.Empty(t, mailer.sent)

	// Eight days since the last digest: it goes out.
	eightDaysAgo := now.AddDate(0, 0, -8)
	require.NoError(t, db.Model(&parent).Update("last_alert_sent", eightDaysAgo).Error)

	sent, err = svc.DispatchAll(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
}

func TestDispatchDailyFrequencyGate(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	parent := createParent(t, db, "Disha Okafor", student)
	require.NoError(t, db.Model(&parent).Updates(map[string]any{
		"alert_frequency": models.FrequencyDaily,
		"last_alert_sent": now.Add(-2 * time.Hour),
	}).Error)
	seedAlerts(t, db, parent.ID, student.ID, 1)

	mailer := &captureMailer{}
	svc := newDispatchService(db, mailer, now)

	sent, err := svc.DispatchAll(testCtx)
	require.NoError(t, err)
	require.Zero(t, sent)

	require.NoError(t, db.Model(&parent).Update("last_alert_sent", now.Add(-25*time.Hour)).Error)
	sent, err = svc.DispatchAll(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)
}

func TestDispatchTruncatesDigestAtTen(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	parent := createParent(t, db, "Disha Okafor", student)
	seedAlerts(t, db, parent.ID, student.ID, 12)

	mailer := &captureMailer{}
	svc := newDispatchService(db, mailer, now)

	sent, err := svc.DispatchAll(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	msg := mailer.sent[0]
	require.Equal(t, "Study Progress: 12 New Alerts", msg.Subject)
	require.Contains(t, msg.TextBody, "12")

	displayed := 0
	for i := 1; i <= 12; i++ {
		title := fmt.Sprintf("Message body %d", i)
		if strings.Contains(msg.TextBody, title) {
			displayed++
		}
	}
	require.Equal(t, 10, displayed)

	// Every alert is marked sent, including the two beyond the display cap.
	var unsent int64
	require.NoError(t, db.Model(&models.ProgressAlert{}).
		Where("parent_id = ? AND is_sent = ?", parent.ID, false).
		Count(&unsent).Error)
	require.Zero(t, unsent)
}

func TestDispatchFailureIsolatedPerParent(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	studentA := createStudent(t, db, "Amara Okafor")
	parentA := createParent(t, db, "Disha Okafor", studentA)
	studentB := createStudent(t, db, "Ben Whitfield")
	parentB := createParent(t, db, "Carol Whitfield", studentB)
	seedAlerts(t, db, parentA.ID, studentA.ID, 1)
	seedAlerts(t, db, parentB.ID, studentB.ID, 1)

	mailer := &captureMailer{failFor: map[string]bool{parentA.Email: true}}
	svc := newDispatchService(db, mailer, now)

	sent, err := svc.DispatchAll(testCtx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
	require.Equal(t, parentB.Email, mailer.sent[0].ToEmail)

	// The failed parent's alerts stay unsent for the next run.
	var unsent int64
	require.NoError(t, db.Model(&models.ProgressAlert{}).
		Where("parent_id = ? AND is_sent = ?", parentA.ID, false).
		Count(&unsent).Error)
	require.Equal(t, int64(1), unsent)

	var storedParent models.UserProfile
	require.NoError(t, db.First(&storedParent, parentA.ID).Error)
	require.Nil(t, storedParent.LastAlertSent)
}

func TestDispatchSanitizesAlertContent(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	parent := createParent(t, db, "Disha Okafor", student)

	alert := models.ProgressAlert{
		ParentID:  parent.ID,
		StudentID: student.ID,
		AlertType: models.AlertNewFeedback,
		Severity:  models.SeverityInfo,
		Title:     `<script>alert("x")</script>Feedback added`,
		Message:   "New feedback <img src=x onerror=steal()> is in.",
		DedupKey:  fmt.Sprintf("test:p%d:s%d:-:x", parent.ID, student.ID),
	}
	require.NoError(t, db.Create(&alert).Error)

	mailer := &captureMailer{}
	svc := newDispatchService(db, mailer, now)

	_, err := svc.DispatchAll(testCtx)
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	require.NotContains(t, mailer.sent[0].HTMLBody, "<script>")
	require.NotContains(t, mailer.sent[0].HTMLBody, "onerror")
}

func TestDispatchEmailNotificationsDisabled(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	student := createStudent(t, db, "Amara Okafor")
	parent := createParent(t, db, "Disha Okafor", student)
	require.NoError(t, db.Model(&parent).Update("email_notifications", false).Error)
	seedAlerts(t, db, parent.ID, student.ID, 1)

	mailer := &captureMailer{}
	svc := newDispatchService(db, mailer, now)

	sent, err := svc.DispatchAll(testCtx)
	require.NoError(t, err)
	require.Zero(t, sent)
	require.Empty(t, mailer.sent)
}
