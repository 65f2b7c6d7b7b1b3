package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Ycandido0119/gcse-progress-tracker/internal/models"
)

// openTestDB returns an isolated in-memory database with the full schema
// applied. Each test gets its own named memory store.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.UserProfile{},
		&models.Subject{},
		&models.TermGoal{},
		&models.Feedback{},
		&models.StudySession{},
		&models.Roadmap{},
		&models.RoadmapStep{},
		&models.ChecklistItem{},
		&models.Resource{},
		&models.ProgressAlert{},
	))

	return db
}

func createStudent(t *testing.T, db *gorm.DB, name string) models.UserProfile {
	t.Helper()

	student := models.UserProfile{
		FullName: name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Role:     models.RoleStudent,
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func createParent(t *testing.T, db *gorm.DB, name string, students ...models.UserProfile) models.UserProfile {
	t.Helper()

	parent := models.NewParentProfile(name, strings.ToLower(strings.ReplaceAll(name, " ", "."))+"@example.com")
	require.NoError(t, db.Create(&parent).Error)
	for i := range students {
		require.NoError(t, db.Model(&parent).Association("LinkedStudents").Append(&students[i]))
	}
	return parent
}

func createSubject(t *testing.T, db *gorm.DB, userID uint, name string) models.Subject {
	t.Helper()

	subject := models.Subject{UserID: userID, Name: name}
	require.NoError(t, db.Create(&subject).Error)
	return subject
}

func createGoal(t *testing.T, db *gorm.DB, subjectID uint, deadline time.Time) models.TermGoal {
	t.Helper()

	goal := models.TermGoal{
		SubjectID:    subjectID,
		CurrentLevel: "Grade 5",
		TargetLevel:  "Grade 7",
		Term:         models.TermSpring2026,
		Deadline:     deadline,
	}
	require.NoError(t, db.Create(&goal).Error)
	return goal
}

func createSession(t *testing.T, db *gorm.DB, userID, subjectID uint, date time.Time, hours float64) models.StudySession {
	t.Helper()

	session := models.StudySession{
		UserID:      userID,
		SubjectID:   subjectID,
		HoursSpent:  hours,
		SessionDate: dateOnly(date),
	}
	require.NoError(t, db.Create(&session).Error)
	return session
}

// createRoadmap inserts an active roadmap with the given completion pattern:
// one step per entry, each entry is (items, completedItems).
func createRoadmap(t *testing.T, db *gorm.DB, subjectID, goalID uint, steps [][2]int) models.Roadmap {
	t.Helper()

	roadmap := models.Roadmap{
		SubjectID:  subjectID,
		TermGoalID: goalID,
		Title:      "Test plan",
		Overview:   "Focus on weak areas first.",
		TotalSteps: len(steps),
		IsActive:   true,
	}
	completedAt := time.Now().UTC()
	for i, pattern := range steps {
		step := models.RoadmapStep{
			OrderNumber:    i + 1,
			Title:          fmt.Sprintf("Step %d", i+1),
			Description:    "Practice",
			Category:       models.CategoryWeakness,
			Difficulty:     models.DifficultyMedium,
			EstimatedHours: 8,
		}
		for j := 0; j < pattern[0]; j++ {
			item := models.ChecklistItem{TaskDescription: fmt.Sprintf("Task %d.%d", i+1, j+1)}
			if j < pattern[1] {
				item.IsCompleted = true
				stamp := completedAt
				item.CompletedAt = &stamp
			}
			step.ChecklistItems = append(step.ChecklistItems, item)
		}
		roadmap.Steps = append(roadmap.Steps, step)
	}
	require.NoError(t, db.Create(&roadmap).Error)
	return roadmap
}

// fixedClock pins a service's notion of "now".
func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

var testCtx = context.Background()
