package models

import "time"

// Term catalogue.
const (
	TermAutumn2025 = "autumn_2025"
	TermSpring2026 = "spring_2026"
	TermSummer2026 = "summer_2026"
)

var termDisplayNames = map[string]string{
	TermAutumn2025: "Autumn 2025",
	TermSpring2026: "Spring 2026",
	TermSummer2026: "Summer 2026",
}

// ValidTerm reports whether term is part of the fixed catalogue.
func ValidTerm(term string) bool {
	_, ok := termDisplayNames[term]
	return ok
}

// TermGoal is an academic target for a subject within a term. A subject may
// hold several; the latest is the one with the newest created_at, ties broken
// by highest id.
type TermGoal struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubjectID    uint      `gorm:"not null;index" json:"subject_id"`
	Subject      Subject   `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"-"`
	CurrentLevel string    `gorm:"size:50;not null" json:"current_level"`
	TargetLevel  string    `gorm:"size:50;not null" json:"target_level"`
	Term         string    `gorm:"size:20;not null" json:"term"`
	Deadline     time.Time `gorm:"type:date;not null" json:"deadline"`
	CreatedAt    time.Time `json:"created_at"`
}

// TermDisplay resolves the term key to its human-readable form.
func (g TermGoal) TermDisplay() string {
	if display, ok := termDisplayNames[g.Term]; ok {
		return display
	}
	return g.Term
}

// DaysRemaining returns whole days between now's date and the deadline.
func (g TermGoal) DaysRemaining(now time.Time) int {
	deadline := dateOf(g.Deadline)
	today := dateOf(now)
	return int(deadline.Sub(today).Hours() / 24)
}

// IsOverdue reports whether the deadline has passed.
func (g TermGoal) IsOverdue(now time.Time) bool {
	return dateOf(now).After(dateOf(g.Deadline))
}

// dateOf truncates a timestamp to its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
