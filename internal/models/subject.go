package models

import "time"

// Fixed subject catalogue.
const (
	SubjectMaths    = "maths"
	SubjectEnglish  = "english"
	SubjectScience  = "science"
	SubjectMandarin = "mandarin"
)

var subjectDisplayNames = map[string]string{
	SubjectMaths:    "Mathematics",
	SubjectEnglish:  "English",
	SubjectScience:  "Science",
	SubjectMandarin: "Mandarin",
}

// SubjectNames returns the catalogue keys in display order.
func SubjectNames() []string {
	return []string{SubjectMaths, SubjectEnglish, SubjectScience, SubjectMandarin}
}

// ValidSubjectName reports whether name is part of the fixed catalogue.
func ValidSubjectName(name string) bool {
	_, ok := subjectDisplayNames[name]
	return ok
}

// Subject is an academic subject owned by a student account. (owner, name)
// is unique.
type Subject struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"not null;uniqueIndex:idx_subjects_owner_name" json:"user_id"`
	User        UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Name        string      `gorm:"size:20;not null;uniqueIndex:idx_subjects_owner_name" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// DisplayName resolves the catalogue key to its human-readable form.
func (s Subject) DisplayName() string {
	if display, ok := subjectDisplayNames[s.Name]; ok {
		return display
	}
	return s.Name
}
