package models

import "time"

// AccessState classifies whether an exam can be taken at a point in time.
type AccessState string

const (
	// AccessAllowed means the exam is published and inside its window.
	AccessAllowed AccessState = "allowed"
	// AccessUnpublished means the exam is still a draft.
	AccessUnpublished AccessState = "unpublished"
	// AccessTooEarly means the window has not opened yet.
	AccessTooEarly AccessState = "too_early"
	// AccessTooLate means the window has closed.
	AccessTooLate AccessState = "too_late"
)

// Exam is a timed test authored by a teacher for one classroom.
type Exam struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	SubjectID   uint       `gorm:"not null;index" json:"subject_id"`
	ClassroomID uint       `gorm:"not null;index" json:"classroom_id"`
	TeacherID   uint       `gorm:"not null;index" json:"teacher_id"`
	Duration    int        `gorm:"not null" json:"duration"`
	IsPublished bool       `gorm:"not null;default:false" json:"is_published"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Subject     Subject    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"subject"`
	Classroom   Classroom  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"classroom"`
	Questions   []Question `json:"questions,omitempty"`
}

// Access is the single source of truth for the exam access window.
// An unset start or end leaves that side of the window open.
func (e Exam) Access(now time.Time) AccessState {
	if !e.IsPublished {
		return AccessUnpublished
	}
	if e.StartTime != nil && now.Before(*e.StartTime) {
		return AccessTooEarly
	}
	if e.EndTime != nil && now.After(*e.EndTime) {
		return AccessTooLate
	}
	return AccessAllowed
}

// Deadline returns the moment an attempt started at startedAt must end.
func (e Exam) Deadline(startedAt time.Time) time.Time {
	return startedAt.Add(time.Duration(e.Duration) * time.Minute)
}
