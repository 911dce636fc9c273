package models

import "time"

// Classroom groups students and owns the exams scheduled for them.
type Classroom struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	GradeLevel string    `gorm:"size:64" json:"grade_level"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Students   []Profile `gorm:"foreignKey:ClassroomID" json:"students,omitempty"`
	Exams      []Exam    `gorm:"foreignKey:ClassroomID" json:"exams,omitempty"`
}
