package models

import "time"

// Question types supported by the exam engine.
const (
	// QuestionTypePG is a multiple-choice question ("pilihan ganda").
	QuestionTypePG = "pg"
	// QuestionTypeEssay is a free-text question graded manually.
	QuestionTypeEssay = "essay"
)

// Question belongs to an exam. Content is sanitized HTML and may embed
// LaTeX or reference an uploaded image.
type Question struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ExamID    uint      `gorm:"not null;index" json:"exam_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Type      string    `gorm:"size:16;not null" json:"type"`
	Points    int       `gorm:"not null;default:1" json:"points"`
	ImageURL  string    `gorm:"size:512" json:"image_url"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Exam      Exam      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Options   []Option  `json:"options,omitempty"`
}

// Option is one answer choice of a multiple-choice question.
type Option struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	QuestionID uint     `gorm:"not null;index" json:"question_id"`
	Content    string   `gorm:"type:text;not null" json:"content"`
	IsCorrect  bool     `gorm:"not null;default:false" json:"is_correct"`
	Question   Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// CorrectOption returns the option flagged correct, if any.
func (q Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}
