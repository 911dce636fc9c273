package dto

import (
	"time"

	"github.com/noah-isme/cbt-go-api/internal/models"
)

// ExamCreateRequest authors a new draft exam.
type ExamCreateRequest struct {
	Title       string     `json:"title" validate:"required,min=3"`
	Description string     `json:"description"`
	SubjectID   uint       `json:"subject_id" validate:"required,gt=0"`
	ClassroomID uint       `json:"classroom_id" validate:"required,gt=0"`
	Duration    int        `json:"duration" validate:"required,gt=0,lte=600"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
}

// ExamUpdateRequest edits a draft or published exam's metadata.
type ExamUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3"`
	Description *string    `json:"description"`
	SubjectID   *uint      `json:"subject_id" validate:"omitempty,gt=0"`
	ClassroomID *uint      `json:"classroom_id" validate:"omitempty,gt=0"`
	Duration    *int       `json:"duration" validate:"omitempty,gt=0,lte=600"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
}

// ExamListFilter describes query parameters for exam listings.
type ExamListFilter struct {
	ClassroomID *uint   `query:"classroom_id"`
	SubjectID   *uint   `query:"subject_id"`
	Published   *bool   `query:"published"`
	Search      string  `query:"search"`
	Page        int     `query:"page"`
	PageSize    int     `query:"page_size"`
	Status      *string `query:"status" validate:"omitempty,oneof=draft published"`
}

// ExamResponse is the full teacher-facing exam shape.
type ExamResponse struct {
	ID            uint               `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	SubjectID     uint               `json:"subject_id"`
	ClassroomID   uint               `json:"classroom_id"`
	TeacherID     uint               `json:"teacher_id"`
	Duration      int                `json:"duration"`
	IsPublished   bool               `json:"is_published"`
	StartTime     *time.Time         `json:"start_time"`
	EndTime       *time.Time         `json:"end_time"`
	AccessState   models.AccessState `json:"access_state"`
	Subject       SubjectResponse    `json:"subject"`
	Classroom     ClassroomResponse  `json:"classroom"`
	QuestionCount int64              `json:"question_count"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ExamLite is the compact exam shape embedded in other responses.
type ExamLite struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Duration    int                `json:"duration"`
	IsPublished bool               `json:"is_published"`
	StartTime   *time.Time         `json:"start_time"`
	EndTime     *time.Time         `json:"end_time"`
	AccessState models.AccessState `json:"access_state"`
}

// NewExamResponse converts an Exam model into a DTO, stamping the access
// state as of now so clients never re-derive the window themselves.
func NewExamResponse(model models.Exam, questionCount int64, now time.Time) ExamResponse {
	return ExamResponse{
		ID:            model.ID,
		Title:         model.Title,
		Description:   model.Description,
		SubjectID:     model.SubjectID,
		ClassroomID:   model.ClassroomID,
		TeacherID:     model.TeacherID,
		Duration:      model.Duration,
		IsPublished:   model.IsPublished,
		StartTime:     model.StartTime,
		EndTime:       model.EndTime,
		AccessState:   model.Access(now),
		Subject:       NewSubjectResponse(model.Subject),
		Classroom:     NewClassroomResponse(model.Classroom),
		QuestionCount: questionCount,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewExamLite builds the compact exam shape.
func NewExamLite(model models.Exam) ExamLite {
	return ExamLite{
		ID:          model.ID,
		Title:       model.Title,
		Duration:    model.Duration,
		IsPublished: model.IsPublished,
		StartTime:   model.StartTime,
		EndTime:     model.EndTime,
		AccessState: model.Access(time.Now()),
	}
}
