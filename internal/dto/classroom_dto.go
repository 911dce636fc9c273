package dto

import (
	"time"

	"github.com/noah-isme/cbt-go-api/internal/models"
)

// ClassroomRequest creates or updates a classroom.
type ClassroomRequest struct {
	Name       string `json:"name" validate:"required,min=2"`
	GradeLevel string `json:"grade_level" validate:"omitempty,max=64"`
}

// ClassroomResponse is the wire shape of a classroom.
type ClassroomResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	GradeLevel   string `json:"grade_level"`
	StudentCount int    `json:"student_count,omitempty"`
}

// ClassroomDetailResponse adds the roster and scheduled exams.
type ClassroomDetailResponse struct {
	ClassroomResponse
	Students []ProfileResponse `json:"students"`
	Exams    []ExamLite        `json:"exams"`
}

// NewClassroomResponse converts a Classroom model into a DTO.
func NewClassroomResponse(model models.Classroom) ClassroomResponse {
	return ClassroomResponse{
		ID:           model.ID,
		Name:         model.Name,
		GradeLevel:   model.GradeLevel,
		StudentCount: len(model.Students),
	}
}

// NewClassroomDetailResponse builds the detail view.
func NewClassroomDetailResponse(model models.Classroom, now time.Time, presenceWindow time.Duration) ClassroomDetailResponse {
	detail := ClassroomDetailResponse{
		ClassroomResponse: NewClassroomResponse(model),
		Students:          NewProfileResponseSlice(model.Students, now, presenceWindow),
		Exams:             make([]ExamLite, 0, len(model.Exams)),
	}

	for _, exam := range model.Exams {
		detail.Exams = append(detail.Exams, NewExamLite(exam))
	}

	return detail
}
