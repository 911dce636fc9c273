package dto

import "github.com/noah-isme/cbt-go-api/internal/models"

// SubjectRequest creates or updates a subject.
type SubjectRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

// SubjectResponse is the wire shape of a subject.
type SubjectResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// NewSubjectResponse converts a Subject model into a DTO.
func NewSubjectResponse(model models.Subject) SubjectResponse {
	return SubjectResponse{ID: model.ID, Name: model.Name}
}

// NewSubjectResponseSlice maps a slice of subjects.
func NewSubjectResponseSlice(subjects []models.Subject) []SubjectResponse {
	result := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		result = append(result, NewSubjectResponse(subject))
	}
	return result
}
