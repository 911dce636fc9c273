package dto

import "github.com/noah-isme/cbt-go-api/internal/models"

// OptionInput is one answer choice in a question payload.
type OptionInput struct {
	Content   string `json:"content" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionInput is one question in a replace-question-set payload.
type QuestionInput struct {
	Content  string        `json:"content" validate:"required"`
	Type     string        `json:"type" validate:"required,oneof=pg essay"`
	Points   int           `json:"points" validate:"omitempty,gte=0"`
	ImageURL string        `json:"image_url" validate:"omitempty,url"`
	Options  []OptionInput `json:"options" validate:"omitempty,dive"`
}

// ReplaceQuestionsRequest swaps an exam's full question set.
type ReplaceQuestionsRequest struct {
	Questions []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// QuestionResponse is the teacher-facing question shape including
// correctness flags.
type QuestionResponse struct {
	ID       uint             `json:"id"`
	ExamID   uint             `json:"exam_id"`
	Content  string           `json:"content"`
	Type     string           `json:"type"`
	Points   int              `json:"points"`
	ImageURL string           `json:"image_url"`
	Position int              `json:"position"`
	Options  []OptionResponse `json:"options"`
}

// OptionResponse is the teacher-facing option shape.
type OptionResponse struct {
	ID        uint   `json:"id"`
	Content   string `json:"content"`
	IsCorrect bool   `json:"is_correct"`
}

// SanitizedQuestion is the student-facing question shape. It deliberately
// has no field that could carry the correctness flag.
type SanitizedQuestion struct {
	ID       uint              `json:"id"`
	Content  string            `json:"content"`
	Type     string            `json:"type"`
	Points   int               `json:"points"`
	ImageURL string            `json:"image_url"`
	Position int               `json:"position"`
	Options  []SanitizedOption `json:"options"`
}

// SanitizedOption is an option with the correctness flag stripped.
type SanitizedOption struct {
	ID      uint   `json:"id"`
	Content string `json:"content"`
}

// NewQuestionResponse converts a Question model into the teacher DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	options := make([]OptionResponse, 0, len(model.Options))
	for _, option := range model.Options {
		options = append(options, OptionResponse{ID: option.ID, Content: option.Content, IsCorrect: option.IsCorrect})
	}

	return QuestionResponse{
		ID:       model.ID,
		ExamID:   model.ExamID,
		Content:  model.Content,
		Type:     model.Type,
		Points:   model.Points,
		ImageURL: model.ImageURL,
		Position: model.Position,
		Options:  options,
	}
}

// NewQuestionResponseSlice maps a slice of questions.
func NewQuestionResponseSlice(questions []models.Question) []QuestionResponse {
	result := make([]QuestionResponse, 0, len(questions))
	for _, question := range questions {
		result = append(result, NewQuestionResponse(question))
	}
	return result
}

// NewSanitizedQuestion strips correctness data for student delivery.
func NewSanitizedQuestion(model models.Question) SanitizedQuestion {
	options := make([]SanitizedOption, 0, len(model.Options))
	for _, option := range model.Options {
		options = append(options, SanitizedOption{ID: option.ID, Content: option.Content})
	}

	return SanitizedQuestion{
		ID:       model.ID,
		Content:  model.Content,
		Type:     model.Type,
		Points:   model.Points,
		ImageURL: model.ImageURL,
		Position: model.Position,
		Options:  options,
	}
}

// NewSanitizedQuestionSlice maps a slice of questions for student delivery.
func NewSanitizedQuestionSlice(questions []models.Question) []SanitizedQuestion {
	result := make([]SanitizedQuestion, 0, len(questions))
	for _, question := range questions {
		result = append(result, NewSanitizedQuestion(question))
	}
	return result
}
