package dto

import (
	"time"

	"github.com/noah-isme/cbt-go-api/internal/models"
)

// SubmissionResponse is the teacher-facing attempt shape.
type SubmissionResponse struct {
	ID          uint       `json:"id"`
	ExamID      uint       `json:"exam_id"`
	StudentID   uint       `json:"student_id"`
	Status      string     `json:"status"`
	Score       *float64   `json:"score"`
	Violations  int        `json:"violations"`
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	Student     StudentLite `json:"student"`
	Exam        ExamLite    `json:"exam"`
}

// StudentLite summarizes a student without exposing credentials.
type StudentLite struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Username string `json:"username"`
}

// ScoreOverrideRequest lets a teacher set a manual score (essay grading or
// correction). A manual score wins over the derived one.
type ScoreOverrideRequest struct {
	Score float64 `json:"score" validate:"required,gte=0,lte=100"`
}

// AnswerReview is one graded answer in the submission detail view.
type AnswerReview struct {
	QuestionID      uint   `json:"question_id"`
	QuestionContent string `json:"question_content"`
	QuestionType    string `json:"question_type"`
	ChosenOptionID  *uint  `json:"chosen_option_id"`
	ChosenContent   string `json:"chosen_content"`
	CorrectOptionID *uint  `json:"correct_option_id"`
	CorrectContent  string `json:"correct_content"`
	EssayText       string `json:"essay_text,omitempty"`
	IsCorrect       *bool  `json:"is_correct"`
	NeedsGrading    bool   `json:"needs_grading"`
}

// SubmissionDetailResponse is the full review of one attempt.
type SubmissionDetailResponse struct {
	Submission     SubmissionResponse `json:"submission"`
	Answers        []AnswerReview     `json:"answers"`
	CorrectAnswers int                `json:"correct_answers"`
	TotalQuestions int                `json:"total_questions"`
	DerivedScore   float64            `json:"derived_score"`
	NeedsGrading   bool               `json:"needs_grading"`
}

// ResultStats aggregates an exam's submissions for the results dashboard.
type ResultStats struct {
	Total   int     `json:"total"`
	Average float64 `json:"average"`
	Highest float64 `json:"highest"`
	Pending int     `json:"pending"`
}

// ExamResultsResponse is the polling target of the results screen.
type ExamResultsResponse struct {
	Exam        ExamLite             `json:"exam"`
	Submissions []SubmissionResponse `json:"submissions"`
	Stats       ResultStats          `json:"stats"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:          model.ID,
		ExamID:      model.ExamID,
		StudentID:   model.StudentID,
		Status:      model.Status,
		Score:       model.Score,
		Violations:  model.Violations,
		StartedAt:   model.StartedAt,
		SubmittedAt: model.SubmittedAt,
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:       model.Student.ID,
			FullName: model.Student.FullName,
			Username: model.Student.Username,
		}
	}

	if model.Exam.ID != 0 {
		response.Exam = NewExamLite(model.Exam)
	}

	return response
}

// NewSubmissionResponseSlice maps a slice of submissions.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	result := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		result = append(result, NewSubmissionResponse(submission))
	}
	return result
}
