package dto

import (
	"time"

	"github.com/noah-isme/cbt-go-api/internal/models"
)

// AttemptState is the student-facing view of their own submission.
type AttemptState struct {
	ID                   uint       `json:"id"`
	Status               string     `json:"status"`
	Violations           int        `json:"violations"`
	StartedAt            time.Time  `json:"started_at"`
	SubmittedAt          *time.Time `json:"submitted_at"`
	TimeRemainingSeconds int        `json:"time_remaining_sec"`
}

// NewAttemptState derives the attempt view, including the
// server-authoritative countdown.
func NewAttemptState(submission models.Submission, exam models.Exam, now time.Time) AttemptState {
	return AttemptState{
		ID:                   submission.ID,
		Status:               submission.Status,
		Violations:           submission.Violations,
		StartedAt:            submission.StartedAt,
		SubmittedAt:          submission.SubmittedAt,
		TimeRemainingSeconds: submission.RemainingSeconds(exam, now),
	}
}

// SavedAnswer echoes a stored answer back to the exam-take client so a
// resumed attempt restores previous selections.
type SavedAnswer struct {
	QuestionID uint   `json:"question_id"`
	PgOptionID *uint  `json:"pg_option_id"`
	EssayText  string `json:"essay_text,omitempty"`
}

// ExamPaperResponse is the full payload of the sanitized question endpoint.
type ExamPaperResponse struct {
	Exam       ExamLite            `json:"exam"`
	Questions  []SanitizedQuestion `json:"questions"`
	Submission AttemptState        `json:"submission"`
	Answers    []SavedAnswer       `json:"answers"`
}

// SaveAnswerRequest upserts one answer of an in-progress attempt.
type SaveAnswerRequest struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	PgOptionID *uint  `json:"pg_option_id" validate:"omitempty,gt=0"`
	EssayText  string `json:"essay_text"`
}

// ViolationResponse returns the counter after an increment.
type ViolationResponse struct {
	Violations int `json:"violations"`
}

// StudentExamEntry is one row of the student's exam list: the exam plus
// the caller's own attempt state, if any.
type StudentExamEntry struct {
	Exam       ExamLite      `json:"exam"`
	Subject    string        `json:"subject"`
	Submission *AttemptState `json:"submission"`
}
