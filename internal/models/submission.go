package models

import "time"

// Submission statuses. The legacy system also filtered on a "logged_in"
// status that was never written; it is not carried here.
const (
	// SubmissionStatusInProgress marks an attempt still being worked on.
	SubmissionStatusInProgress = "in_progress"
	// SubmissionStatusSubmitted marks a finalized attempt.
	SubmissionStatusSubmitted = "submitted"
)

// Submission is a student's single attempt at one exam. The unique index
// on (exam_id, student_id) makes the one-attempt rule a database invariant
// instead of an application-side check.
type Submission struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ExamID      uint       `gorm:"not null;uniqueIndex:idx_exam_student" json:"exam_id"`
	StudentID   uint       `gorm:"not null;uniqueIndex:idx_exam_student" json:"student_id"`
	Status      string     `gorm:"size:32;not null" json:"status"`
	Score       *float64   `json:"score"`
	Violations  int        `gorm:"not null;default:0" json:"violations"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Exam        Exam       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"exam"`
	Student     Profile    `gorm:"foreignKey:StudentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Answers     []Answer   `gorm:"constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

// IsSubmitted reports whether the attempt reached its terminal state.
func (s Submission) IsSubmitted() bool {
	return s.Status == SubmissionStatusSubmitted
}

// RemainingSeconds computes the server-authoritative countdown from the
// persisted start time, never from client state. Floors at zero.
func (s Submission) RemainingSeconds(exam Exam, now time.Time) int {
	remaining := exam.Deadline(s.StartedAt).Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}

// Answer is the student's saved response for one question within a
// submission. Exactly one row exists per (submission, question); saving
// again overwrites the previous choice.
type Answer struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SubmissionID uint       `gorm:"not null;uniqueIndex:idx_submission_question" json:"submission_id"`
	QuestionID   uint       `gorm:"not null;uniqueIndex:idx_submission_question" json:"question_id"`
	PgOptionID   *uint      `json:"pg_option_id"`
	EssayText    string     `gorm:"type:text" json:"essay_text"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Submission   Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Question     Question   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
