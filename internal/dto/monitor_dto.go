package dto

import "time"

// MonitorRow is one student's live progress during an exam.
type MonitorRow struct {
	StudentID     uint       `json:"student_id"`
	FullName      string     `json:"full_name"`
	Status        string     `json:"status"`
	AnsweredCount int64      `json:"answered_count"`
	Violations    int        `json:"violations"`
	StartedAt     *time.Time `json:"started_at"`
	Online        bool       `json:"online"`
}

// ExamMonitorResponse is the live monitoring snapshot, polled by the
// teacher dashboard.
type ExamMonitorResponse struct {
	ExamID          uint         `json:"exam_id"`
	TotalStudents   int          `json:"total_students"`
	ActiveAttempts  int          `json:"active_attempts"`
	Submitted       int          `json:"submitted"`
	TotalViolations int          `json:"total_violations"`
	Rows            []MonitorRow `json:"rows"`
	GeneratedAt     time.Time    `json:"generated_at"`
}
