package dto

import "time"

// StudentPerformance is one leaderboard row: a student's aggregate across
// every attempt, with a trend derived from their latest score against
// their own average.
type StudentPerformance struct {
	StudentID    uint    `json:"student_id"`
	FullName     string  `json:"full_name"`
	Classroom    string  `json:"classroom"`
	ExamsTaken   int     `json:"exams_taken"`
	AverageScore float64 `json:"average_score"`
	Trend        string  `json:"trend"`
}

// Leaderboard trend values.
const (
	TrendUp     = "up"
	TrendSteady = "steady"
	TrendDown   = "down"
)

// SchoolStatisticsResponse is the school-wide statistics page payload.
type SchoolStatisticsResponse struct {
	SchoolAverage     float64              `json:"school_average"`
	ParticipationRate float64              `json:"participation_rate"`
	Leaderboard       []StudentPerformance `json:"leaderboard"`
	GeneratedAt       time.Time            `json:"generated_at"`
}

// DashboardCounts holds the headline entity counters.
type DashboardCounts struct {
	PublishedExams int64 `json:"published_exams"`
	Students       int64 `json:"students"`
	Submitted      int64 `json:"submitted"`
	Classrooms     int64 `json:"classrooms"`
}

// DashboardStudent is one student row inside a classroom group: presence,
// the active attempt if any, and its live progress.
type DashboardStudent struct {
	StudentID      uint   `json:"student_id"`
	FullName       string `json:"full_name"`
	Status         string `json:"status"`
	ExamTitle      string `json:"exam_title,omitempty"`
	SubmissionID   *uint  `json:"submission_id,omitempty"`
	AnsweredCount  int64  `json:"answered_count"`
	TotalQuestions int64  `json:"total_questions"`
	Violations     int    `json:"violations"`
}

// Dashboard student statuses.
const (
	DashboardStatusInProgress = "in_progress"
	DashboardStatusOnline     = "online"
	DashboardStatusOffline    = "offline"
)

// ClassroomGroup is one classroom's live student list on the dashboard.
type ClassroomGroup struct {
	ClassroomID uint               `json:"classroom_id"`
	Name        string             `json:"name"`
	Students    []DashboardStudent `json:"students"`
}

// RecentSubmission is a row of the latest-submissions feed.
type RecentSubmission struct {
	SubmissionID uint       `json:"submission_id"`
	StudentName  string     `json:"student_name"`
	ExamTitle    string     `json:"exam_title"`
	Score        *float64   `json:"score"`
	SubmittedAt  *time.Time `json:"submitted_at"`
}

// DashboardResponse is the admin dashboard polling payload.
type DashboardResponse struct {
	Counts            DashboardCounts    `json:"counts"`
	Classrooms        []ClassroomGroup   `json:"classrooms"`
	RecentSubmissions []RecentSubmission `json:"recent_submissions"`
	GeneratedAt       time.Time          `json:"generated_at"`
}
