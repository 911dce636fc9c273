package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
)

func TestStatisticsEndpoints(t *testing.T) {
	ta := setupTestApp(t)
	teacher, student, classroom, subject := seedStaffAndClass(t, ta.db)

	exam := models.Exam{Title: "PAS Fisika", SubjectID: subject.ID, ClassroomID: classroom.ID, TeacherID: teacher.ID, Duration: 60, IsPublished: true}
	require.NoError(t, ta.db.Create(&exam).Error)

	score := 80.0
	started := time.Now().Add(-time.Hour)
	done := started.Add(40 * time.Minute)
	require.NoError(t, ta.db.Create(&models.Submission{
		ExamID:      exam.ID,
		StudentID:   student.ID,
		Status:      models.SubmissionStatusSubmitted,
		Score:       &score,
		StartedAt:   started,
		SubmittedAt: &done,
	}).Error)

	resp := ta.request(t, http.MethodGet, "/api/v1/statistics", nil, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats dto.SchoolStatisticsResponse
	dataAs(t, decodeResponse(t, resp), &stats)
	require.Equal(t, 80.0, stats.SchoolAverage)
	require.Equal(t, 100.0, stats.ParticipationRate)
	require.Len(t, stats.Leaderboard, 1)
	require.Equal(t, student.FullName, stats.Leaderboard[0].FullName)
	require.Equal(t, classroom.Name, stats.Leaderboard[0].Classroom)

	resp = ta.request(t, http.MethodGet, "/api/v1/statistics/dashboard", nil, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dashboard dto.DashboardResponse
	dataAs(t, decodeResponse(t, resp), &dashboard)
	require.EqualValues(t, 1, dashboard.Counts.PublishedExams)
	require.EqualValues(t, 1, dashboard.Counts.Students)
	require.EqualValues(t, 1, dashboard.Counts.Submitted)
	require.Len(t, dashboard.RecentSubmissions, 1)
	require.Equal(t, exam.Title, dashboard.RecentSubmissions[0].ExamTitle)
}

func TestStatisticsRequireStaffRole(t *testing.T) {
	ta := setupTestApp(t)
	_, student, _, _ := seedStaffAndClass(t, ta.db)

	resp := ta.request(t, http.MethodGet, "/api/v1/statistics", nil, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ta.request(t, http.MethodGet, "/api/v1/statistics/dashboard", nil, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
