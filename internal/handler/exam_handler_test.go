package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
)

func TestExamAuthoringLifecycle(t *testing.T) {
	ta := setupTestApp(t)
	teacher, _, classroom, subject := seedStaffAndClass(t, ta.db)

	start := time.Now().UTC().Add(-time.Hour)
	end := start.Add(3 * time.Hour)
	resp := ta.request(t, http.MethodPost, "/api/v1/exams", dto.ExamCreateRequest{
		Title:       "Penilaian Akhir Semester",
		SubjectID:   subject.ID,
		ClassroomID: classroom.ID,
		Duration:    90,
		StartTime:   &start,
		EndTime:     &end,
	}, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var exam dto.ExamResponse
	dataAs(t, decodeResponse(t, resp), &exam)
	require.Equal(t, teacher.ID, exam.TeacherID)
	require.False(t, exam.IsPublished)

	// publishing an empty exam is rejected
	resp = ta.request(t, http.MethodPost, fmt.Sprintf("/api/v1/exams/%d/publish", exam.ID), nil, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// install a question set
	resp = ta.request(t, http.MethodPut, fmt.Sprintf("/api/v1/exams/%d/questions", exam.ID), dto.ReplaceQuestionsRequest{
		Questions: []dto.QuestionInput{
			{
				Content: "Ibukota Indonesia?",
				Type:    models.QuestionTypePG,
				Options: []dto.OptionInput{
					{Content: "Jakarta", IsCorrect: true},
					{Content: "Bandung"},
					{Content: "Surabaya"},
				},
			},
			{Content: "Jelaskan proses fotosintesis.", Type: models.QuestionTypeEssay, Points: 10},
		},
	}, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var questions []dto.QuestionResponse
	dataAs(t, decodeResponse(t, resp), &questions)
	require.Len(t, questions, 2)
	require.Equal(t, 1, questions[0].Position)
	require.True(t, questions[0].Options[0].IsCorrect)

	// now publish succeeds
	resp = ta.request(t, http.MethodPost, fmt.Sprintf("/api/v1/exams/%d/publish", exam.ID), nil, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var published dto.ExamResponse
	dataAs(t, decodeResponse(t, resp), &published)
	require.True(t, published.IsPublished)

	// results and monitor are reachable for the published exam
	resp = ta.request(t, http.MethodGet, fmt.Sprintf("/api/v1/exams/%d/results", exam.ID), nil, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var results dto.ExamResultsResponse
	dataAs(t, decodeResponse(t, resp), &results)
	require.Equal(t, exam.ID, results.Exam.ID)
	require.Zero(t, results.Stats.Total)
	require.Empty(t, results.Submissions)

	resp = ta.request(t, http.MethodGet, fmt.Sprintf("/api/v1/exams/%d/monitor", exam.ID), nil, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var monitor dto.ExamMonitorResponse
	dataAs(t, decodeResponse(t, resp), &monitor)
	require.Equal(t, 1, monitor.TotalStudents)
	require.Len(t, monitor.Rows, 1)
}

func TestExamCreateValidation(t *testing.T) {
	ta := setupTestApp(t)
	teacher, _, classroom, subject := seedStaffAndClass(t, ta.db)

	t.Run("short title is 400", func(t *testing.T) {
		resp := ta.request(t, http.MethodPost, "/api/v1/exams", dto.ExamCreateRequest{
			Title: "ab", SubjectID: subject.ID, ClassroomID: classroom.ID, Duration: 60,
		}, teacher.ID, models.RoleTeacher)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown subject is 422", func(t *testing.T) {
		resp := ta.request(t, http.MethodPost, "/api/v1/exams", dto.ExamCreateRequest{
			Title: "Ujian Kimia", SubjectID: 9999, ClassroomID: classroom.ID, Duration: 60,
		}, teacher.ID, models.RoleTeacher)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("inverted window is 422", func(t *testing.T) {
		start := time.Now().UTC().Add(2 * time.Hour)
		end := start.Add(-time.Hour)
		resp := ta.request(t, http.MethodPost, "/api/v1/exams", dto.ExamCreateRequest{
			Title: "Ujian Fisika", SubjectID: subject.ID, ClassroomID: classroom.ID, Duration: 60,
			StartTime: &start, EndTime: &end,
		}, teacher.ID, models.RoleTeacher)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestExamQuestionsRejectMalformedSet(t *testing.T) {
	ta := setupTestApp(t)
	teacher, _, classroom, subject := seedStaffAndClass(t, ta.db)
	exam := models.Exam{Title: "Latihan", SubjectID: subject.ID, ClassroomID: classroom.ID, TeacherID: teacher.ID, Duration: 30}
	require.NoError(t, ta.db.Create(&exam).Error)

	resp := ta.request(t, http.MethodPut, fmt.Sprintf("/api/v1/exams/%d/questions", exam.ID), dto.ReplaceQuestionsRequest{
		Questions: []dto.QuestionInput{
			{
				Content: "Soal tanpa kunci",
				Type:    models.QuestionTypePG,
				Options: []dto.OptionInput{
					{Content: "A"},
					{Content: "B"},
				},
			},
		},
	}, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.False(t, decodeResponse(t, resp).Success)
}

func TestExamRoutesRequireStaffRole(t *testing.T) {
	ta := setupTestApp(t)
	_, student, _, _ := seedStaffAndClass(t, ta.db)

	resp := ta.request(t, http.MethodGet, "/api/v1/exams", nil, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ta.request(t, http.MethodPost, "/api/v1/exams", dto.ExamCreateRequest{Title: "X"}, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestExamDeleteIsTerminal(t *testing.T) {
	ta := setupTestApp(t)
	teacher, _, classroom, subject := seedStaffAndClass(t, ta.db)
	exam := models.Exam{Title: "Sementara", SubjectID: subject.ID, ClassroomID: classroom.ID, TeacherID: teacher.ID, Duration: 30}
	require.NoError(t, ta.db.Create(&exam).Error)

	resp := ta.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/exams/%d", exam.ID), nil, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ta.request(t, http.MethodGet, fmt.Sprintf("/api/v1/exams/%d", exam.ID), nil, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
