package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
)

// seedPublishedExam creates a live exam with one pg and one essay question
// and returns the pg question with its options loaded.
func seedPublishedExam(t *testing.T, db *gorm.DB, classroomID, subjectID, teacherID uint) (models.Exam, models.Question, models.Question) {
	t.Helper()

	now := time.Now().UTC()
	start := now.Add(-time.Hour)
	end := now.Add(2 * time.Hour)
	exam := models.Exam{
		Title:       "Ulangan Harian 1",
		SubjectID:   subjectID,
		ClassroomID: classroomID,
		TeacherID:   teacherID,
		Duration:    60,
		IsPublished: true,
		StartTime:   &start,
		EndTime:     &end,
	}
	require.NoError(t, db.Create(&exam).Error)

	pg := models.Question{ExamID: exam.ID, Content: "1 + 1 = ?", Type: models.QuestionTypePG, Points: 1, Position: 1}
	require.NoError(t, db.Create(&pg).Error)
	require.NoError(t, db.Create(&models.Option{QuestionID: pg.ID, Content: "2", IsCorrect: true}).Error)
	require.NoError(t, db.Create(&models.Option{QuestionID: pg.ID, Content: "3"}).Error)

	essay := models.Question{ExamID: exam.ID, Content: "Jelaskan jawabanmu.", Type: models.QuestionTypeEssay, Points: 10, Position: 2}
	require.NoError(t, db.Create(&essay).Error)

	require.NoError(t, db.Preload("Options").First(&pg, pg.ID).Error)
	return exam, pg, essay
}

func TestStudentExamFlow(t *testing.T) {
	ta := setupTestApp(t)
	_, student, classroom, subject := seedStaffAndClass(t, ta.db)
	exam, pg, essay := seedPublishedExam(t, ta.db, classroom.ID, subject.ID, 1)

	// the published exam shows up in the student's list without an attempt
	resp := ta.request(t, http.MethodGet, "/api/v1/student/exams", nil, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []dto.StudentExamEntry
	dataAs(t, decodeResponse(t, resp), &entries)
	require.Len(t, entries, 1)
	require.Equal(t, exam.ID, entries[0].Exam.ID)
	require.Nil(t, entries[0].Submission)

	// start the attempt
	resp = ta.request(t, http.MethodPost, fmt.Sprintf("/api/v1/student/exams/%d/start", exam.ID), nil, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state dto.AttemptState
	dataAs(t, decodeResponse(t, resp), &state)
	require.Equal(t, models.SubmissionStatusInProgress, state.Status)
	require.Greater(t, state.TimeRemainingSeconds, 0)

	// starting again returns the same attempt
	resp = ta.request(t, http.MethodPost, fmt.Sprintf("/api/v1/student/exams/%d/start", exam.ID), nil, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var again dto.AttemptState
	dataAs(t, decodeResponse(t, resp), &again)
	require.Equal(t, state.ID, again.ID)

	// the paper never exposes correctness flags
	resp = ta.request(t, http.MethodGet, fmt.Sprintf("/api/v1/student/exams/%d/questions", exam.ID), nil, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeResponse(t, resp)
	var paper dto.ExamPaperResponse
	dataAs(t, envelope, &paper)
	require.Len(t, paper.Questions, 2)
	require.Len(t, paper.Questions[0].Options, 2)

	rawData, marshalErr := json.Marshal(envelope.Data)
	require.NoError(t, marshalErr)
	require.NotContains(t, string(rawData), "is_correct")

	// answer the pg question correctly and the essay
	correct := pg.CorrectOption()
	require.NotNil(t, correct)
	resp = ta.request(t, http.MethodPut, fmt.Sprintf("/api/v1/student/submissions/%d/answers", state.ID), dto.SaveAnswerRequest{QuestionID: pg.ID, PgOptionID: &correct.ID}, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ta.request(t, http.MethodPut, fmt.Sprintf("/api/v1/student/submissions/%d/answers", state.ID), dto.SaveAnswerRequest{QuestionID: essay.ID, EssayText: "karena 1 ditambah 1"}, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// report a focus-loss violation
	resp = ta.request(t, http.MethodPost, fmt.Sprintf("/api/v1/student/submissions/%d/violations", state.ID), nil, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var violation dto.ViolationResponse
	dataAs(t, decodeResponse(t, resp), &violation)
	require.Equal(t, 1, violation.Violations)

	// finish and collect the graded state
	resp = ta.request(t, http.MethodPost, fmt.Sprintf("/api/v1/student/submissions/%d/finish", state.ID), nil, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var finished dto.AttemptState
	dataAs(t, decodeResponse(t, resp), &finished)
	require.Equal(t, models.SubmissionStatusSubmitted, finished.Status)
	require.NotNil(t, finished.SubmittedAt)

	var stored models.Submission
	require.NoError(t, ta.db.First(&stored, state.ID).Error)
	require.NotNil(t, stored.Score)
	require.EqualValues(t, 100, *stored.Score)

	// answering after finishing conflicts
	resp = ta.request(t, http.MethodPut, fmt.Sprintf("/api/v1/student/submissions/%d/answers", state.ID), dto.SaveAnswerRequest{QuestionID: pg.ID, PgOptionID: &correct.ID}, student.ID, models.RoleStudent)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStudentRoutesRequireStudentRole(t *testing.T) {
	ta := setupTestApp(t)
	teacher, _, _, _ := seedStaffAndClass(t, ta.db)

	resp := ta.request(t, http.MethodGet, "/api/v1/student/exams", nil, teacher.ID, models.RoleTeacher)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ta.request(t, http.MethodGet, "/api/v1/student/exams", nil, 0, "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStudentAttemptErrorMapping(t *testing.T) {
	ta := setupTestApp(t)
	_, student, classroom, subject := seedStaffAndClass(t, ta.db)

	t.Run("unknown exam is 404", func(t *testing.T) {
		resp := ta.request(t, http.MethodPost, "/api/v1/student/exams/9999/start", nil, student.ID, models.RoleStudent)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("draft exam is 403", func(t *testing.T) {
		draft := models.Exam{Title: "Draft", SubjectID: subject.ID, ClassroomID: classroom.ID, TeacherID: 1, Duration: 30}
		require.NoError(t, ta.db.Create(&draft).Error)

		resp := ta.request(t, http.MethodPost, fmt.Sprintf("/api/v1/student/exams/%d/start", draft.ID), nil, student.ID, models.RoleStudent)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("exam of another classroom is 403", func(t *testing.T) {
		other := models.Classroom{Name: "XII IPS 2"}
		require.NoError(t, ta.db.Create(&other).Error)
		foreign, _, _ := seedPublishedExam(t, ta.db, other.ID, subject.ID, 1)

		resp := ta.request(t, http.MethodPost, fmt.Sprintf("/api/v1/student/exams/%d/start", foreign.ID), nil, student.ID, models.RoleStudent)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("paper before start is 403", func(t *testing.T) {
		exam, _, _ := seedPublishedExam(t, ta.db, classroom.ID, subject.ID, 1)

		resp := ta.request(t, http.MethodGet, fmt.Sprintf("/api/v1/student/exams/%d/questions", exam.ID), nil, student.ID, models.RoleStudent)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("foreign submission is 403", func(t *testing.T) {
		exam, _, _ := seedPublishedExam(t, ta.db, classroom.ID, subject.ID, 1)
		outsider := models.Profile{FullName: "Lina", Username: "lina", Password: "x", Role: models.RoleStudent, ClassroomID: &classroom.ID}
		require.NoError(t, ta.db.Create(&outsider).Error)
		submission := models.Submission{ExamID: exam.ID, StudentID: outsider.ID, Status: models.SubmissionStatusInProgress, StartedAt: time.Now().UTC()}
		require.NoError(t, ta.db.Create(&submission).Error)

		resp := ta.request(t, http.MethodPost, fmt.Sprintf("/api/v1/student/submissions/%d/violations", submission.ID), nil, student.ID, models.RoleStudent)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
