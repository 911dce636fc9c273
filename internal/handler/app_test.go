package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/config"
	"github.com/noah-isme/cbt-go-api/internal/handler"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
	"github.com/noah-isme/cbt-go-api/internal/router"
	"github.com/noah-isme/cbt-go-api/internal/service"
	"github.com/noah-isme/cbt-go-api/internal/utils"
)

type stubStorage struct{}

func (stubStorage) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + name, nil
}

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

// setupTestApp wires the whole API against an in-memory database. The JWT
// middleware is stubbed to read the principal from request headers so tests
// exercise the role checks without minting tokens.
func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Profile{},
		&models.Classroom{},
		&models.Subject{},
		&models.Exam{},
		&models.Question{},
		&models.Option{},
		&models.Submission{},
		&models.Answer{},
		&models.Upload{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	profileRepo := repository.NewProfileRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	examRepo := repository.NewExamRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	authService := service.NewAuthService(profileRepo, validate, "secret", time.Hour, 2*time.Minute, logger)
	classroomService := service.NewClassroomService(classroomRepo, validate, 2*time.Minute, logger)
	subjectService := service.NewSubjectService(subjectRepo, validate, logger)
	examService := service.NewExamService(examRepo, questionRepo, subjectRepo, classroomRepo, validate, logger)
	questionService := service.NewQuestionService(questionRepo, examRepo, validate, logger)
	attemptService := service.NewAttemptService(submissionRepo, answerRepo, examRepo, questionRepo, profileRepo, validate, time.Minute, logger)
	resultService := service.NewResultService(examRepo, submissionRepo, answerRepo, questionRepo, validate, logger)
	monitorService := service.NewMonitorService(examRepo, profileRepo, submissionRepo, answerRepo, nil, time.Minute, 2*time.Minute, logger)
	statisticsService := service.NewStatisticsService(examRepo, profileRepo, classroomRepo, submissionRepo, answerRepo, questionRepo, nil, time.Minute, 2*time.Minute, logger)
	rosterService := service.NewRosterService(profileRepo, classroomRepo, logger)
	exportService := service.NewExportService(resultService, questionService, logger)
	uploadService := service.NewUploadService(stubStorage{}, uploadRepo, 5, logger)

	app := fiber.New()

	router.Register(app, config.Config{AppName: "cbt-test", JWTSecret: "secret"}, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, time.Hour, logger),
		ClassroomHandler:  handler.NewClassroomHandler(classroomService, rosterService, logger),
		SubjectHandler:    handler.NewSubjectHandler(subjectService, logger),
		ExamHandler:       handler.NewExamHandler(examService, questionService, resultService, monitorService, exportService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(resultService, exportService, logger),
		StatisticsHandler: handler.NewStatisticsHandler(statisticsService, logger),
		AttemptHandler:    handler.NewAttemptHandler(attemptService, logger),
		UploadHandler:     handler.NewUploadHandler(uploadService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			if id := c.Get("X-Test-User"); id != "" {
				parsed, convErr := strconv.ParseUint(id, 10, 64)
				if convErr == nil {
					c.Locals("user_id", uint(parsed))
				}
			}
			if role := c.Get("X-Test-Role"); role != "" {
				c.Locals("user_role", role)
			}
			return c.Next()
		},
	})

	return &testApp{app: app, db: db}
}

func (ta *testApp) request(t *testing.T, method, path string, body interface{}, userID uint, role string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(userID), 10))
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) utils.APIResponse {
	t.Helper()

	defer resp.Body.Close()
	var envelope utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

// dataAs re-marshals the envelope data into a typed value.
func dataAs(t *testing.T, envelope utils.APIResponse, target interface{}) {
	t.Helper()

	payload, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, target))
}

// seedStaffAndClass inserts a teacher, a classroom with one student and a
// subject, the minimum data most endpoint tests need.
func seedStaffAndClass(t *testing.T, db *gorm.DB) (teacher, student models.Profile, classroom models.Classroom, subject models.Subject) {
	t.Helper()

	classroom = models.Classroom{Name: "XII IPA 1", GradeLevel: "12"}
	require.NoError(t, db.Create(&classroom).Error)

	subject = models.Subject{Name: "Matematika"}
	require.NoError(t, db.Create(&subject).Error)

	teacher = models.Profile{FullName: "Pak Darto", Username: "darto", Password: "x", Role: models.RoleTeacher}
	require.NoError(t, db.Create(&teacher).Error)

	student = models.Profile{FullName: "Budi Santoso", Username: "budi", Password: "x", Role: models.RoleStudent, ClassroomID: &classroom.ID}
	require.NoError(t, db.Create(&student).Error)

	return teacher, student, classroom, subject
}
