package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/cbt-go-api/internal/config"
	"github.com/noah-isme/cbt-go-api/internal/handler"
	"github.com/noah-isme/cbt-go-api/internal/middleware"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	ClassroomHandler  *handler.ClassroomHandler
	SubjectHandler    *handler.SubjectHandler
	ExamHandler       *handler.ExamHandler
	SubmissionHandler *handler.SubmissionHandler
	StatisticsHandler *handler.StatisticsHandler
	AttemptHandler    *handler.AttemptHandler
	UploadHandler     *handler.UploadHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.Use("/login", middleware.RateLimit("login", 10, time.Minute))
		deps.AuthHandler.RegisterPublic(auth)

		protected := api.Group("/auth", jwtMiddleware)
		deps.AuthHandler.RegisterProtected(protected)
	}

	staff := middleware.RequireRole(models.RoleTeacher, models.RoleManager)

	if deps.ClassroomHandler != nil {
		classrooms := api.Group("/classrooms", jwtMiddleware, staff)
		deps.ClassroomHandler.Register(classrooms)
	}

	if deps.SubjectHandler != nil {
		subjects := api.Group("/subjects", jwtMiddleware, staff)
		deps.SubjectHandler.Register(subjects)
	}

	if deps.ExamHandler != nil {
		exams := api.Group("/exams", jwtMiddleware, staff)
		deps.ExamHandler.Register(exams)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware, staff)
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.StatisticsHandler != nil {
		statistics := api.Group("/statistics", jwtMiddleware, staff)
		deps.StatisticsHandler.Register(statistics)
	}

	if deps.UploadHandler != nil {
		uploads := api.Group("/uploads", jwtMiddleware, staff)
		deps.UploadHandler.Register(uploads)
	}

	if deps.AttemptHandler != nil {
		student := api.Group("/student", jwtMiddleware, middleware.RequireRole(models.RoleStudent))
		deps.AttemptHandler.Register(student)
	}
}
