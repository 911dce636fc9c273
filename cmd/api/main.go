package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cbt-go-api/internal/config"
	"github.com/noah-isme/cbt-go-api/internal/database"
	"github.com/noah-isme/cbt-go-api/internal/handler"
	"github.com/noah-isme/cbt-go-api/internal/middleware"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
	"github.com/noah-isme/cbt-go-api/internal/router"
	"github.com/noah-isme/cbt-go-api/internal/service"
	cloud "github.com/noah-isme/cbt-go-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Classroom{},
		&models.Subject{},
		&models.Exam{},
		&models.Question{},
		&models.Option{},
		&models.Submission{},
		&models.Answer{},
		&models.Upload{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	profileRepo := repository.NewProfileRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	examRepo := repository.NewExamRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	authService := service.NewAuthService(profileRepo, validate, cfg.JWTSecret, cfg.SessionTTL, cfg.PresenceWindow, logger)
	classroomService := service.NewClassroomService(classroomRepo, validate, cfg.PresenceWindow, logger)
	subjectService := service.NewSubjectService(subjectRepo, validate, logger)
	examService := service.NewExamService(examRepo, questionRepo, subjectRepo, classroomRepo, validate, logger)
	questionService := service.NewQuestionService(questionRepo, examRepo, validate, logger)
	attemptService := service.NewAttemptService(submissionRepo, answerRepo, examRepo, questionRepo, profileRepo, validate, cfg.SubmissionGrace, logger)
	resultService := service.NewResultService(examRepo, submissionRepo, answerRepo, questionRepo, validate, logger)
	monitorService := service.NewMonitorService(examRepo, profileRepo, submissionRepo, answerRepo, redisClient, cfg.MonitorCacheTTL, cfg.PresenceWindow, logger)
	statisticsService := service.NewStatisticsService(examRepo, profileRepo, classroomRepo, submissionRepo, answerRepo, questionRepo, redisClient, cfg.MonitorCacheTTL, cfg.PresenceWindow, logger)
	rosterService := service.NewRosterService(profileRepo, classroomRepo, logger)
	exportService := service.NewExportService(resultService, questionService, logger)
	uploadService := service.NewUploadService(uploader, uploadRepo, cfg.UploadMaxMB, logger)

	authHandler := handler.NewAuthHandler(authService, cfg.SessionTTL, logger)
	classroomHandler := handler.NewClassroomHandler(classroomService, rosterService, logger)
	subjectHandler := handler.NewSubjectHandler(subjectService, logger)
	examHandler := handler.NewExamHandler(examService, questionService, resultService, monitorService, exportService, logger)
	submissionHandler := handler.NewSubmissionHandler(resultService, exportService, logger)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, logger)
	attemptHandler := handler.NewAttemptHandler(attemptService, logger)
	uploadHandler := handler.NewUploadHandler(uploadService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       authHandler,
		ClassroomHandler:  classroomHandler,
		SubjectHandler:    subjectHandler,
		ExamHandler:       examHandler,
		SubmissionHandler: submissionHandler,
		StatisticsHandler: statisticsHandler,
		AttemptHandler:    attemptHandler,
		UploadHandler:     uploadHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := service.NewSweeper(submissionRepo, answerRepo, questionRepo, cfg.SweepInterval, cfg.SubmissionGrace, logger)
	go sweeper.Run(shutdownCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
