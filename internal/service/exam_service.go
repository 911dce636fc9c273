package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
)

// ErrExamNotFound indicates an exam could not be found.
var ErrExamNotFound = errors.New("exam not found")

// ErrInvalidWindow indicates end_time precedes start_time.
var ErrInvalidWindow = errors.New("exam end time must be after start time")

// ErrExamHasNoQuestions blocks publishing an exam with an empty paper.
var ErrExamHasNoQuestions = errors.New("cannot publish an exam without questions")

// ExamService manages exam authoring and publication.
type ExamService interface {
	List(ctx context.Context, filter dto.ExamListFilter) ([]dto.ExamResponse, int64, error)
	Get(ctx context.Context, id uint) (dto.ExamResponse, error)
	Create(ctx context.Context, teacherID uint, payload dto.ExamCreateRequest) (dto.ExamResponse, error)
	Update(ctx context.Context, id uint, payload dto.ExamUpdateRequest) (dto.ExamResponse, error)
	Publish(ctx context.Context, id uint) (dto.ExamResponse, error)
	Delete(ctx context.Context, id uint) error
}

type examService struct {
	exams      repository.ExamRepository
	questions  repository.QuestionRepository
	subjects   repository.SubjectRepository
	classrooms repository.ClassroomRepository
	validator  *validator.Validate
	logger     zerolog.Logger
	now        func() time.Time
}

// NewExamService constructs an ExamService instance.
func NewExamService(exams repository.ExamRepository, questions repository.QuestionRepository, subjects repository.SubjectRepository, classrooms repository.ClassroomRepository, validate *validator.Validate, logger zerolog.Logger) ExamService {
	return &examService{
		exams:      exams,
		questions:  questions,
		subjects:   subjects,
		classrooms: classrooms,
		validator:  validate,
		logger:     logger.With().Str("component", "exam_service").Logger(),
		now:        time.Now,
	}
}

func (s *examService) List(ctx context.Context, filter dto.ExamListFilter) ([]dto.ExamResponse, int64, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, 0, err
	}

	repoFilter := repository.ExamFilter{
		ClassroomID: filter.ClassroomID,
		SubjectID:   filter.SubjectID,
		Published:   filter.Published,
		Search:      filter.Search,
		Page:        filter.Page,
		PageSize:    filter.PageSize,
	}

	if filter.Status != nil {
		published := *filter.Status == "published"
		repoFilter.Published = &published
	}

	exams, total, err := s.exams.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	result := make([]dto.ExamResponse, 0, len(exams))
	for _, exam := range exams {
		count, countErr := s.questions.CountByExam(ctx, exam.ID)
		if countErr != nil {
			return nil, 0, countErr
		}
		result = append(result, dto.NewExamResponse(exam, count, now))
	}

	return result, total, nil
}

func (s *examService) Get(ctx context.Context, id uint) (dto.ExamResponse, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	count, err := s.questions.CountByExam(ctx, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	return dto.NewExamResponse(exam, count, s.now()), nil
}

func (s *examService) Create(ctx context.Context, teacherID uint, payload dto.ExamCreateRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	if err := validateWindow(payload.StartTime, payload.EndTime); err != nil {
		return dto.ExamResponse{}, err
	}

	if _, err := s.subjects.GetByID(ctx, payload.SubjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrSubjectNotFound
		}
		return dto.ExamResponse{}, err
	}

	if _, err := s.classrooms.GetByID(ctx, payload.ClassroomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrClassroomNotFound
		}
		return dto.ExamResponse{}, err
	}

	exam := models.Exam{
		Title:       payload.Title,
		Description: payload.Description,
		SubjectID:   payload.SubjectID,
		ClassroomID: payload.ClassroomID,
		TeacherID:   teacherID,
		Duration:    payload.Duration,
		StartTime:   payload.StartTime,
		EndTime:     payload.EndTime,
	}

	if err := s.exams.Create(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	created, err := s.exams.GetByID(ctx, exam.ID)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	s.logger.Info().Uint("exam_id", exam.ID).Uint("teacher_id", teacherID).Msg("exam created")

	return dto.NewExamResponse(created, 0, s.now()), nil
}

func (s *examService) Update(ctx context.Context, id uint, payload dto.ExamUpdateRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	if payload.Title != nil {
		exam.Title = *payload.Title
	}
	if payload.Description != nil {
		exam.Description = *payload.Description
	}
	if payload.SubjectID != nil {
		exam.SubjectID = *payload.SubjectID
	}
	if payload.ClassroomID != nil {
		exam.ClassroomID = *payload.ClassroomID
	}
	if payload.Duration != nil {
		exam.Duration = *payload.Duration
	}
	if payload.StartTime != nil {
		exam.StartTime = payload.StartTime
	}
	if payload.EndTime != nil {
		exam.EndTime = payload.EndTime
	}

	if err := validateWindow(exam.StartTime, exam.EndTime); err != nil {
		return dto.ExamResponse{}, err
	}

	if err := s.exams.Update(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	updated, err := s.exams.GetByID(ctx, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	count, err := s.questions.CountByExam(ctx, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	return dto.NewExamResponse(updated, count, s.now()), nil
}

// Publish flips the one-way published flag. A publish with zero questions
// is rejected so students never open an empty paper.
func (s *examService) Publish(ctx context.Context, id uint) (dto.ExamResponse, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	count, err := s.questions.CountByExam(ctx, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}
	if count == 0 {
		return dto.ExamResponse{}, ErrExamHasNoQuestions
	}

	if !exam.IsPublished {
		if err := s.exams.Publish(ctx, id); err != nil {
			return dto.ExamResponse{}, err
		}
		exam.IsPublished = true
		s.logger.Info().Uint("exam_id", id).Msg("exam published")
	}

	return dto.NewExamResponse(exam, count, s.now()), nil
}

func (s *examService) Delete(ctx context.Context, id uint) error {
	if _, err := s.exams.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamNotFound
		}
		return err
	}

	if err := s.exams.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("exam_id", id).Msg("exam deleted")
	return nil
}

func validateWindow(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return ErrInvalidWindow
	}
	return nil
}
