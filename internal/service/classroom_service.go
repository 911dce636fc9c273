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

// ErrClassroomNotFound indicates a classroom could not be found.
var ErrClassroomNotFound = errors.New("classroom not found")

// ClassroomService manages classroom CRUD and detail views.
type ClassroomService interface {
	List(ctx context.Context) ([]dto.ClassroomResponse, error)
	Detail(ctx context.Context, id uint) (dto.ClassroomDetailResponse, error)
	Create(ctx context.Context, payload dto.ClassroomRequest) (dto.ClassroomResponse, error)
	Update(ctx context.Context, id uint, payload dto.ClassroomRequest) (dto.ClassroomResponse, error)
	Delete(ctx context.Context, id uint) error
}

type classroomService struct {
	classrooms     repository.ClassroomRepository
	validator      *validator.Validate
	presenceWindow time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

// NewClassroomService constructs a ClassroomService instance.
func NewClassroomService(classrooms repository.ClassroomRepository, validate *validator.Validate, presenceWindow time.Duration, logger zerolog.Logger) ClassroomService {
	return &classroomService{
		classrooms:     classrooms,
		validator:      validate,
		presenceWindow: presenceWindow,
		logger:         logger.With().Str("component", "classroom_service").Logger(),
		now:            time.Now,
	}
}

func (s *classroomService) List(ctx context.Context) ([]dto.ClassroomResponse, error) {
	classrooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ClassroomResponse, 0, len(classrooms))
	for _, classroom := range classrooms {
		result = append(result, dto.NewClassroomResponse(classroom))
	}

	return result, nil
}

func (s *classroomService) Detail(ctx context.Context, id uint) (dto.ClassroomDetailResponse, error) {
	classroom, err := s.classrooms.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomDetailResponse{}, ErrClassroomNotFound
		}
		return dto.ClassroomDetailResponse{}, err
	}

	return dto.NewClassroomDetailResponse(classroom, s.now(), s.presenceWindow), nil
}

func (s *classroomService) Create(ctx context.Context, payload dto.ClassroomRequest) (dto.ClassroomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassroomResponse{}, err
	}

	classroom := models.Classroom{Name: payload.Name, GradeLevel: payload.GradeLevel}
	if err := s.classrooms.Create(ctx, &classroom); err != nil {
		return dto.ClassroomResponse{}, err
	}

	s.logger.Info().Uint("classroom_id", classroom.ID).Msg("classroom created")

	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) Update(ctx context.Context, id uint, payload dto.ClassroomRequest) (dto.ClassroomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassroomResponse{}, err
	}

	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomResponse{}, ErrClassroomNotFound
		}
		return dto.ClassroomResponse{}, err
	}

	classroom.Name = payload.Name
	classroom.GradeLevel = payload.GradeLevel

	if err := s.classrooms.Update(ctx, &classroom); err != nil {
		return dto.ClassroomResponse{}, err
	}

	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) Delete(ctx context.Context, id uint) error {
	if _, err := s.classrooms.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassroomNotFound
		}
		return err
	}

	if err := s.classrooms.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("classroom_id", id).Msg("classroom deleted")
	return nil
}
