package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
)

// ErrSubjectNotFound indicates a subject could not be found.
var ErrSubjectNotFound = errors.New("subject not found")

// SubjectService manages subject CRUD.
type SubjectService interface {
	List(ctx context.Context) ([]dto.SubjectResponse, error)
	Create(ctx context.Context, payload dto.SubjectRequest) (dto.SubjectResponse, error)
	Update(ctx context.Context, id uint, payload dto.SubjectRequest) (dto.SubjectResponse, error)
	Delete(ctx context.Context, id uint) error
}

type subjectService struct {
	subjects  repository.SubjectRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubjectService constructs a SubjectService instance.
func NewSubjectService(subjects repository.SubjectRepository, validate *validator.Validate, logger zerolog.Logger) SubjectService {
	return &subjectService{
		subjects:  subjects,
		validator: validate,
		logger:    logger.With().Str("component", "subject_service").Logger(),
	}
}

func (s *subjectService) List(ctx context.Context) ([]dto.SubjectResponse, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewSubjectResponseSlice(subjects), nil
}

func (s *subjectService) Create(ctx context.Context, payload dto.SubjectRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject := models.Subject{Name: payload.Name}
	if err := s.subjects.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Update(ctx context.Context, id uint, payload dto.SubjectRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubjectResponse{}, ErrSubjectNotFound
		}
		return dto.SubjectResponse{}, err
	}

	subject.Name = payload.Name
	if err := s.subjects.Update(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Delete(ctx context.Context, id uint) error {
	if _, err := s.subjects.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	return s.subjects.Delete(ctx, id)
}
