package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
)

// ErrMalformedQuestion indicates a pg question without exactly one correct option.
var ErrMalformedQuestion = errors.New("multiple-choice question must have exactly one correct option")

// QuestionService manages an exam's question set.
type QuestionService interface {
	ListForExam(ctx context.Context, examID uint) ([]dto.QuestionResponse, error)
	Replace(ctx context.Context, examID uint, payload dto.ReplaceQuestionsRequest) ([]dto.QuestionResponse, error)
	Append(ctx context.Context, examID uint, questions []dto.QuestionInput) ([]dto.QuestionResponse, error)
}

type questionService struct {
	questions repository.QuestionRepository
	exams     repository.ExamRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewQuestionService constructs a QuestionService instance. Question and
// option bodies are teacher-authored HTML, so they pass through a UGC
// sanitizer before storage.
func NewQuestionService(questions repository.QuestionRepository, exams repository.ExamRepository, validate *validator.Validate, logger zerolog.Logger) QuestionService {
	return &questionService{
		questions: questions,
		exams:     exams,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "question_service").Logger(),
	}
}

func (s *questionService) ListForExam(ctx context.Context, examID uint) ([]dto.QuestionResponse, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	return dto.NewQuestionResponseSlice(questions), nil
}

// Replace swaps the whole question set atomically.
func (s *questionService) Replace(ctx context.Context, examID uint, payload dto.ReplaceQuestionsRequest) ([]dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	questions, err := s.buildQuestions(payload.Questions)
	if err != nil {
		return nil, err
	}

	if err := s.questions.ReplaceForExam(ctx, examID, questions); err != nil {
		return nil, err
	}

	stored, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("exam_id", examID).Int("count", len(stored)).Msg("question set replaced")

	return dto.NewQuestionResponseSlice(stored), nil
}

// Append adds questions to the end of the paper, used by the bulk import.
func (s *questionService) Append(ctx context.Context, examID uint, inputs []dto.QuestionInput) ([]dto.QuestionResponse, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	questions, err := s.buildQuestions(inputs)
	if err != nil {
		return nil, err
	}

	if err := s.questions.AppendToExam(ctx, examID, questions); err != nil {
		return nil, err
	}

	stored, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	return dto.NewQuestionResponseSlice(stored), nil
}

func (s *questionService) buildQuestions(inputs []dto.QuestionInput) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(inputs))

	for i, input := range inputs {
		if err := s.validator.Struct(input); err != nil {
			return nil, err
		}

		question := models.Question{
			Content:  s.sanitizer.Sanitize(input.Content),
			Type:     input.Type,
			Points:   input.Points,
			ImageURL: input.ImageURL,
		}
		if question.Points == 0 {
			question.Points = 1
		}

		switch input.Type {
		case models.QuestionTypePG:
			if len(input.Options) < 2 {
				return nil, fmt.Errorf("question %d: multiple-choice needs at least two options", i+1)
			}

			correct := 0
			for _, option := range input.Options {
				if option.IsCorrect {
					correct++
				}
				question.Options = append(question.Options, models.Option{
					Content:   s.sanitizer.Sanitize(option.Content),
					IsCorrect: option.IsCorrect,
				})
			}

			if correct != 1 {
				return nil, ErrMalformedQuestion
			}
		case models.QuestionTypeEssay:
			if len(input.Options) > 0 {
				return nil, fmt.Errorf("question %d: essay questions cannot have options", i+1)
			}
		}

		questions = append(questions, question)
	}

	return questions, nil
}
