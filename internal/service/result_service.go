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

// ResultService serves the teacher-facing results dashboard: aggregate
// stats per exam, per-attempt answer review, manual score overrides and
// attempt resets.
type ResultService interface {
	ExamResults(ctx context.Context, examID uint) (dto.ExamResultsResponse, error)
	SubmissionDetail(ctx context.Context, submissionID uint) (dto.SubmissionDetailResponse, error)
	OverrideScore(ctx context.Context, submissionID uint, payload dto.ScoreOverrideRequest) (dto.SubmissionResponse, error)
	Reset(ctx context.Context, submissionID uint) error
}

type resultService struct {
	exams       repository.ExamRepository
	submissions repository.SubmissionRepository
	answers     repository.AnswerRepository
	questions   repository.QuestionRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewResultService constructs a ResultService instance.
func NewResultService(exams repository.ExamRepository, submissions repository.SubmissionRepository, answers repository.AnswerRepository, questions repository.QuestionRepository, validate *validator.Validate, logger zerolog.Logger) ResultService {
	return &resultService{
		exams:       exams,
		submissions: submissions,
		answers:     answers,
		questions:   questions,
		validator:   validate,
		logger:      logger.With().Str("component", "result_service").Logger(),
	}
}

// ExamResults lists every attempt of one exam with aggregate statistics.
func (s *resultService) ExamResults(ctx context.Context, examID uint) (dto.ExamResultsResponse, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResultsResponse{}, ErrExamNotFound
		}
		return dto.ExamResultsResponse{}, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{ExamID: &examID})
	if err != nil {
		return dto.ExamResultsResponse{}, err
	}

	stats := dto.ResultStats{Total: len(submissions)}
	var scoreSum float64
	var scored int
	for _, submission := range submissions {
		if !submission.IsSubmitted() {
			stats.Pending++
			continue
		}
		if submission.Score != nil {
			scoreSum += *submission.Score
			scored++
			if *submission.Score > stats.Highest {
				stats.Highest = *submission.Score
			}
		}
	}
	if scored > 0 {
		stats.Average = scoreSum / float64(scored)
	}

	return dto.ExamResultsResponse{
		Exam:        dto.NewExamLite(exam),
		Submissions: dto.NewSubmissionResponseSlice(submissions),
		Stats:       stats,
	}, nil
}

// SubmissionDetail builds the per-answer review of one attempt.
func (s *resultService) SubmissionDetail(ctx context.Context, submissionID uint) (dto.SubmissionDetailResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionDetailResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionDetailResponse{}, err
	}

	questions, err := s.questions.ListByExam(ctx, submission.ExamID)
	if err != nil {
		return dto.SubmissionDetailResponse{}, err
	}

	answers, err := s.answers.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionDetailResponse{}, err
	}

	answerByQuestion := make(map[uint]models.Answer, len(answers))
	for _, answer := range answers {
		answerByQuestion[answer.QuestionID] = answer
	}

	breakdown := gradeAnswers(questions, answers)

	reviews := make([]dto.AnswerReview, 0, len(questions))
	for _, question := range questions {
		review := dto.AnswerReview{
			QuestionID:      question.ID,
			QuestionContent: question.Content,
			QuestionType:    question.Type,
		}

		answer, answered := answerByQuestion[question.ID]

		switch question.Type {
		case models.QuestionTypeEssay:
			review.NeedsGrading = true
			if answered {
				review.EssayText = answer.EssayText
			}
		case models.QuestionTypePG:
			if correct := question.CorrectOption(); correct != nil {
				id := correct.ID
				review.CorrectOptionID = &id
				review.CorrectContent = correct.Content
			}
			if answered && answer.PgOptionID != nil {
				review.ChosenOptionID = answer.PgOptionID
				for _, option := range question.Options {
					if option.ID == *answer.PgOptionID {
						review.ChosenContent = option.Content
						break
					}
				}
				isCorrect := review.CorrectOptionID != nil && *review.CorrectOptionID == *answer.PgOptionID
				review.IsCorrect = &isCorrect
			}
		}

		reviews = append(reviews, review)
	}

	return dto.SubmissionDetailResponse{
		Submission:     dto.NewSubmissionResponse(submission),
		Answers:        reviews,
		CorrectAnswers: breakdown.Correct,
		TotalQuestions: len(questions),
		DerivedScore:   breakdown.Derived,
		NeedsGrading:   breakdown.NeedsGrading,
	}, nil
}

// OverrideScore sets a manual score on a finalized attempt.
func (s *resultService) OverrideScore(ctx context.Context, submissionID uint, payload dto.ScoreOverrideRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	submission.Score = &payload.Score
	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submissionID).Float64("score", payload.Score).Msg("score overridden")

	return dto.NewSubmissionResponse(submission), nil
}

// Reset deletes an attempt and its answers so the student can retake the
// exam from a clean state.
func (s *resultService) Reset(ctx context.Context, submissionID uint) error {
	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}

	if err := s.submissions.Delete(ctx, submissionID); err != nil {
		return err
	}

	s.logger.Info().Uint("submission_id", submissionID).Msg("attempt reset")
	return nil
}
