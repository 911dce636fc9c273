package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/observability"
	"github.com/noah-isme/cbt-go-api/internal/repository"
)

// Attempt flow errors, mapped to HTTP statuses in the handler layer.
var (
	// ErrSubmissionNotFound indicates the attempt row does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrNotOwner indicates the attempt belongs to another student.
	ErrNotOwner = errors.New("submission belongs to another student")
	// ErrAlreadySubmitted indicates the attempt is already finalized.
	ErrAlreadySubmitted = errors.New("submission already finalized")
	// ErrDeadlinePassed indicates the attempt deadline (plus grace) elapsed.
	ErrDeadlinePassed = errors.New("submission deadline has passed")
	// ErrAttemptNotStarted indicates the student never started the exam.
	ErrAttemptNotStarted = errors.New("exam has not been started by this student")
	// ErrExamUnpublished indicates the exam is still a draft.
	ErrExamUnpublished = errors.New("exam is not published")
	// ErrExamNotOpen indicates the access window has not opened.
	ErrExamNotOpen = errors.New("exam has not started yet")
	// ErrExamClosed indicates the access window has closed.
	ErrExamClosed = errors.New("exam has ended")
	// ErrWrongClassroom indicates the exam targets another classroom.
	ErrWrongClassroom = errors.New("exam is not scheduled for this classroom")
	// ErrQuestionNotInExam indicates the answered question belongs elsewhere.
	ErrQuestionNotInExam = errors.New("question does not belong to this exam")
	// ErrOptionNotInQuestion indicates the chosen option belongs elsewhere.
	ErrOptionNotInQuestion = errors.New("option does not belong to this question")
)

// Finish reasons recorded on the attempts-finished metric.
const (
	FinishReasonManual  = "manual"
	FinishReasonTimeout = "timeout"
)

// AttemptService orchestrates the student exam-taking flow: submission
// lifecycle, answer autosave, violation tracking and finalization.
type AttemptService interface {
	ListForStudent(ctx context.Context, studentID uint) ([]dto.StudentExamEntry, error)
	Start(ctx context.Context, studentID, examID uint) (dto.AttemptState, error)
	Paper(ctx context.Context, studentID, examID uint) (dto.ExamPaperResponse, error)
	SaveAnswer(ctx context.Context, studentID, submissionID uint, payload dto.SaveAnswerRequest) (dto.SavedAnswer, error)
	RecordViolation(ctx context.Context, studentID, submissionID uint) (dto.ViolationResponse, error)
	Finish(ctx context.Context, studentID, submissionID uint, reason string) (dto.AttemptState, error)
}

type attemptService struct {
	submissions repository.SubmissionRepository
	answers     repository.AnswerRepository
	exams       repository.ExamRepository
	questions   repository.QuestionRepository
	profiles    repository.ProfileRepository
	validator   *validator.Validate
	grace       time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAttemptService constructs an AttemptService instance.
func NewAttemptService(submissions repository.SubmissionRepository, answers repository.AnswerRepository, exams repository.ExamRepository, questions repository.QuestionRepository, profiles repository.ProfileRepository, validate *validator.Validate, grace time.Duration, logger zerolog.Logger) AttemptService {
	return &attemptService{
		submissions: submissions,
		answers:     answers,
		exams:       exams,
		questions:   questions,
		profiles:    profiles,
		validator:   validate,
		grace:       grace,
		logger:      logger.With().Str("component", "attempt_service").Logger(),
		now:         time.Now,
	}
}

// ListForStudent returns the published exams of the student's classroom
// alongside the student's own attempt state for each.
func (s *attemptService) ListForStudent(ctx context.Context, studentID uint) ([]dto.StudentExamEntry, error) {
	student, err := s.profiles.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if student.ClassroomID == nil {
		return []dto.StudentExamEntry{}, nil
	}

	exams, err := s.exams.ListPublishedForClassroom(ctx, *student.ClassroomID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entries := make([]dto.StudentExamEntry, 0, len(exams))
	for _, exam := range exams {
		entry := dto.StudentExamEntry{
			Exam:    dto.NewExamLite(exam),
			Subject: exam.Subject.Name,
		}

		submission, subErr := s.submissions.GetByExamAndStudent(ctx, exam.ID, studentID)
		if subErr == nil {
			state := dto.NewAttemptState(submission, exam, now)
			entry.Submission = &state
		} else if !errors.Is(subErr, gorm.ErrRecordNotFound) {
			return nil, subErr
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// Start is the NONE -> IN_PROGRESS transition. It is idempotent: an
// existing attempt of any status is returned as-is; otherwise a fresh row
// is inserted. The unique (exam, student) index settles concurrent starts,
// so a conflicting insert falls back to re-reading the winner.
func (s *attemptService) Start(ctx context.Context, studentID, examID uint) (dto.AttemptState, error) {
	exam, err := s.loadAccessibleExam(ctx, examID, studentID)
	if err != nil {
		return dto.AttemptState{}, err
	}

	now := s.now()

	existing, err := s.submissions.GetByExamAndStudent(ctx, examID, studentID)
	if err == nil {
		return dto.NewAttemptState(existing, exam, now), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AttemptState{}, err
	}

	submission := models.Submission{
		ExamID:    examID,
		StudentID: studentID,
		Status:    models.SubmissionStatusInProgress,
		StartedAt: now,
	}

	if createErr := s.submissions.Create(ctx, &submission); createErr != nil {
		// A concurrent start won the insert; surface that attempt instead.
		winner, readErr := s.submissions.GetByExamAndStudent(ctx, examID, studentID)
		if readErr != nil {
			return dto.AttemptState{}, createErr
		}
		return dto.NewAttemptState(winner, exam, now), nil
	}

	observability.AttemptsStarted().Inc()
	s.logger.Info().Uint("exam_id", examID).Uint("student_id", studentID).Uint("submission_id", submission.ID).Msg("attempt started")

	return dto.NewAttemptState(submission, exam, now), nil
}

// Paper returns the sanitized exam paper: questions without correctness
// flags, the attempt state with the server-computed remaining time, and
// previously saved answers so a resumed attempt restores its selections.
// A finalized attempt may still fetch the paper for review.
func (s *attemptService) Paper(ctx context.Context, studentID, examID uint) (dto.ExamPaperResponse, error) {
	exam, err := s.loadAccessibleExam(ctx, examID, studentID)
	if err != nil {
		return dto.ExamPaperResponse{}, err
	}

	submission, err := s.submissions.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamPaperResponse{}, ErrAttemptNotStarted
		}
		return dto.ExamPaperResponse{}, err
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return dto.ExamPaperResponse{}, err
	}

	answers, err := s.answers.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return dto.ExamPaperResponse{}, err
	}

	saved := make([]dto.SavedAnswer, 0, len(answers))
	for _, answer := range answers {
		saved = append(saved, dto.SavedAnswer{
			QuestionID: answer.QuestionID,
			PgOptionID: answer.PgOptionID,
			EssayText:  answer.EssayText,
		})
	}

	return dto.ExamPaperResponse{
		Exam:       dto.NewExamLite(exam),
		Questions:  dto.NewSanitizedQuestionSlice(questions),
		Submission: dto.NewAttemptState(submission, exam, s.now()),
		Answers:    saved,
	}, nil
}

// SaveAnswer upserts one answer of an in-progress attempt. Repeated saves
// for the same question overwrite the stored choice.
func (s *attemptService) SaveAnswer(ctx context.Context, studentID, submissionID uint, payload dto.SaveAnswerRequest) (dto.SavedAnswer, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SavedAnswer{}, err
	}

	submission, err := s.loadOwnedSubmission(ctx, studentID, submissionID)
	if err != nil {
		return dto.SavedAnswer{}, err
	}

	if submission.IsSubmitted() {
		return dto.SavedAnswer{}, ErrAlreadySubmitted
	}

	if s.pastDeadline(submission) {
		return dto.SavedAnswer{}, ErrDeadlinePassed
	}

	question, err := s.questions.GetByID(ctx, payload.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SavedAnswer{}, ErrQuestionNotInExam
		}
		return dto.SavedAnswer{}, err
	}
	if question.ExamID != submission.ExamID {
		return dto.SavedAnswer{}, ErrQuestionNotInExam
	}

	answer := models.Answer{
		SubmissionID: submissionID,
		QuestionID:   payload.QuestionID,
	}

	switch question.Type {
	case models.QuestionTypePG:
		if payload.PgOptionID == nil {
			return dto.SavedAnswer{}, fmt.Errorf("pg_option_id is required for multiple-choice questions")
		}
		if !optionBelongs(question, *payload.PgOptionID) {
			return dto.SavedAnswer{}, ErrOptionNotInQuestion
		}
		answer.PgOptionID = payload.PgOptionID
	case models.QuestionTypeEssay:
		answer.EssayText = payload.EssayText
	}

	if err := s.answers.Upsert(ctx, &answer); err != nil {
		return dto.SavedAnswer{}, err
	}

	observability.AnswersSaved().Inc()

	return dto.SavedAnswer{
		QuestionID: answer.QuestionID,
		PgOptionID: answer.PgOptionID,
		EssayText:  answer.EssayText,
	}, nil
}

// RecordViolation counts one focus-loss or fullscreen-exit event. The
// increment is a single atomic UPDATE; the counter never decreases.
func (s *attemptService) RecordViolation(ctx context.Context, studentID, submissionID uint) (dto.ViolationResponse, error) {
	submission, err := s.loadOwnedSubmission(ctx, studentID, submissionID)
	if err != nil {
		return dto.ViolationResponse{}, err
	}

	if submission.IsSubmitted() {
		return dto.ViolationResponse{}, ErrAlreadySubmitted
	}

	if s.pastDeadline(submission) {
		return dto.ViolationResponse{}, ErrDeadlinePassed
	}

	violations, err := s.submissions.IncrementViolations(ctx, submissionID)
	if err != nil {
		return dto.ViolationResponse{}, err
	}

	observability.ViolationsRecorded().Inc()
	s.logger.Warn().Uint("submission_id", submissionID).Int("violations", violations).Msg("violation recorded")

	return dto.ViolationResponse{Violations: violations}, nil
}

// Finish is the IN_PROGRESS -> SUBMITTED transition. It auto-grades the
// multiple-choice answers and is idempotent: finishing an already
// submitted attempt returns it unchanged.
func (s *attemptService) Finish(ctx context.Context, studentID, submissionID uint, reason string) (dto.AttemptState, error) {
	submission, err := s.loadOwnedSubmission(ctx, studentID, submissionID)
	if err != nil {
		return dto.AttemptState{}, err
	}

	now := s.now()
	if submission.IsSubmitted() {
		return dto.NewAttemptState(submission, submission.Exam, now), nil
	}

	// A finish arriving past the deadline (plus grace) is a timeout no
	// matter what the client claims; the attempt still finalizes so the
	// student is not left waiting for the sweeper.
	if s.pastDeadline(submission) {
		reason = FinishReasonTimeout
	}

	finalized, err := s.finalize(ctx, submission, reason, now)
	if err != nil {
		return dto.AttemptState{}, err
	}

	return dto.NewAttemptState(finalized, finalized.Exam, now), nil
}

// finalize grades and stamps one attempt. Shared with the deadline sweeper.
func (s *attemptService) finalize(ctx context.Context, submission models.Submission, reason string, now time.Time) (models.Submission, error) {
	questions, err := s.questions.ListByExam(ctx, submission.ExamID)
	if err != nil {
		return models.Submission{}, err
	}

	answers, err := s.answers.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return models.Submission{}, err
	}

	breakdown := gradeAnswers(questions, answers)
	score := effectiveScore(submission.Score, breakdown.Derived)

	if err := s.submissions.Finalize(ctx, submission.ID, &score, now); err != nil {
		return models.Submission{}, err
	}

	finalized, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return models.Submission{}, err
	}

	observability.AttemptsFinished().WithLabelValues(reason).Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("reason", reason).
		Float64("score", score).
		Int("correct", breakdown.Correct).
		Int("total_pg", breakdown.TotalPG).
		Bool("needs_grading", breakdown.NeedsGrading).
		Msg("attempt finalized")

	return finalized, nil
}

// pastDeadline reports whether the attempt's deadline plus grace elapsed.
// Requires the submission's Exam association to be loaded.
func (s *attemptService) pastDeadline(submission models.Submission) bool {
	return s.now().After(submission.Exam.Deadline(submission.StartedAt).Add(s.grace))
}

func (s *attemptService) loadAccessibleExam(ctx context.Context, examID, studentID uint) (models.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Exam{}, ErrExamNotFound
		}
		return models.Exam{}, err
	}

	student, err := s.profiles.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Exam{}, ErrProfileNotFound
		}
		return models.Exam{}, err
	}

	if student.ClassroomID == nil || *student.ClassroomID != exam.ClassroomID {
		return models.Exam{}, ErrWrongClassroom
	}

	switch exam.Access(s.now()) {
	case models.AccessUnpublished:
		return models.Exam{}, ErrExamUnpublished
	case models.AccessTooEarly:
		return models.Exam{}, ErrExamNotOpen
	case models.AccessTooLate:
		return models.Exam{}, ErrExamClosed
	}

	return exam, nil
}

func (s *attemptService) loadOwnedSubmission(ctx context.Context, studentID, submissionID uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	if submission.StudentID != studentID {
		return models.Submission{}, ErrNotOwner
	}

	return submission, nil
}

func optionBelongs(question models.Question, optionID uint) bool {
	for _, option := range question.Options {
		if option.ID == optionID {
			return true
		}
	}
	return false
}
