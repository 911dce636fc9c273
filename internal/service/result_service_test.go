package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
)

func newResultService(t *testing.T, f *attemptFixture) ResultService {
	t.Helper()

	return NewResultService(
		repository.NewExamRepository(f.db),
		repository.NewSubmissionRepository(f.db),
		repository.NewAnswerRepository(f.db),
		repository.NewQuestionRepository(f.db),
		validator.New(validator.WithRequiredStructEnabled()),
		testLogger(),
	)
}

// finishAttempt runs a full attempt for the fixture student: pg1 answered
// correctly, pg2 wrong, essay answered. Derived score is 50.
func finishAttempt(t *testing.T, f *attemptFixture) dto.AttemptState {
	t.Helper()
	ctx := context.Background()

	state, err := f.svc.Start(ctx, f.student.ID, f.exam.ID)
	require.NoError(t, err)

	correct := f.pg1.CorrectOption()
	require.NotNil(t, correct)
	_, err = f.svc.SaveAnswer(ctx, f.student.ID, state.ID, dto.SaveAnswerRequest{QuestionID: f.pg1.ID, PgOptionID: &correct.ID})
	require.NoError(t, err)

	var wrong *uint
	for i := range f.pg2.Options {
		if !f.pg2.Options[i].IsCorrect {
			wrong = &f.pg2.Options[i].ID
		}
	}
	require.NotNil(t, wrong)
	_, err = f.svc.SaveAnswer(ctx, f.student.ID, state.ID, dto.SaveAnswerRequest{QuestionID: f.pg2.ID, PgOptionID: wrong})
	require.NoError(t, err)

	_, err = f.svc.SaveAnswer(ctx, f.student.ID, state.ID, dto.SaveAnswerRequest{QuestionID: f.essay.ID, EssayText: "jawaban esai"})
	require.NoError(t, err)

	finished, err := f.svc.Finish(ctx, f.student.ID, state.ID, FinishReasonManual)
	require.NoError(t, err)

	return finished
}

func TestResultServiceExamResults(t *testing.T) {
	now := time.Now().UTC()
	f := seedAttemptFixture(t, now)
	results := newResultService(t, f)
	ctx := context.Background()

	finishAttempt(t, f)

	// a second student still mid-attempt counts as pending
	other := models.Profile{FullName: "Dewi", Username: "dewi", Password: "x", Role: models.RoleStudent, ClassroomID: f.student.ClassroomID}
	require.NoError(t, f.db.Create(&other).Error)
	require.NoError(t, f.db.Create(&models.Submission{ExamID: f.exam.ID, StudentID: other.ID, Status: models.SubmissionStatusInProgress, StartedAt: now}).Error)

	response, err := results.ExamResults(ctx, f.exam.ID)
	require.NoError(t, err)
	require.Equal(t, f.exam.ID, response.Exam.ID)
	require.Len(t, response.Submissions, 2)
	require.Equal(t, 2, response.Stats.Total)
	require.Equal(t, 1, response.Stats.Pending)
	require.InDelta(t, 50, response.Stats.Average, 0.001)
	require.InDelta(t, 50, response.Stats.Highest, 0.001)

	_, err = results.ExamResults(ctx, 9999)
	require.ErrorIs(t, err, ErrExamNotFound)
}

func TestResultServiceSubmissionDetail(t *testing.T) {
	now := time.Now().UTC()
	f := seedAttemptFixture(t, now)
	results := newResultService(t, f)

	finished := finishAttempt(t, f)

	detail, err := results.SubmissionDetail(context.Background(), finished.ID)
	require.NoError(t, err)
	require.Equal(t, finished.ID, detail.Submission.ID)
	require.Equal(t, 3, detail.TotalQuestions)
	require.Equal(t, 1, detail.CorrectAnswers)
	require.InDelta(t, 50, detail.DerivedScore, 0.001)
	require.True(t, detail.NeedsGrading)
	require.Len(t, detail.Answers, 3)

	first := detail.Answers[0]
	require.Equal(t, f.pg1.ID, first.QuestionID)
	require.NotNil(t, first.IsCorrect)
	require.True(t, *first.IsCorrect)
	require.NotNil(t, first.CorrectOptionID)

	second := detail.Answers[1]
	require.NotNil(t, second.IsCorrect)
	require.False(t, *second.IsCorrect)

	third := detail.Answers[2]
	require.True(t, third.NeedsGrading)
	require.Equal(t, "jawaban esai", third.EssayText)

	_, err = results.SubmissionDetail(context.Background(), 9999)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestResultServiceOverrideScore(t *testing.T) {
	now := time.Now().UTC()
	f := seedAttemptFixture(t, now)
	results := newResultService(t, f)
	ctx := context.Background()

	finished := finishAttempt(t, f)

	updated, err := results.OverrideScore(ctx, finished.ID, dto.ScoreOverrideRequest{Score: 85})
	require.NoError(t, err)
	require.NotNil(t, updated.Score)
	require.InDelta(t, 85, *updated.Score, 0.001)

	_, err = results.OverrideScore(ctx, finished.ID, dto.ScoreOverrideRequest{Score: 150})
	require.Error(t, err)

	_, err = results.OverrideScore(ctx, 9999, dto.ScoreOverrideRequest{Score: 85})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestResultServiceResetAllowsRetake(t *testing.T) {
	now := time.Now().UTC()
	f := seedAttemptFixture(t, now)
	results := newResultService(t, f)
	ctx := context.Background()

	finished := finishAttempt(t, f)

	require.NoError(t, results.Reset(ctx, finished.ID))
	require.ErrorIs(t, results.Reset(ctx, finished.ID), ErrSubmissionNotFound)

	// the student can start over
	fresh, err := f.svc.Start(ctx, f.student.ID, f.exam.ID)
	require.NoError(t, err)
	require.NotEqual(t, finished.ID, fresh.ID)
	require.Equal(t, models.SubmissionStatusInProgress, fresh.Status)
}
