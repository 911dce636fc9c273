package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
)

func TestSweeperFinalizesExpiredAttempts(t *testing.T) {
	now := time.Now().UTC()
	f := seedAttemptFixture(t, now)
	ctx := context.Background()

	state, err := f.svc.Start(ctx, f.student.ID, f.exam.ID)
	require.NoError(t, err)

	correct := f.pg1.CorrectOption()
	require.NotNil(t, correct)
	_, err = f.svc.SaveAnswer(ctx, f.student.ID, state.ID, dto.SaveAnswerRequest{QuestionID: f.pg1.ID, PgOptionID: &correct.ID})
	require.NoError(t, err)

	sweeper := NewSweeper(
		repository.NewSubmissionRepository(f.db),
		repository.NewAnswerRepository(f.db),
		repository.NewQuestionRepository(f.db),
		time.Minute,
		time.Minute,
		testLogger(),
	)

	// inside the deadline nothing is swept
	sweeper.now = func() time.Time { return now.Add(30 * time.Minute) }
	swept, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, swept)

	// past started_at + duration + grace the attempt is closed and graded
	sweeper.now = func() time.Time { return now.Add(62 * time.Minute) }
	swept, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, swept)

	var stored models.Submission
	require.NoError(t, f.db.First(&stored, state.ID).Error)
	require.Equal(t, models.SubmissionStatusSubmitted, stored.Status)
	require.NotNil(t, stored.SubmittedAt)
	require.NotNil(t, stored.Score)
	require.InDelta(t, 50, *stored.Score, 0.001)

	// a second sweep finds nothing left
	swept, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, swept)
}

func TestSweeperRunStopsOnContextCancel(t *testing.T) {
	f := seedAttemptFixture(t, time.Now().UTC())

	sweeper := NewSweeper(
		repository.NewSubmissionRepository(f.db),
		repository.NewAnswerRepository(f.db),
		repository.NewQuestionRepository(f.db),
		10*time.Millisecond,
		time.Minute,
		testLogger(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
