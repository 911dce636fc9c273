package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/cbt-go-api/internal/repository"
)

// Sweeper periodically finalizes attempts whose deadline elapsed without a
// finish request, so a closed laptop still produces a scored submission.
type Sweeper struct {
	submissions repository.SubmissionRepository
	answers     repository.AnswerRepository
	questions   repository.QuestionRepository
	interval    time.Duration
	grace       time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSweeper constructs the deadline sweeper.
func NewSweeper(submissions repository.SubmissionRepository, answers repository.AnswerRepository, questions repository.QuestionRepository, interval, grace time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		submissions: submissions,
		answers:     answers,
		questions:   questions,
		interval:    interval,
		grace:       grace,
		logger:      logger.With().Str("component", "sweeper").Logger(),
		now:         time.Now,
	}
}

// Run blocks until the context is cancelled, sweeping once per interval.
// Launch it on its own goroutine next to the server loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("deadline sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("deadline sweeper stopped")
			return
		case <-ticker.C:
			if swept, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("sweep failed")
			} else if swept > 0 {
				s.logger.Info().Int("finalized", swept).Msg("expired attempts finalized")
			}
		}
	}
}

// Sweep finalizes every expired attempt once and reports how many were
// closed. Grading mirrors a manual finish so timed-out students keep the
// answers they saved.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()

	expired, err := s.submissions.ListExpired(ctx, now, s.grace)
	if err != nil {
		return 0, err
	}

	attempts := &attemptService{
		submissions: s.submissions,
		answers:     s.answers,
		questions:   s.questions,
		logger:      s.logger,
		now:         s.now,
	}

	swept := 0
	for _, submission := range expired {
		if _, err := attempts.finalize(ctx, submission, FinishReasonTimeout, now); err != nil {
			s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to finalize expired attempt")
			continue
		}
		swept++
	}

	return swept, nil
}
