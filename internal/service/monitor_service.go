package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
)

// MonitorService produces the live exam monitoring snapshot polled by the
// teacher dashboard. Snapshots are cached in redis with a short TTL so a
// whole room of polling teachers hits the database once per interval.
type MonitorService interface {
	Snapshot(ctx context.Context, examID uint) (dto.ExamMonitorResponse, error)
}

type monitorService struct {
	exams          repository.ExamRepository
	profiles       repository.ProfileRepository
	submissions    repository.SubmissionRepository
	answers        repository.AnswerRepository
	cache          *redis.Client
	cacheTTL       time.Duration
	presenceWindow time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

// NewMonitorService builds the monitoring aggregator.
func NewMonitorService(exams repository.ExamRepository, profiles repository.ProfileRepository, submissions repository.SubmissionRepository, answers repository.AnswerRepository, cache *redis.Client, cacheTTL, presenceWindow time.Duration, logger zerolog.Logger) MonitorService {
	return &monitorService{
		exams:          exams,
		profiles:       profiles,
		submissions:    submissions,
		answers:        answers,
		cache:          cache,
		cacheTTL:       cacheTTL,
		presenceWindow: presenceWindow,
		logger:         logger.With().Str("component", "monitor_service").Logger(),
		now:            time.Now,
	}
}

func (s *monitorService) Snapshot(ctx context.Context, examID uint) (dto.ExamMonitorResponse, error) {
	cacheKey := fmt.Sprintf("monitor:exam:%d", examID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.ExamMonitorResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("exam_id", examID).Msg("monitor cache hit")
				return response, nil
			}
		} else if err != nil && err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read monitor cache")
		}
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamMonitorResponse{}, ErrExamNotFound
		}
		return dto.ExamMonitorResponse{}, err
	}

	role := models.RoleStudent
	studentFilter := repository.ProfileFilter{Role: &role, ClassroomID: &exam.ClassroomID}
	submissionFilter := repository.SubmissionFilter{ExamID: &examID}

	var (
		wg          sync.WaitGroup
		students    []models.Profile
		submissions []models.Submission
		counts      map[uint]int64
		studentErr  error
		subErr      error
		countErr    error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		students, studentErr = s.profiles.List(ctx, studentFilter)
	}()
	go func() {
		defer wg.Done()
		submissions, subErr = s.submissions.List(ctx, submissionFilter)
	}()
	go func() {
		defer wg.Done()
		counts, countErr = s.answers.AnsweredCountsByExam(ctx, examID)
	}()
	wg.Wait()

	for _, loadErr := range []error{studentErr, subErr, countErr} {
		if loadErr != nil {
			return dto.ExamMonitorResponse{}, loadErr
		}
	}

	response := s.buildSnapshot(examID, students, submissions, counts)

	if s.cache != nil {
		if payload, marshalErr := json.Marshal(response); marshalErr == nil {
			if setErr := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); setErr != nil {
				s.logger.Warn().Err(setErr).Msg("failed to store monitor cache")
			}
		}
	}

	return response, nil
}

func (s *monitorService) buildSnapshot(examID uint, students []models.Profile, submissions []models.Submission, counts map[uint]int64) dto.ExamMonitorResponse {
	now := s.now()

	submissionByStudent := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		submissionByStudent[submission.StudentID] = submission
	}

	response := dto.ExamMonitorResponse{
		ExamID:        examID,
		TotalStudents: len(students),
		Rows:          make([]dto.MonitorRow, 0, len(students)),
		GeneratedAt:   now,
	}

	for _, student := range students {
		row := dto.MonitorRow{
			StudentID: student.ID,
			FullName:  student.FullName,
			Status:    "not_started",
			Online:    student.IsOnline(now, s.presenceWindow),
		}

		if submission, ok := submissionByStudent[student.ID]; ok {
			startedAt := submission.StartedAt
			row.Status = submission.Status
			row.AnsweredCount = counts[student.ID]
			row.Violations = submission.Violations
			row.StartedAt = &startedAt

			response.TotalViolations += submission.Violations
			if submission.IsSubmitted() {
				response.Submitted++
			} else {
				response.ActiveAttempts++
			}
		}

		response.Rows = append(response.Rows, row)
	}

	return response
}
