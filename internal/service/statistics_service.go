package service

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
)

const (
	schoolStatsCacheKey = "stats:school"
	dashboardCacheKey   = "stats:dashboard"

	recentSubmissionLimit = 6

	// trendEpsilon is the score distance below which a student's latest
	// result counts as steady rather than a rise or drop.
	trendEpsilon = 0.5
)

// StatisticsService aggregates across every classroom: the school-wide
// statistics page (average, participation, leaderboard) and the admin
// dashboard (entity counts, live per-classroom student groups, recent
// submissions). Both payloads are polled, so they are redis-cached with
// a short TTL like the per-exam monitor snapshot.
type StatisticsService interface {
	School(ctx context.Context) (dto.SchoolStatisticsResponse, error)
	Dashboard(ctx context.Context) (dto.DashboardResponse, error)
}

type statisticsService struct {
	exams          repository.ExamRepository
	profiles       repository.ProfileRepository
	classrooms     repository.ClassroomRepository
	submissions    repository.SubmissionRepository
	answers        repository.AnswerRepository
	questions      repository.QuestionRepository
	cache          *redis.Client
	cacheTTL       time.Duration
	presenceWindow time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

// NewStatisticsService builds the school-wide aggregator.
func NewStatisticsService(exams repository.ExamRepository, profiles repository.ProfileRepository, classrooms repository.ClassroomRepository, submissions repository.SubmissionRepository, answers repository.AnswerRepository, questions repository.QuestionRepository, cache *redis.Client, cacheTTL, presenceWindow time.Duration, logger zerolog.Logger) StatisticsService {
	return &statisticsService{
		exams:          exams,
		profiles:       profiles,
		classrooms:     classrooms,
		submissions:    submissions,
		answers:        answers,
		questions:      questions,
		cache:          cache,
		cacheTTL:       cacheTTL,
		presenceWindow: presenceWindow,
		logger:         logger.With().Str("component", "statistics_service").Logger(),
		now:            time.Now,
	}
}

// School builds the statistics page: school average over every scored
// attempt, participation rate (students with at least one attempt over
// all students) and the per-student leaderboard.
func (s *statisticsService) School(ctx context.Context) (dto.SchoolStatisticsResponse, error) {
	if cached, ok := readCache[dto.SchoolStatisticsResponse](ctx, s.cache, schoolStatsCacheKey, s.logger); ok {
		return cached, nil
	}

	role := models.RoleStudent
	var (
		wg          sync.WaitGroup
		students    []models.Profile
		submissions []models.Submission
		classrooms  []models.Classroom
		studentErr  error
		subErr      error
		classErr    error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		students, studentErr = s.profiles.List(ctx, repository.ProfileFilter{Role: &role})
	}()
	go func() {
		defer wg.Done()
		submissions, subErr = s.submissions.List(ctx, repository.SubmissionFilter{})
	}()
	go func() {
		defer wg.Done()
		classrooms, classErr = s.classrooms.List(ctx)
	}()
	wg.Wait()

	for _, loadErr := range []error{studentErr, subErr, classErr} {
		if loadErr != nil {
			return dto.SchoolStatisticsResponse{}, loadErr
		}
	}

	response := s.buildSchoolStats(students, submissions, classrooms)
	writeCache(ctx, s.cache, schoolStatsCacheKey, response, s.cacheTTL, s.logger)
	return response, nil
}

func (s *statisticsService) buildSchoolStats(students []models.Profile, submissions []models.Submission, classrooms []models.Classroom) dto.SchoolStatisticsResponse {
	classroomNames := make(map[uint]string, len(classrooms))
	for _, classroom := range classrooms {
		classroomNames[classroom.ID] = classroom.Name
	}

	var scoreSum float64
	var scored int
	participants := make(map[uint]struct{}, len(students))

	// submissions arrive newest-first; keep per-student scores in that
	// order so the head of the slice is the latest result.
	type studentAgg struct {
		taken  int
		scores []float64
	}
	byStudent := make(map[uint]*studentAgg)

	for _, submission := range submissions {
		participants[submission.StudentID] = struct{}{}

		agg, ok := byStudent[submission.StudentID]
		if !ok {
			agg = &studentAgg{}
			byStudent[submission.StudentID] = agg
		}
		agg.taken++

		if submission.Score != nil {
			scoreSum += *submission.Score
			scored++
			agg.scores = append(agg.scores, *submission.Score)
		}
	}

	response := dto.SchoolStatisticsResponse{
		Leaderboard: make([]dto.StudentPerformance, 0, len(byStudent)),
		GeneratedAt: s.now(),
	}

	if scored > 0 {
		response.SchoolAverage = roundScore(scoreSum / float64(scored))
	}
	if len(students) > 0 {
		response.ParticipationRate = math.Round(float64(len(participants)) / float64(len(students)) * 100)
	}

	for _, student := range students {
		agg, ok := byStudent[student.ID]
		if !ok {
			continue
		}

		row := dto.StudentPerformance{
			StudentID:  student.ID,
			FullName:   student.FullName,
			ExamsTaken: agg.taken,
			Trend:      dto.TrendSteady,
		}
		if student.ClassroomID != nil {
			row.Classroom = classroomNames[*student.ClassroomID]
		}

		if len(agg.scores) > 0 {
			var sum float64
			for _, score := range agg.scores {
				sum += score
			}
			average := sum / float64(len(agg.scores))
			row.AverageScore = roundScore(average)
			row.Trend = trend(agg.scores[0], average)
		}

		response.Leaderboard = append(response.Leaderboard, row)
	}

	sort.SliceStable(response.Leaderboard, func(i, j int) bool {
		return response.Leaderboard[i].AverageScore > response.Leaderboard[j].AverageScore
	})

	return response
}

// Dashboard builds the admin landing payload: headline counts, live
// student groups per classroom and the latest submissions feed.
func (s *statisticsService) Dashboard(ctx context.Context) (dto.DashboardResponse, error) {
	if cached, ok := readCache[dto.DashboardResponse](ctx, s.cache, dashboardCacheKey, s.logger); ok {
		return cached, nil
	}

	role := models.RoleStudent
	var (
		wg          sync.WaitGroup
		students    []models.Profile
		submissions []models.Submission
		classrooms  []models.Classroom
		published   int64
		studentErr  error
		subErr      error
		classErr    error
		examErr     error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		students, studentErr = s.profiles.List(ctx, repository.ProfileFilter{Role: &role})
	}()
	go func() {
		defer wg.Done()
		submissions, subErr = s.submissions.List(ctx, repository.SubmissionFilter{})
	}()
	go func() {
		defer wg.Done()
		classrooms, classErr = s.classrooms.List(ctx)
	}()
	go func() {
		defer wg.Done()
		isPublished := true
		_, published, examErr = s.exams.List(ctx, repository.ExamFilter{Published: &isPublished})
	}()
	wg.Wait()

	for _, loadErr := range []error{studentErr, subErr, classErr, examErr} {
		if loadErr != nil {
			return dto.DashboardResponse{}, loadErr
		}
	}

	response, err := s.buildDashboard(ctx, students, submissions, classrooms, published)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	writeCache(ctx, s.cache, dashboardCacheKey, response, s.cacheTTL, s.logger)
	return response, nil
}

func (s *statisticsService) buildDashboard(ctx context.Context, students []models.Profile, submissions []models.Submission, classrooms []models.Classroom, publishedExams int64) (dto.DashboardResponse, error) {
	now := s.now()

	activeByStudent := make(map[uint]models.Submission)
	submitted := make([]models.Submission, 0, len(submissions))
	for _, submission := range submissions {
		if submission.IsSubmitted() {
			submitted = append(submitted, submission)
			continue
		}
		activeByStudent[submission.StudentID] = submission
	}

	// one answered-count and question-count lookup per exam with an
	// active attempt, shared across its students
	answeredByExam := make(map[uint]map[uint]int64)
	questionsByExam := make(map[uint]int64)
	for _, submission := range activeByStudent {
		if _, ok := answeredByExam[submission.ExamID]; ok {
			continue
		}

		counts, err := s.answers.AnsweredCountsByExam(ctx, submission.ExamID)
		if err != nil {
			return dto.DashboardResponse{}, err
		}
		answeredByExam[submission.ExamID] = counts

		total, err := s.questions.CountByExam(ctx, submission.ExamID)
		if err != nil {
			return dto.DashboardResponse{}, err
		}
		questionsByExam[submission.ExamID] = total
	}

	studentsByClassroom := make(map[uint][]models.Profile)
	for _, student := range students {
		if student.ClassroomID == nil {
			continue
		}
		studentsByClassroom[*student.ClassroomID] = append(studentsByClassroom[*student.ClassroomID], student)
	}

	response := dto.DashboardResponse{
		Counts: dto.DashboardCounts{
			PublishedExams: publishedExams,
			Students:       int64(len(students)),
			Submitted:      int64(len(submitted)),
			Classrooms:     int64(len(classrooms)),
		},
		Classrooms:  make([]dto.ClassroomGroup, 0, len(classrooms)),
		GeneratedAt: now,
	}

	for _, classroom := range classrooms {
		group := dto.ClassroomGroup{
			ClassroomID: classroom.ID,
			Name:        classroom.Name,
			Students:    make([]dto.DashboardStudent, 0, len(studentsByClassroom[classroom.ID])),
		}

		for _, student := range studentsByClassroom[classroom.ID] {
			row := dto.DashboardStudent{
				StudentID: student.ID,
				FullName:  student.FullName,
				Status:    dto.DashboardStatusOffline,
			}
			if student.IsOnline(now, s.presenceWindow) {
				row.Status = dto.DashboardStatusOnline
			}

			if active, ok := activeByStudent[student.ID]; ok {
				id := active.ID
				row.Status = dto.DashboardStatusInProgress
				row.ExamTitle = active.Exam.Title
				row.SubmissionID = &id
				row.AnsweredCount = answeredByExam[active.ExamID][student.ID]
				row.TotalQuestions = questionsByExam[active.ExamID]
				row.Violations = active.Violations
			}

			group.Students = append(group.Students, row)
		}

		response.Classrooms = append(response.Classrooms, group)
	}

	sort.SliceStable(submitted, func(i, j int) bool {
		iAt, jAt := submitted[i].SubmittedAt, submitted[j].SubmittedAt
		switch {
		case iAt == nil:
			return false
		case jAt == nil:
			return true
		default:
			return iAt.After(*jAt)
		}
	})
	if len(submitted) > recentSubmissionLimit {
		submitted = submitted[:recentSubmissionLimit]
	}

	response.RecentSubmissions = make([]dto.RecentSubmission, 0, len(submitted))
	for _, submission := range submitted {
		response.RecentSubmissions = append(response.RecentSubmissions, dto.RecentSubmission{
			SubmissionID: submission.ID,
			StudentName:  submission.Student.FullName,
			ExamTitle:    submission.Exam.Title,
			Score:        submission.Score,
			SubmittedAt:  submission.SubmittedAt,
		})
	}

	return response, nil
}

func trend(latest, average float64) string {
	switch {
	case latest > average+trendEpsilon:
		return dto.TrendUp
	case latest < average-trendEpsilon:
		return dto.TrendDown
	default:
		return dto.TrendSteady
	}
}

func roundScore(value float64) float64 {
	return math.Round(value*10) / 10
}

func readCache[T any](ctx context.Context, cache *redis.Client, key string, logger zerolog.Logger) (T, bool) {
	var value T
	if cache == nil {
		return value, false
	}

	cached, err := cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn().Err(err).Str("key", key).Msg("failed to read stats cache")
		}
		return value, false
	}

	if unmarshalErr := json.Unmarshal([]byte(cached), &value); unmarshalErr != nil {
		return value, false
	}

	logger.Debug().Str("key", key).Msg("stats cache hit")
	return value, true
}

func writeCache(ctx context.Context, cache *redis.Client, key string, value any, ttl time.Duration, logger zerolog.Logger) {
	if cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if setErr := cache.Set(ctx, key, payload, ttl).Err(); setErr != nil {
		logger.Warn().Err(setErr).Str("key", key).Msg("failed to store stats cache")
	}
}
