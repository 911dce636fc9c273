package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/cbt-go-api/internal/models"
)

// AnswerRepository defines data operations for saved answers.
type AnswerRepository interface {
	Upsert(ctx context.Context, answer *models.Answer) error
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Answer, error)
	ListGraded(ctx context.Context, submissionID uint) ([]models.Answer, error)
	AnsweredCountsByExam(ctx context.Context, examID uint) (map[uint]int64, error)
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository instantiates the repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

// Upsert inserts the answer or, when a row already exists for the
// (submission, question) pair, overwrites the stored choice. ON CONFLICT
// keeps the operation a single statement, so repeated autosaves are
// idempotent and concurrent saves to different questions stay independent.
func (r *answerRepository) Upsert(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"pg_option_id", "essay_text", "updated_at"}),
	}).Create(answer).Error
}

func (r *answerRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

// ListGraded loads answers with their question and options so scoring can
// compare the chosen option against the correct one.
func (r *answerRepository) ListGraded(ctx context.Context, submissionID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Preload("Question").
		Preload("Question.Options").
		Where("submission_id = ?", submissionID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

// AnsweredCountsByExam returns, per student, how many answers have been
// saved for the given exam. Feeds the live monitoring view.
func (r *answerRepository) AnsweredCountsByExam(ctx context.Context, examID uint) (map[uint]int64, error) {
	type row struct {
		StudentID uint
		Count     int64
	}

	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.Answer{}).
		Select("submissions.student_id AS student_id, COUNT(answers.id) AS count").
		Joins("JOIN submissions ON submissions.id = answers.submission_id").
		Where("submissions.exam_id = ?", examID).
		Group("submissions.student_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.StudentID] = r.Count
	}

	return counts, nil
}
