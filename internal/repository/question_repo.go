package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/models"
)

// QuestionRepository defines persistence operations for exam questions.
type QuestionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Question, error)
	ListByExam(ctx context.Context, examID uint) ([]models.Question, error)
	ReplaceForExam(ctx context.Context, examID uint, questions []models.Question) error
	AppendToExam(ctx context.Context, examID uint, questions []models.Question) error
	CountByExam(ctx context.Context, examID uint) (int64, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates the repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).Preload("Options").First(&question, id).Error; err != nil {
		return models.Question{}, err
	}

	return question, nil
}

func (r *questionRepository) ListByExam(ctx context.Context, examID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Preload("Options").
		Where("exam_id = ?", examID).
		Order("position ASC, id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

// ReplaceForExam swaps the full question set of an exam inside one
// transaction, so a failure never leaves the exam with a partial set.
func (r *questionRepository) ReplaceForExam(ctx context.Context, examID uint, questions []models.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existingIDs []uint
		if err := tx.Model(&models.Question{}).
			Where("exam_id = ?", examID).
			Pluck("id", &existingIDs).Error; err != nil {
			return err
		}

		if len(existingIDs) > 0 {
			if err := tx.Where("question_id IN ?", existingIDs).Delete(&models.Option{}).Error; err != nil {
				return err
			}
			if err := tx.Where("exam_id = ?", examID).Delete(&models.Question{}).Error; err != nil {
				return err
			}
		}

		return createQuestions(tx, examID, 0, questions)
	})
}

// AppendToExam adds questions after the current last position.
func (r *questionRepository) AppendToExam(ctx context.Context, examID uint, questions []models.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPosition int
		if err := tx.Model(&models.Question{}).
			Where("exam_id = ?", examID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&maxPosition).Error; err != nil {
			return err
		}

		return createQuestions(tx, examID, maxPosition, questions)
	})
}

func createQuestions(tx *gorm.DB, examID uint, positionOffset int, questions []models.Question) error {
	for i := range questions {
		questions[i].ID = 0
		questions[i].ExamID = examID
		questions[i].Position = positionOffset + i + 1

		options := questions[i].Options
		questions[i].Options = nil

		if err := tx.Create(&questions[i]).Error; err != nil {
			return err
		}

		for j := range options {
			options[j].ID = 0
			options[j].QuestionID = questions[i].ID
		}

		if len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return err
			}
		}

		questions[i].Options = options
	}

	return nil
}

func (r *questionRepository) CountByExam(ctx context.Context, examID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("exam_id = ?", examID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
