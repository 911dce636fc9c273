package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/models"
)

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	ExamID    *uint
	StudentID *uint
	Status    *string
}

// SubmissionRepository defines data operations for exam attempts.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByExamAndStudent(ctx context.Context, examID, studentID uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	Finalize(ctx context.Context, id uint, score *float64, submittedAt time.Time) error
	IncrementViolations(ctx context.Context, id uint) (int, error)
	ListExpired(ctx context.Context, now time.Time, grace time.Duration) ([]models.Submission, error)
	Delete(ctx context.Context, id uint) error
	DeleteByStudent(ctx context.Context, studentID uint) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Exam").
		Preload("Student")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.ExamID != nil {
		query = query.Where("exam_id = ?", *filter.ExamID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("started_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByExamAndStudent(ctx context.Context, examID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("exam_id = ?", examID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

// Finalize transitions an attempt to submitted. The status guard keeps the
// transition idempotent under concurrent finish requests.
func (r *submissionRepository) Finalize(ctx context.Context, id uint, score *float64, submittedAt time.Time) error {
	updates := map[string]interface{}{
		"status":       models.SubmissionStatusSubmitted,
		"submitted_at": submittedAt,
	}
	if score != nil {
		updates["score"] = *score
	}

	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Where("status = ?", models.SubmissionStatusInProgress).
		Updates(updates).Error
}

// IncrementViolations bumps the counter in a single UPDATE so concurrent
// focus-loss reports never lose increments.
func (r *submissionRepository) IncrementViolations(ctx context.Context, id uint) (int, error) {
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Update("violations", gorm.Expr("violations + 1")).Error; err != nil {
		return 0, err
	}

	var violations int
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Pluck("violations", &violations).Error; err != nil {
		return 0, err
	}

	return violations, nil
}

// ListExpired returns in-progress attempts whose deadline (plus grace) has
// passed so the sweeper can finalize them. The deadline arithmetic happens
// in Go to keep the query portable across postgres and the sqlite test
// driver.
func (r *submissionRepository) ListExpired(ctx context.Context, now time.Time, grace time.Duration) ([]models.Submission, error) {
	var inProgress []models.Submission
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("status = ?", models.SubmissionStatusInProgress).
		Preload("Exam").
		Find(&inProgress).Error; err != nil {
		return nil, err
	}

	expired := make([]models.Submission, 0, len(inProgress))
	for _, submission := range inProgress {
		deadline := submission.Exam.Deadline(submission.StartedAt).Add(grace)
		if now.After(deadline) {
			expired = append(expired, submission)
		}
	}

	return expired, nil
}

// Delete removes the attempt and its answers in one transaction, returning
// the student to a clean state for a retake.
func (r *submissionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Submission{}, id).Error
	})
}

// DeleteByStudent resets every attempt of one student.
func (r *submissionRepository) DeleteByStudent(ctx context.Context, studentID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Submission{}).
			Where("student_id = ?", studentID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("submission_id IN ?", ids).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Submission{}).Error
	})
}
