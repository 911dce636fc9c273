package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/models"
)

// ExamFilter describes listing options for exams.
type ExamFilter struct {
	ClassroomID *uint
	SubjectID   *uint
	TeacherID   *uint
	Published   *bool
	Search      string
	Page        int
	PageSize    int
}

// ExamRepository defines persistence operations for exams.
type ExamRepository interface {
	List(ctx context.Context, filter ExamFilter) ([]models.Exam, int64, error)
	ListPublishedForClassroom(ctx context.Context, classroomID uint) ([]models.Exam, error)
	GetByID(ctx context.Context, id uint) (models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Publish(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates a GORM-backed repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Exam{}).
		Preload("Subject").
		Preload("Classroom")
}

func (r *examRepository) List(ctx context.Context, filter ExamFilter) ([]models.Exam, int64, error) {
	query := r.baseQuery(ctx)

	if filter.ClassroomID != nil {
		query = query.Where("classroom_id = ?", *filter.ClassroomID)
	}

	if filter.SubjectID != nil {
		query = query.Where("subject_id = ?", *filter.SubjectID)
	}

	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
	}

	if filter.Published != nil {
		query = query.Where("is_published = ?", *filter.Published)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(title) LIKE ?", pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var exams []models.Exam
	if err := query.Order("created_at DESC").Find(&exams).Error; err != nil {
		return nil, 0, err
	}

	return exams, total, nil
}

func (r *examRepository) ListPublishedForClassroom(ctx context.Context, classroomID uint) ([]models.Exam, error) {
	var exams []models.Exam
	if err := r.baseQuery(ctx).
		Where("classroom_id = ?", classroomID).
		Where("is_published = ?", true).
		Order("start_time ASC").
		Find(&exams).Error; err != nil {
		return nil, err
	}

	return exams, nil
}

func (r *examRepository) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.baseQuery(ctx).First(&exam, id).Error; err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) Update(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Save(exam).Error
}

// Publish is a one-way transition; there is no unpublish.
func (r *examRepository) Publish(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Exam{}).
		Where("id = ?", id).
		Update("is_published", true).Error
}

func (r *examRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Exam{}, id).Error
}
