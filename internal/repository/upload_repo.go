package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/models"
)

// UploadRepository persists metadata about uploaded assets.
type UploadRepository interface {
	Create(ctx context.Context, upload *models.Upload) error
	GetByChecksum(ctx context.Context, checksum string) (models.Upload, error)
}

type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository constructs a repository for upload metadata.
func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, upload *models.Upload) error {
	return r.db.WithContext(ctx).Create(upload).Error
}

func (r *uploadRepository) GetByChecksum(ctx context.Context, checksum string) (models.Upload, error) {
	var upload models.Upload
	if err := r.db.WithContext(ctx).Where("checksum = ?", checksum).First(&upload).Error; err != nil {
		return models.Upload{}, err
	}
	return upload, nil
}
