package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/models"
)

// ProfileFilter narrows profile listings.
type ProfileFilter struct {
	Role        *string
	ClassroomID *uint
	Search      string
}

// ProfileRepository defines persistence operations for user profiles.
type ProfileRepository interface {
	List(ctx context.Context, filter ProfileFilter) ([]models.Profile, error)
	GetByID(ctx context.Context, id uint) (models.Profile, error)
	GetByUsername(ctx context.Context, username string) (models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	CreateBatch(ctx context.Context, profiles []models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	UpdatePassword(ctx context.Context, id uint, hashed string) error
	TouchLastOnline(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository instantiates a GORM-backed repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) List(ctx context.Context, filter ProfileFilter) ([]models.Profile, error) {
	query := r.db.WithContext(ctx).Model(&models.Profile{})

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}

	if filter.ClassroomID != nil {
		query = query.Where("classroom_id = ?", *filter.ClassroomID)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(username) LIKE ?", pattern, pattern)
	}

	var profiles []models.Profile
	if err := query.Order("full_name ASC").Find(&profiles).Error; err != nil {
		return nil, err
	}

	return profiles, nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return models.Profile{}, err
	}

	return profile, nil
}

func (r *profileRepository) GetByUsername(ctx context.Context, username string) (models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&profile).Error; err != nil {
		return models.Profile{}, err
	}

	return profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepository) CreateBatch(ctx context.Context, profiles []models.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Create(&profiles).Error
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *profileRepository) UpdatePassword(ctx context.Context, id uint, hashed string) error {
	return r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Update("password", hashed).Error
}

func (r *profileRepository) TouchLastOnline(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Update("last_online_at", at).Error
}

func (r *profileRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Profile{}, id).Error
}
