package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/repositories"
)

// ReviewPostgreSQL implements ReviewRepository
type ReviewPostgreSQL struct {
	db *gorm.DB
}

func NewReviewPostgreSQL(db *gorm.DB) repositories.ReviewRepository {
	return &ReviewPostgreSQL{db: db}
}

func (r *ReviewPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ReviewPostgreSQL) Create(ctx context.Context, tx *gorm.DB, review *models.Review) error {
	if err := r.getDB(tx).WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *ReviewPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.getDB(tx).WithContext(ctx).First(&review, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

func (r *ReviewPostgreSQL) Update(ctx context.Context, tx *gorm.DB, review *models.Review) error {
	result := r.getDB(tx).WithContext(ctx).Model(&models.Review{}).Where("id = ?", review.ID).Updates(review)
	if result.Error != nil {
		return fmt.Errorf("failed to update review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *ReviewPostgreSQL) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	result := r.getDB(tx).WithContext(ctx).Model(&models.Review{}).
		Where("id = ? AND archived = ?", id, false).
		Update("archived", true)
	if result.Error != nil {
		return fmt.Errorf("failed to archive review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *ReviewPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*models.Review, error) {
	var reviews []*models.Review
	err := r.getDB(tx).WithContext(ctx).
		Where("course_id = ? AND archived = ?", courseID, false).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get course reviews: %w", err)
	}
	return reviews, nil
}
