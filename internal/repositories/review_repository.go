package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/models"
)

type ReviewRepository interface {
	Create(ctx context.Context, tx *gorm.DB, review *models.Review) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Review, error)
	Update(ctx context.Context, tx *gorm.DB, review *models.Review) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*models.Review, error)
}
