package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/models"
)

// EnrollmentRepository owns the nested progress structure of one
// enrollment row: atomic, idempotent read/merge operations plus the
// derived completion checks computed against live question counts.
//
// Mutating operations fail with ErrNotActive when the enrollment is
// archived and ErrNotFound when it does not exist. The read-merge-write
// sequence is not serialized against concurrent merges on the same
// enrollment; with per-user request rates this is accepted, and the
// later write wins.
type EnrollmentRepository interface {
	// Row access
	Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Enrollment, error)
	GetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Enrollment, error)
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*models.Enrollment, error)
	GetAnyByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*models.Enrollment, error)
	GetAllByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filters EnrollmentFilters) ([]*models.Enrollment, error)
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	Reactivate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Enrollment, error)
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Enrollment, error)

	// Nested progress operations
	GetLessonProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, lessonID uuid.UUID) (*models.LessonProgress, error)
	MergeQuestionProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, lessonID uuid.UUID, entries []models.QuestionProgress) (*models.Enrollment, error)
	Reset(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Enrollment, error)

	// Derived completion state, computed on read against the live count
	// of active questions so it stays correct as questions are archived
	// or added.
	IsLessonCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, lessonID uuid.UUID) (bool, error)
	CompletedLessonCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int, error)
	AverageEstimate(ctx context.Context, tx *gorm.DB, id uuid.UUID, lessonID uuid.UUID) (*float64, error)
}
