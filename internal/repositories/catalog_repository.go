package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/models"
)

// CourseRepository covers the course side of the catalog. All "active"
// lookups exclude archived rows.
type CourseRepository interface {
	// Basic CRUD operations (soft delete only)
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Course, error)
	GetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Course, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	GetLessons(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*models.Lesson, error)

	// Validation and checks
	IsActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	ExistsByName(ctx context.Context, tx *gorm.DB, name string, excludeID *uuid.UUID) (bool, error)
}

// LessonRepository covers lesson lookups and CRUD within a course.
type LessonRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Lesson, error)
	GetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Lesson, error)
	Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	// Query operations
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*models.Lesson, error)
	CountActiveByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)

	// Validation and checks
	ExistsByName(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
}

// QuestionRepository covers quiz questions and answer checking.
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Question, error)
	GetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
	GetByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*models.Question, error)
	CountActiveByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (int64, error)

	// Answer checking
	GetCorrectAnswer(ctx context.Context, tx *gorm.DB, id uuid.UUID) (string, error)
	CheckAnswer(ctx context.Context, tx *gorm.DB, id uuid.UUID, userAnswer string) (bool, error)

	// Cross-lesson validation: distinct lesson ids of the given active questions.
	GetLessonIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]uuid.UUID, error)
}
