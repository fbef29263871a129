package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnforge/course-service/internal/cache"
	"github.com/learnforge/course-service/internal/models"
	"github.com/learnforge/course-service/internal/repositories"
)

// LessonPostgreSQL implements LessonRepository
type LessonPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewLessonPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.LessonRepository {
	return &LessonPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (r *LessonPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *LessonPostgreSQL) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if err := r.getDB(tx).WithContext(ctx).Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	cache.InvalidateLessonCache(ctx, r.cacheManager, lesson.ID.String(), lesson.CourseID.String(), "lesson_create")
	return nil
}

func (r *LessonPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Lesson, error) {
	var lesson models.Lesson

	if tx == nil && r.cacheManager != nil {
		err := r.cacheManager.Lesson.CacheOrExecute(ctx, id.String(), &lesson, cache.LessonCacheConfig.TTL, func() (interface{}, error) {
			var l models.Lesson
			if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
				return nil, err
			}
			return &l, nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, err
		}
		return &lesson, nil
	}

	if err := r.getDB(tx).WithContext(ctx).First(&lesson, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return &lesson, nil
}

func (r *LessonPostgreSQL) GetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Lesson, error) {
	lesson, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if lesson.Archived {
		return nil, repositories.ErrNotActive
	}
	return lesson, nil
}

func (r *LessonPostgreSQL) Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	result := r.getDB(tx).WithContext(ctx).Model(&models.Lesson{}).Where("id = ?", lesson.ID).Updates(lesson)
	if result.Error != nil {
		return fmt.Errorf("failed to update lesson: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateLessonCache(ctx, r.cacheManager, lesson.ID.String(), lesson.CourseID.String(), "lesson_update")
	return nil
}

func (r *LessonPostgreSQL) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	lesson, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if lesson.Archived {
		return repositories.ErrNotFound
	}

	result := r.getDB(tx).WithContext(ctx).Model(&models.Lesson{}).
		Where("id = ?", id).
		Update("archived", true)
	if result.Error != nil {
		return fmt.Errorf("failed to archive lesson: %w", result.Error)
	}

	cache.InvalidateLessonCache(ctx, r.cacheManager, id.String(), lesson.CourseID.String(), "lesson_soft_delete")
	return nil
}

func (r *LessonPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*models.Lesson, error) {
	var lessons []*models.Lesson
	err := r.getDB(tx).WithContext(ctx).
		Where("course_id = ? AND archived = ?", courseID, false).
		Order("created_at ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons by course: %w", err)
	}
	return lessons, nil
}

func (r *LessonPostgreSQL) CountActiveByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	var count int64
	err := r.getDB(tx).WithContext(ctx).Model(&models.Lesson{}).
		Where("course_id = ? AND archived = ?", courseID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

func (r *LessonPostgreSQL) ExistsByName(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.Lesson{}).
		Where("course_id = ? AND name = ? AND archived = ?", courseID, name, false)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check lesson name: %w", err)
	}
	return count > 0, nil
}
